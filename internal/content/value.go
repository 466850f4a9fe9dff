// Package content models the portfolio document as a schema-agnostic JSON tree and
// provides path addressing over it.
package content

import (
	"fmt"
	"sort"
	"strconv"
)

// Kind identifies which variant a Value holds.
type Kind int

// Value kinds
const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Member is a single key/value pair of an object. Objects keep their members in
// insertion order so that key order survives a decode/encode round trip.
type Member struct {
	Key   string
	Value Value
}

// Value is a JSON value: null, bool, number, string, array or object.
// The zero Value is null.
type Value struct {
	kind    Kind
	b       bool
	n       float64
	s       string
	items   []Value
	members []Member
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps a number.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Array builds an array from the given items.
func Array(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindArray, items: items}
}

// Strings builds an array of strings.
func Strings(items ...string) Value {
	out := make([]Value, len(items))
	for i, s := range items {
		out[i] = String(s)
	}
	return Array(out...)
}

// Object builds an object from members. Later duplicates of a key replace earlier ones
// in place, keeping the position of the first occurrence.
func Object(members ...Member) Value {
	v := Value{kind: KindObject, members: make([]Member, 0, len(members))}
	for _, m := range members {
		v = v.with(m.Key, m.Value)
	}
	return v
}

// M is shorthand for constructing a Member.
func M(key string, value Value) Member {
	return Member{Key: key, Value: value}
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean held by v.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsNumber returns the number held by v.
func (v Value) AsNumber() (float64, bool) { return v.n, v.kind == KindNumber }

// AsString returns the string held by v.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// Len returns the number of items of an array or members of an object, 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.items)
	case KindObject:
		return len(v.members)
	default:
		return 0
	}
}

// Index returns the i-th item of an array.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindArray || i < 0 || i >= len(v.items) {
		return Value{}, false
	}
	return v.items[i], true
}

// Items returns a copy of the items of an array, or nil if v is not an array.
func (v Value) Items() []Value {
	if v.kind != KindArray {
		return nil
	}
	out := make([]Value, len(v.items))
	copy(out, v.items)
	return out
}

// Get returns the member value stored under key.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	for _, m := range v.members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// Keys returns the object keys in order.
func (v Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}
	keys := make([]string, len(v.members))
	for i, m := range v.members {
		keys[i] = m.Key
	}
	return keys
}

// Members returns a copy of the object members in order.
func (v Value) Members() []Member {
	if v.kind != KindObject {
		return nil
	}
	out := make([]Member, len(v.members))
	copy(out, v.members)
	return out
}

// With returns a copy of the object v with key set to value. A non-object v is treated
// as an empty object.
func (v Value) With(key string, value Value) Value {
	if v.kind != KindObject {
		v = Object()
	}
	return v.with(key, value)
}

// with replaces or appends key without sharing the member slice with v.
func (v Value) with(key string, value Value) Value {
	members := make([]Member, len(v.members), len(v.members)+1)
	copy(members, v.members)
	for i := range members {
		if members[i].Key == key {
			members[i].Value = value
			return Value{kind: KindObject, members: members}
		}
	}
	members = append(members, Member{Key: key, Value: value})
	return Value{kind: KindObject, members: members}
}

// Text renders scalars as plain text; arrays and objects render as compact JSON.
func (v Value) Text() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	case KindString:
		return v.s
	default:
		data, err := v.MarshalJSON()
		if err != nil {
			return ""
		}
		return string(data)
	}
}

// Clone returns a deep copy of v that shares no slices with it.
func Clone(v Value) Value {
	switch v.kind {
	case KindArray:
		items := make([]Value, len(v.items))
		for i, item := range v.items {
			items[i] = Clone(item)
		}
		return Value{kind: KindArray, items: items}
	case KindObject:
		members := make([]Member, len(v.members))
		for i, m := range v.members {
			members[i] = Member{Key: m.Key, Value: Clone(m.Value)}
		}
		return Value{kind: KindObject, members: members}
	default:
		return v
	}
}

// Equal reports ordered structural equality: object key order and array order are
// both significant.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.n == b.n
	case KindString:
		return a.s == b.s
	case KindArray:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(a.members) != len(b.members) {
			return false
		}
		for i := range a.members {
			if a.members[i].Key != b.members[i].Key {
				return false
			}
			if !Equal(a.members[i].Value, b.members[i].Value) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// FromAny converts plain Go values (as produced by encoding/json into interface{})
// into a Value. Map keys are sorted since Go maps carry no order.
func FromAny(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(float64(t)), nil
	case int:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case []string:
		return Strings(t...), nil
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			v, err := FromAny(item)
			if err != nil {
				return Value{}, err
			}
			items[i] = v
		}
		return Array(items...), nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		members := make([]Member, len(keys))
		for i, k := range keys {
			v, err := FromAny(t[k])
			if err != nil {
				return Value{}, err
			}
			members[i] = Member{Key: k, Value: v}
		}
		return Value{kind: KindObject, members: members}, nil
	default:
		return Value{}, fmt.Errorf("content: unsupported type %T", x)
	}
}
