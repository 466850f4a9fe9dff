package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// MarshalJSON encodes v, writing object members in their stored order.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeValue(buf *bytes.Buffer, v Value) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool, KindNumber, KindString:
		var scalar any
		switch v.kind {
		case KindBool:
			scalar = v.b
		case KindNumber:
			scalar = v.n
		default:
			scalar = v.s
		}
		data, err := json.Marshal(scalar)
		if err != nil {
			return err
		}
		buf.Write(data)
	case KindArray:
		buf.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeValue(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		for i, m := range v.members {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(m.Key)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := encodeValue(buf, m.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("content: cannot encode %s", v.kind)
	}
	return nil
}

// UnmarshalJSON decodes data into v, keeping object keys in document order.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	decoded, err := decodeValue(dec)
	if err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("content: unexpected data after top-level value")
	}
	*v = decoded
	return nil
}

// Parse decodes a JSON document.
func Parse(data []byte) (Value, error) {
	var v Value
	if err := v.UnmarshalJSON(data); err != nil {
		return Value{}, err
	}
	return v, nil
}

// MustParse is Parse for literals in tests and fixtures; it panics on malformed input.
func MustParse(data string) Value {
	v, err := Parse([]byte(data))
	if err != nil {
		panic(err)
	}
	return v
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, fmt.Errorf("content: failed to decode JSON: %w", err)
	}
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("content: invalid number %q: %w", t.String(), err)
		}
		return Number(n), nil
	case json.Delim:
		switch t {
		case '[':
			items := []Value{}
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, fmt.Errorf("content: failed to decode JSON: %w", err)
			}
			return Array(items...), nil
		case '{':
			obj := Object()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, fmt.Errorf("content: failed to decode JSON: %w", err)
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("content: object key is not a string")
				}
				member, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				obj.members = append(obj.members, Member{Key: key, Value: member})
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, fmt.Errorf("content: failed to decode JSON: %w", err)
			}
			return dedupe(obj), nil
		}
	}
	return Value{}, fmt.Errorf("content: unexpected JSON token %v", tok)
}

// dedupe keeps the last value for a repeated key, at the first key's position,
// matching how encoding/json treats duplicates.
func dedupe(obj Value) Value {
	seen := make(map[string]int, len(obj.members))
	out := obj.members[:0:0]
	for _, m := range obj.members {
		if i, ok := seen[m.Key]; ok {
			out[i].Value = m.Value
			continue
		}
		seen[m.Key] = len(out)
		out = append(out, m)
	}
	return Value{kind: KindObject, members: out}
}
