package content

import (
	"strconv"
	"strings"
)

// Segment is one step of a Path: either an object key or an array index.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

// Key returns an object-key segment.
func Key(name string) Segment { return Segment{Key: name} }

// Idx returns an array-index segment.
func Idx(i int) Segment { return Segment{Index: i, IsIndex: true} }

func (s Segment) String() string {
	if s.IsIndex {
		return "[" + strconv.Itoa(s.Index) + "]"
	}
	return s.Key
}

// Path addresses a value inside a document, e.g. experience[2].highlights[0].
type Path []Segment

// RootPath is the valid empty path; it resolves to the document itself.
var RootPath = Path{}

// String formats the path in the dotted/bracketed syntax accepted by ParsePath.
func (p Path) String() string {
	var sb strings.Builder
	for i, seg := range p {
		if !seg.IsIndex && i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(seg.String())
	}
	return sb.String()
}

// ParsePath tokenizes a field path of the form key(.key|[n])*, where every dotted
// part starts with a non-empty key and may be followed by one or more bracketed
// non-negative integer indices. Malformed input yields a *PathError.
func ParsePath(raw string) (Path, error) {
	if raw == "" {
		return nil, &PathError{Path: raw, Message: "path is empty"}
	}

	path := make(Path, 0, 4)
	i := 0
	for {
		// key
		start := i
		for i < len(raw) && raw[i] != '.' && raw[i] != '[' && raw[i] != ']' {
			i++
		}
		if i == start {
			return nil, &PathError{Path: raw, Offset: i, Message: "empty key"}
		}
		path = append(path, Key(raw[start:i]))

		// zero or more [n]
		for i < len(raw) && raw[i] == '[' {
			end := strings.IndexByte(raw[i:], ']')
			if end < 0 {
				return nil, &PathError{Path: raw, Offset: i, Message: "unbalanced bracket"}
			}
			digits := raw[i+1 : i+end]
			n, err := parseIndex(digits)
			if err != nil {
				return nil, &PathError{Path: raw, Offset: i + 1, Message: "invalid index " + strconv.Quote(digits), Cause: err}
			}
			path = append(path, Idx(n))
			i += end + 1
		}

		if i == len(raw) {
			return path, nil
		}
		switch raw[i] {
		case '.':
			i++
			if i == len(raw) {
				return nil, &PathError{Path: raw, Offset: i, Message: "empty key"}
			}
		case ']':
			return nil, &PathError{Path: raw, Offset: i, Message: "unbalanced bracket"}
		default:
			return nil, &PathError{Path: raw, Offset: i, Message: "expected '.' or '['"}
		}
	}
}

// MustParsePath panics if raw is not a valid path.
func MustParsePath(raw string) Path {
	p, err := ParsePath(raw)
	if err != nil {
		panic(err)
	}
	return p
}

func parseIndex(digits string) (int, error) {
	if digits == "" {
		return 0, strconv.ErrSyntax
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.Atoi(digits)
}

// Resolve walks path through doc. It returns false as soon as a segment cannot be
// followed: a null or missing intermediate, a key on a non-object, an index on a
// non-array, or an index out of bounds.
func Resolve(doc Value, path Path) (Value, bool) {
	current := doc
	for _, seg := range path {
		var ok bool
		if seg.IsIndex {
			current, ok = current.Index(seg.Index)
		} else {
			current, ok = current.Get(seg.Key)
		}
		if !ok {
			return Value{}, false
		}
	}
	return current, true
}

// Lookup parses raw and resolves it against doc.
func Lookup(doc Value, raw string) (Value, bool, error) {
	path, err := ParsePath(raw)
	if err != nil {
		return Value{}, false, err
	}
	v, ok := Resolve(doc, path)
	return v, ok, nil
}

// MaxIndexGap is how many null slots Set may pad an array with to reach an index.
const MaxIndexGap = 64

// Set returns a copy of doc with value written at path. Missing or null
// intermediates are created (objects for key segments, arrays padded with nulls for
// index segments, at most MaxIndexGap past the end). Descending through a scalar is
// an error. doc itself is not modified.
func Set(doc Value, path Path, value Value) (Value, error) {
	return setAt(doc, path, 0, value)
}

func setAt(current Value, path Path, depth int, value Value) (Value, error) {
	if depth == len(path) {
		return value, nil
	}
	seg := path[depth]

	if seg.IsIndex {
		switch current.kind {
		case KindNull:
			current = Array()
		case KindArray:
		default:
			return Value{}, &PathError{Path: path.String(), Message: "cannot index into " + current.kind.String() + " at " + path[:depth+1].String()}
		}
		if seg.Index-len(current.items) > MaxIndexGap {
			return Value{}, &PathError{Path: path.String(), Message: "index " + strconv.Itoa(seg.Index) + " is too far past the end of " + path[:depth].String()}
		}
		items := make([]Value, max(len(current.items), seg.Index+1))
		copy(items, current.items)
		next, err := setAt(items[seg.Index], path, depth+1, value)
		if err != nil {
			return Value{}, err
		}
		items[seg.Index] = next
		return Value{kind: KindArray, items: items}, nil
	}

	switch current.kind {
	case KindNull:
		current = Object()
	case KindObject:
	default:
		return Value{}, &PathError{Path: path.String(), Message: "cannot read key " + strconv.Quote(seg.Key) + " of " + current.kind.String()}
	}
	child, _ := current.Get(seg.Key)
	next, err := setAt(child, path, depth+1, value)
	if err != nil {
		return Value{}, err
	}
	return current.with(seg.Key, next), nil
}
