package content

import (
	"regexp"
	"strings"
)

var listSeparator = regexp.MustCompile(`,|\n`)

// ParseList splits free text on commas and newlines, trimming items and dropping
// empty ones.
func ParseList(text string) []string {
	parts := listSeparator.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// CoerceFunc turns a raw suggested value into the shape a field expects. The second
// result is false when the value cannot be made to fit.
type CoerceFunc func(raw Value) (Value, bool)

// CoerceStringList accepts an array of scalars or a delimited string and yields an
// array of non-empty strings.
func CoerceStringList(raw Value) (Value, bool) {
	switch raw.Kind() {
	case KindString:
		s, _ := raw.AsString()
		return Strings(ParseList(s)...), true
	case KindArray:
		items := make([]string, 0, raw.Len())
		for _, item := range raw.Items() {
			switch item.Kind() {
			case KindString, KindNumber, KindBool:
				if text := strings.TrimSpace(item.Text()); text != "" {
					items = append(items, text)
				}
			case KindNull:
			default:
				return Value{}, false
			}
		}
		return Strings(items...), true
	default:
		return Value{}, false
	}
}

// CoerceString accepts any scalar and yields its text; null, arrays and objects do
// not fit a string field.
func CoerceString(raw Value) (Value, bool) {
	switch raw.Kind() {
	case KindString:
		return raw, true
	case KindNumber, KindBool:
		return String(raw.Text()), true
	default:
		return Value{}, false
	}
}

// CoerceBool accepts booleans and the strings "true"/"false".
func CoerceBool(raw Value) (Value, bool) {
	switch raw.Kind() {
	case KindBool:
		return raw, true
	case KindString:
		s, _ := raw.AsString()
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true":
			return Bool(true), true
		case "false":
			return Bool(false), true
		}
	}
	return Value{}, false
}
