// Package theme turns a portfolio's theme colours into CSS custom properties.
package theme

import (
	"strings"

	"github.com/nathanieluriri/omas-portfolio/internal/content"
)

// Property is one CSS custom property.
type Property struct {
	Name  string
	Value string
}

// colorKeys maps each CSS variable to the snake_case and camelCase keys the API
// may send it under. The snake_case key wins when both are present.
var colorKeys = []struct {
	variable string
	snake    string
	camel    string
}{
	{"--text-primary-light", "text_primary", "textPrimary"},
	{"--text-secondary-light", "text_secondary", "textSecondary"},
	{"--text-muted-light", "text_muted", "textMuted"},
	{"--bg-primary-light", "bg_primary", "bgPrimary"},
	{"--bg-surface-light", "bg_surface", "bgSurface"},
	{"--bg-surface-hover-light", "bg_surface_hover", "bgSurfaceHover"},
	{"--bg-divider-light", "bg_divider", "bgDivider"},
	{"--accent-primary-light", "accent_primary", "accentPrimary"},
	{"--accent-muted-light", "accent_muted", "accentMuted"},
}

// Properties returns the custom properties set by theme. Colours that are
// missing, null or not strings are left out so the stylesheet defaults apply.
func Properties(theme content.Value) []Property {
	var props []Property
	for _, key := range colorKeys {
		value, ok := pick(theme, key.snake, key.camel)
		if !ok {
			continue
		}
		props = append(props, Property{Name: key.variable, Value: value})
	}
	return props
}

func pick(theme content.Value, keys ...string) (string, bool) {
	for _, k := range keys {
		v, ok := theme.Get(k)
		if !ok || v.IsNull() {
			continue
		}
		if s, ok := v.AsString(); ok {
			return s, true
		}
	}
	return "", false
}

// CSS renders theme as an inline style string, e.g.
// "--text-primary-light:#111;--bg-primary-light:#fff;".
func CSS(theme content.Value) string {
	var sb strings.Builder
	for _, p := range Properties(theme) {
		sb.WriteString(p.Name)
		sb.WriteByte(':')
		sb.WriteString(p.Value)
		sb.WriteByte(';')
	}
	return sb.String()
}

// FromPortfolio renders the theme section of a portfolio document.
func FromPortfolio(doc content.Value) string {
	theme, ok := doc.Get("theme")
	if !ok {
		return ""
	}
	return CSS(theme)
}
