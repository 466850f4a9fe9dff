package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nathanieluriri/omas-portfolio/internal/content"
)

func TestCSS(t *testing.T) {
	tests := []struct {
		name  string
		theme string
		want  string
	}{
		{"snake case", `{"text_primary":"#111","bg_primary":"#fff"}`, "--text-primary-light:#111;--bg-primary-light:#fff;"},
		{"camel case", `{"accentPrimary":"#f00","bgSurfaceHover":"#222"}`, "--bg-surface-hover-light:#222;--accent-primary-light:#f00;"},
		{"snake wins", `{"text_muted":"#aaa","textMuted":"#bbb"}`, "--text-muted-light:#aaa;"},
		{"null falls back to camel", `{"text_muted":null,"textMuted":"#bbb"}`, "--text-muted-light:#bbb;"},
		{"unset keys omitted", `{"unknown":"x","bg_divider":null}`, ""},
		{"non string ignored", `{"bg_divider":3}`, ""},
		{"not an object", `"dark"`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CSS(content.MustParse(tt.theme)))
		})
	}
}

func TestFromPortfolio(t *testing.T) {
	doc := content.MustParse(`{"hero":{},"theme":{"accent_muted":"#0f0"}}`)
	assert.Equal(t, "--accent-muted-light:#0f0;", FromPortfolio(doc))
	assert.Equal(t, "", FromPortfolio(content.EmptyPortfolio()))
	assert.Equal(t, "", FromPortfolio(content.Null()))
}

func TestProperties_Order(t *testing.T) {
	props := Properties(content.MustParse(`{"accent_muted":"a","text_primary":"b"}`))
	assert.Equal(t, []Property{
		{Name: "--text-primary-light", Value: "b"},
		{Name: "--accent-muted-light", Value: "a"},
	}, props)
}
