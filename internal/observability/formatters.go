// Package observability provides logging and formatted output utilities for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/nathanieluriri/omas-portfolio/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

// PrintUser outputs the signed-in admin.
func (p *Printer) PrintUser(user *types.User) {
	if user == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Name:     %s\n", user.DisplayName()))
	sb.WriteString(fmt.Sprintf("Email:    %s\n", user.Email))
	sb.WriteString(fmt.Sprintf("Login:    %s\n", user.LoginType))
	if user.AccountStatus != "" {
		sb.WriteString(fmt.Sprintf("Status:   %s\n", user.AccountStatus))
	}
	sb.WriteString(fmt.Sprintf("ID:       %s", user.ID))

	p.printBox("SIGNED IN", sb.String())
}

// PrintSuggestions outputs analysis suggestions with their confidence and
// whether each one is selected.
func (p *Printer) PrintSuggestions(suggestions []types.Suggestion, selected func(id string) bool) {
	if len(suggestions) == 0 {
		p.printBox("RESUME SUGGESTIONS", "No suggestions returned.")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total suggestions: %d\n\n", len(suggestions)))

	count := min(len(suggestions), maxItemsToShow)
	for i := 0; i < count; i++ {
		s := suggestions[i]
		mark := " "
		if selected != nil && selected(s.ID) {
			mark = "x"
		}
		sb.WriteString(fmt.Sprintf("[%s] %s  (%s)\n", mark, s.Field, s.ID))
		sb.WriteString(fmt.Sprintf("    Confidence: %d%% %s\n", types.ConfidencePercent(s.Confidence), types.ToneOf(s.Confidence)))
		sb.WriteString(fmt.Sprintf("    Current:    %s\n", orDash(s.CurrentValue)))
		sb.WriteString(fmt.Sprintf("    Suggested:  %s\n", orDash(s.SuggestedValue)))
		if s.Reasoning != "" {
			sb.WriteString(fmt.Sprintf("    Why:        %s\n", s.Reasoning))
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(suggestions) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more suggestions", len(suggestions)-maxItemsToShow))
	}

	p.printBox("RESUME SUGGESTIONS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintFieldChange outputs a field's value before and after a suggestion or undo.
func (p *Printer) PrintFieldChange(title, field, before, after string) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Field:    %s\n\n", field))
	sb.WriteString("Before:\n")
	sb.WriteString(fmt.Sprintf("  %s\n\n", orDash(before)))
	sb.WriteString("After:\n")
	sb.WriteString(fmt.Sprintf("  %s", orDash(after)))

	p.printBox(title, sb.String())
}

// DraftStatus summarises a draft for PrintDraftStatus.
type DraftStatus struct {
	Exists     bool
	HasChanges bool
	Sections   []string
	Error      string
}

// PrintDraftStatus outputs whether the draft has unsaved changes.
func (p *Printer) PrintDraftStatus(status DraftStatus) {
	var sb strings.Builder
	switch {
	case !status.Exists:
		sb.WriteString("No portfolio yet. Run 'portfolio init' to create one.\n")
	case status.HasChanges:
		sb.WriteString("You have unsaved changes\n")
	default:
		sb.WriteString("All changes saved\n")
	}

	if len(status.Sections) > 0 {
		sb.WriteString(fmt.Sprintf("Sections: %s\n", strings.Join(status.Sections, ", ")))
	}
	if status.Error != "" {
		sb.WriteString(fmt.Sprintf("⚠ %s\n", status.Error))
	}

	p.printBox("PORTFOLIO DRAFT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintApplied outputs the updates sent in a bulk apply.
func (p *Printer) PrintApplied(updates []types.ApplyUpdate) {
	if len(updates) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Applied %d updates:\n\n", len(updates)))
	for _, u := range updates {
		sb.WriteString(fmt.Sprintf("✓ %s\n", u.Field))
		sb.WriteString(fmt.Sprintf("  %s → %s\n", orDash(u.ExpectedCurrent), orDash(u.Value)))
	}

	p.printBox("SUGGESTIONS APPLIED", strings.TrimSuffix(sb.String(), "\n"))
}

func orDash(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), "\n", " ")
	if s == "" {
		return "-"
	}
	return s
}
