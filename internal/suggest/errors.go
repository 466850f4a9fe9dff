// Package suggest drives AI suggestions for a single content field.
package suggest

import "fmt"

// User-facing messages
const (
	MessageNoData          = "No suggestion data returned."
	MessageFieldMissing    = "AI response did not include the selected field."
	MessageNotApplicable   = "AI response could not be applied to this field."
	MessageGenerateFailed  = "Failed to generate suggestion."
	NoteSuggestionApplied  = "Suggestion applied. You can undo if needed."
	NoteUndoApplied        = "Undo applied."
	NoteStoredResumeLocked = "Clear text/file to use the stored resume."
)

// FieldMismatchError is returned when a suggestion arrived but its patch held no
// usable value at the target path. The host document is left untouched.
type FieldMismatchError struct {
	Path    string
	Message string
}

func (e *FieldMismatchError) Error() string {
	return fmt.Sprintf("field mismatch at %s: %s", e.Path, e.Message)
}

// ApplyError wraps a failure of the host's apply callback.
type ApplyError struct {
	Path  string
	Cause error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("failed to apply value at %s: %v", e.Path, e.Cause)
}

func (e *ApplyError) Unwrap() error {
	return e.Cause
}
