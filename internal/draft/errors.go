// Package draft keeps the last saved portfolio next to the working draft and
// reconciles the two on save and discard.
package draft

import (
	"errors"
	"fmt"
)

// Fallback messages
const (
	MessageNoUser     = "Unable to load user profile."
	MessageLoadFailed = "Failed to load portfolio."
	MessageSaveFailed = "Failed to save."
)

// ErrNoDraft is returned by edits made before a draft exists.
var ErrNoDraft = errors.New("no draft loaded")

// ErrSaveInProgress is returned when Save is called while a save is running.
var ErrSaveInProgress = errors.New("save already in progress")

// LoadError is a failed Load. Message is safe to show to the user.
type LoadError struct {
	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("load error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("load error: %s", e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// SaveError is a failed Save. The draft is kept.
type SaveError struct {
	Message string
	Cause   error
}

func (e *SaveError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("save error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("save error: %s", e.Message)
}

func (e *SaveError) Unwrap() error {
	return e.Cause
}
