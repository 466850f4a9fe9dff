package content

import "fmt"

// PathError reports a malformed field path or a path that cannot be written.
type PathError struct {
	Path    string
	Offset  int
	Message string
	Cause   error
}

func (e *PathError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid path %q: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("invalid path %q: %s", e.Path, e.Message)
}

func (e *PathError) Unwrap() error {
	return e.Cause
}
