package bulk

import (
	"errors"
	"fmt"
)

// ErrBusy is returned when a request is already in flight.
var ErrBusy = errors.New("a request is already in progress")

// StateError is returned when an action does not fit the current step.
type StateError struct {
	Step    Step
	Message string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("bulk suggestions (%s): %s", e.Step, e.Message)
}
