package upload

// ValidationError reports a local file that must not be sent to the API.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
