package model

import "fmt"

// ValidationError is a user-facing failure: an unparseable command, an
// unknown user or an unusable summarizer response.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// Invalidf builds a ValidationError from a format string.
func Invalidf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}
