package validation

import "fmt"

// Error is a malformed-input failure, rejected before any persistence
// attempt. The HTTP boundary maps it to a 400.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func Errorf(field, format string, args ...any) *Error {
	return &Error{Field: field, Reason: fmt.Sprintf(format, args...)}
}
