package template

import (
	"errors"
	"fmt"
)

// Sentinel errors for template operations.
var (
	// ErrEmpty is returned when the template text is empty.
	ErrEmpty = errors.New("template is empty")

	// ErrMalformed is returned when the dynamic slot is missing or repeated.
	ErrMalformed = errors.New("malformed template")

	// ErrExamples is returned when the examples do not cover the template's
	// example slots.
	ErrExamples = errors.New("not enough examples for template slots")
)

// MalformedError describes a template whose dynamic slot does not appear
// exactly once.
type MalformedError struct {
	Path  string
	Slot  string
	Count int
}

// Error implements the error interface.
func (e *MalformedError) Error() string {
	where := "template"
	if e.Path != "" {
		where = e.Path
	}
	if e.Count == 0 {
		return fmt.Sprintf("%s: dynamic slot %s is missing", where, e.Slot)
	}
	return fmt.Sprintf("%s: dynamic slot %s appears %d times", where, e.Slot, e.Count)
}

// Unwrap returns ErrMalformed.
func (e *MalformedError) Unwrap() error {
	return ErrMalformed
}
