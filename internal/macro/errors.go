package macro

import (
	"errors"
	"fmt"
)

// ExpansionErrorCode categorizes expansion diagnostics.
type ExpansionErrorCode string

const (
	// ErrCodeUndefined indicates a referenced macro name has no definition
	// in any active frame.
	ErrCodeUndefined ExpansionErrorCode = "UNDEFINED_MACRO"

	// ErrCodeCycle indicates a macro's value references itself, directly
	// or through other macros.
	ErrCodeCycle ExpansionErrorCode = "MACRO_CYCLE"
)

// ExpansionError is a diagnostic produced while expanding text. In the
// default forgiving mode these are collected on the Context and the
// offending reference is emitted literally; in strict mode Expand returns
// the first one as an error.
type ExpansionError struct {
	// Code identifies the diagnostic category.
	Code ExpansionErrorCode

	// Name is the macro name that could not be resolved.
	Name string

	// Text is the input that was being expanded when the error occurred.
	Text string
}

// Error implements the error interface.
func (e *ExpansionError) Error() string {
	switch e.Code {
	case ErrCodeCycle:
		return fmt.Sprintf("%s: macro %q references itself while expanding %q", e.Code, e.Name, e.Text)
	default:
		return fmt.Sprintf("%s: macro %q is undefined while expanding %q", e.Code, e.Name, e.Text)
	}
}

// IsUndefinedError returns true if err is an undefined-macro diagnostic.
// Uses errors.As to handle wrapped errors.
func IsUndefinedError(err error) bool {
	var ee *ExpansionError
	if errors.As(err, &ee) {
		return ee.Code == ErrCodeUndefined
	}
	return false
}

// IsCycleError returns true if err is a macro-cycle diagnostic.
// Uses errors.As to handle wrapped errors.
func IsCycleError(err error) bool {
	var ee *ExpansionError
	if errors.As(err, &ee) {
		return ee.Code == ErrCodeCycle
	}
	return false
}
