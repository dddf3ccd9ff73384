package interp

import (
	"errors"
	"fmt"

	"github.com/iocscope/iocscope/internal/model"
)

// ScriptErrorCode categorizes fatal script errors.
type ScriptErrorCode string

const (
	// ErrCodeSyntax indicates a malformed line, e.g. unbalanced quoting.
	ErrCodeSyntax ScriptErrorCode = "SCRIPT_SYNTAX"

	// ErrCodeCyclicInclusion indicates a script sourced itself, directly
	// or transitively.
	ErrCodeCyclicInclusion ScriptErrorCode = "CYCLIC_INCLUSION"
)

// ScriptError aborts interpretation of the offending script. It carries the
// full active SourceLocation of the failing line so callers can report
// "failed at file:line with macro state {...}".
type ScriptError struct {
	Code    ScriptErrorCode
	Message string
	Loc     model.SourceLocation
}

// Error implements the error interface.
func (e *ScriptError) Error() string {
	if e.Loc.IsZero() {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Loc, e.Code, e.Message)
}

// IsSyntaxError returns true if err is a script syntax error.
// Uses errors.As to handle wrapped errors.
func IsSyntaxError(err error) bool {
	var se *ScriptError
	if errors.As(err, &se) {
		return se.Code == ErrCodeSyntax
	}
	return false
}

// IsCyclicInclusionError returns true if err is a cyclic-inclusion error.
// Uses errors.As to handle wrapped errors.
func IsCyclicInclusionError(err error) bool {
	var se *ScriptError
	if errors.As(err, &se) {
		return se.Code == ErrCodeCyclicInclusion
	}
	return false
}
