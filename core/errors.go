package core

import "fmt"

// ValidationError reports a rejected contract input. The caller's state is
// unaffected and the call may be retried with valid input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// NewValidationError creates a ValidationError with the given message.
func NewValidationError(msg string) error {
	return &ValidationError{Msg: msg}
}

// EnvironmentError wraps a failure surfaced by the execution environment
// itself, as opposed to an error returned by contract code.
type EnvironmentError struct {
	Op  string
	Err error
}

func (e *EnvironmentError) Error() string {
	return fmt.Sprintf("environment: %s: %v", e.Op, e.Err)
}

func (e *EnvironmentError) Unwrap() error {
	return e.Err
}

// NewEnvironmentError wraps err as an EnvironmentError for operation op.
func NewEnvironmentError(op string, err error) error {
	return &EnvironmentError{Op: op, Err: err}
}
