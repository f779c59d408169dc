package bootparam

import (
	"errors"
	"fmt"
)

var (
	// ErrToolNotFound indicates the editor binary is not on PATH.
	ErrToolNotFound = errors.New("boot parameter tool not found")

	// ErrExecutionFailed indicates the editor ran and reported failure.
	ErrExecutionFailed = errors.New("boot parameter tool failed")

	// ErrInvalidArgument indicates a kernel argument that cannot be passed safely.
	ErrInvalidArgument = errors.New("invalid kernel argument")
)

// ExecError carries the argument vector and captured output of a failed
// tool invocation.
type ExecError struct {
	Args   []string
	Output string
	Err    error
}

// Error implements the error interface.
func (e *ExecError) Error() string {
	if len(e.Args) == 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Args[0], e.Err)
}

// Unwrap allows errors.Is(err, ErrExecutionFailed) and access to the
// underlying *exec.ExitError.
func (e *ExecError) Unwrap() []error {
	return []error{ErrExecutionFailed, e.Err}
}
