package repair

import (
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/posturefix/internal/bootparam"
)

// Kind classifies a repair failure.
type Kind string

const (
	// KindNotFound means the name or attribute identifier is not recognized.
	KindNotFound Kind = "not_found"
	// KindUnsupported means the attribute is known but has no remediation.
	KindUnsupported Kind = "unsupported"
	// KindToolNotFound means the boot parameter tool is not installed.
	KindToolNotFound Kind = "tool_not_found"
	// KindExecutionFailed means the tool ran and reported failure.
	KindExecutionFailed Kind = "execution_failed"
	// KindInternal covers everything else.
	KindInternal Kind = "internal"
)

// User-facing messages.
const (
	MsgNotFound        = "Repair item is not found."
	MsgUnsupported     = "Repair item is not supported."
	MsgToolNotFound    = "Boot parameter tool is not installed."
	MsgExecutionFailed = "Boot parameter tool failed."
	MsgInternal        = "Repair failed."
)

// Sentinel errors for errors.Is. An *Error matches the sentinel of its Kind.
var (
	ErrNotFound        = errors.New("repair item not found")
	ErrUnsupported     = errors.New("repair item not supported")
	ErrToolNotFound    = errors.New("boot parameter tool not found")
	ErrExecutionFailed = errors.New("boot parameter tool failed")
)

// Error is the structured failure returned by Registry lookups and Engine
// executions.
type Error struct {
	Kind    Kind
	Key     string // name or attribute identifier
	Message string
	Output  string // captured tool output, if any
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Key, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Key, e.Message)
}

// Unwrap returns the underlying handler error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel error for e.Kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrUnsupported:
		return e.Kind == KindUnsupported
	case ErrToolNotFound:
		return e.Kind == KindToolNotFound
	case ErrExecutionFailed:
		return e.Kind == KindExecutionFailed
	}
	return false
}

func notFound(key string) *Error {
	return &Error{Kind: KindNotFound, Key: key, Message: MsgNotFound}
}

func unsupported(key string) *Error {
	return &Error{Kind: KindUnsupported, Key: key, Message: MsgUnsupported}
}

// classify wraps a handler error, preserving it for errors.Is/As.
func classify(key string, err error) *Error {
	var re *Error
	if errors.As(err, &re) {
		return re
	}

	e := &Error{Kind: KindInternal, Key: key, Message: MsgInternal, Err: err}
	switch {
	case errors.Is(err, bootparam.ErrToolNotFound):
		e.Kind, e.Message = KindToolNotFound, MsgToolNotFound
	case errors.Is(err, bootparam.ErrExecutionFailed):
		e.Kind, e.Message = KindExecutionFailed, MsgExecutionFailed
	}

	var execErr *bootparam.ExecError
	if errors.As(err, &execErr) {
		e.Output = execErr.Output
	}
	return e
}

// KindOf returns the Kind of err, or "" for nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindInternal
}
