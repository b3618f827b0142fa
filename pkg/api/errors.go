package api

import (
	"errors"
	"fmt"
)

// ErrRuntimeClosed is the cancellation cause used when a runtime is closed
// by its owner rather than failing.
var ErrRuntimeClosed = errors.New("runtime closed")

// IllegalStateError reports a programming error in a workflow or interceptor:
// a broken runtime contract that tests are expected to catch. It is raised
// with panic at the point of violation.
type IllegalStateError struct {
	Msg string
}

func (e *IllegalStateError) Error() string {
	return e.Msg
}

// IllegalState builds an IllegalStateError from a format string.
func IllegalState(format string, args ...any) *IllegalStateError {
	return &IllegalStateError{Msg: fmt.Sprintf(format, args...)}
}

// IsIllegalState reports whether err is, or wraps, an IllegalStateError.
func IsIllegalState(err error) bool {
	var ise *IllegalStateError
	return errors.As(err, &ise)
}

// PanicError converts a recovered panic value into an error. Errors are
// returned unchanged so IllegalStateError keeps its type.
func PanicError(recovered any) error {
	if err, ok := recovered.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", recovered)
}
