// Package recovery turns panics raised by user-supplied code into errors.
package recovery

import (
	"fmt"
	"runtime"

	"go.uber.org/zap"
)

const (
	// StackTraceBufferSize is the buffer size for stack trace collection
	StackTraceBufferSize = 4096
)

// PanicError carries a recovered panic value and the stack at the point of recovery.
type PanicError struct {
	// Name identifies the code that panicked
	Name string
	// Value is the value passed to panic
	Value any
	// Stack is the (possibly truncated) stack of the panicking goroutine
	Stack string
}

// Error implements the error interface for PanicError.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Name, e.Value)
}

// Unwrap exposes the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Call runs fn and converts a panic into a *PanicError.
// If logger is nil the panic is not logged.
func Call(name string, fn func(), logger *zap.SugaredLogger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, StackTraceBufferSize)
			n := runtime.Stack(buf, false)

			err = &PanicError{Name: name, Value: r, Stack: string(buf[:n])}
			if logger != nil {
				logger.Debugw("Panic recovered",
					"name", name,
					"panic", r,
					"stack", string(buf[:n]))
			}
		}
	}()

	fn()
	return nil
}
