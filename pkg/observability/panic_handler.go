package observability

import (
	"fmt"
	"runtime/debug"

	"github.com/sirupsen/logrus"
)

// RecoverPanic recovers from a panic and logs it with structured logging
//
// Usage in defer statements:
//
//	func riskyOperation() {
//	    defer observability.RecoverPanic(logger, "risky operation")
//	    // ... code that might panic
//	}
//
// After logging, the panic is NOT re-raised - the function returns normally.
func RecoverPanic(logger *logrus.Logger, context string) {
	if r := recover(); r != nil {
		logger.WithFields(logrus.Fields{
			"panic":   r,
			"stack":   string(debug.Stack()),
			"context": context,
		}).Error("PANIC recovered")
	}
}

// PanicError is a recovered panic converted to an error
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// MustRecover converts a recovered value to an error
//
// Usage when you want to convert panics to errors:
//
//	func parseData() (result Data, err error) {
//	    defer func() {
//	        if rerr := observability.MustRecover(recover()); rerr != nil {
//	            err = rerr
//	        }
//	    }()
//	    // ... code that might panic
//	    return data, nil
//	}
//
// If no panic occurred (r is nil), it returns nil. An error value passed to
// panic is kept as the PanicError value so errors.As still reaches it through
// Unwrap.
func MustRecover(r any) error {
	if r == nil {
		return nil
	}
	return &PanicError{Value: r, Stack: debug.Stack()}
}

// Unwrap returns the panic value when it is an error
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
