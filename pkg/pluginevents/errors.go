package pluginevents

import (
	"errors"
	"fmt"
)

// Sentinel errors for handler binding validation.
var (
	// ErrNilCallback indicates a binding without a callback.
	ErrNilCallback = errors.New("callback is nil")

	// ErrNotFunc indicates the callback is not a function.
	ErrNotFunc = errors.New("callback is not a function")

	// ErrArity indicates the callback does not take exactly one parameter.
	ErrArity = errors.New("handler must take exactly one parameter")

	// ErrNotEvent indicates the parameter type does not implement Event.
	ErrNotEvent = errors.New("parameter does not implement Event")

	// ErrAbstractEvent indicates the parameter is an interface type. Dispatch
	// matches concrete types only, so such a handler could never run.
	ErrAbstractEvent = errors.New("parameter must be a concrete event type")

	// ErrBadResult indicates the callback returns something other than
	// nothing or a single error.
	ErrBadResult = errors.New("handler must return nothing or error")

	// ErrInvalidPriority indicates a priority outside Lowest..Monitor.
	ErrInvalidPriority = errors.New("invalid priority")

	// ErrNoSuchMethod indicates a method table entry with no matching method.
	ErrNoSuchMethod = errors.New("no such method")
)

// BindingError describes a handler binding rejected during registration.
type BindingError struct {
	// Listener is the display name of the listener.
	Listener string
	// Method is the binding name.
	Method string
	// Err is one of the validation sentinels.
	Err error
	// Detail is extra context, such as the offending type.
	Detail string
}

// Error implements the error interface.
func (e *BindingError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("listener %s: method %s: %v", e.Listener, e.Method, e.Err)
	}
	return fmt.Sprintf("listener %s: method %s: %v: %s", e.Listener, e.Method, e.Err, e.Detail)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *BindingError) Unwrap() error {
	return e.Err
}

// HandlerError describes a handler that returned an error or panicked.
type HandlerError struct {
	EventType string
	Listener  string
	Method    string
	Priority  Priority
	// Cause is the returned error, or an error wrapping the panic value.
	Cause error
	// Panicked is true when the handler panicked.
	Panicked   bool
	PanicValue any
	// Stack is the goroutine stack at the point of panic.
	Stack []byte
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	if e.Panicked {
		return fmt.Sprintf("handler %s.%s panicked on %s: %v", e.Listener, e.Method, e.EventType, e.PanicValue)
	}
	return fmt.Sprintf("handler %s.%s failed on %s: %v", e.Listener, e.Method, e.EventType, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *HandlerError) Unwrap() error {
	return e.Cause
}
