package pluginevents

import "reflect"

// Event is implemented by every dispatchable event. Embed Base to satisfy it.
type Event interface {
	event()
}

// Base marks a struct as an Event.
type Base struct{}

func (Base) event() {}

// Cancellable is implemented by events whose processing can be cancelled by
// a handler.
type Cancellable interface {
	Event
	IsCancelled() bool
	SetCancelled(cancelled bool)
}

// CancelState holds a cancel flag. Embed it next to Base to make an event
// Cancellable through its pointer type.
type CancelState struct {
	cancelled bool
}

// IsCancelled reports whether the event has been cancelled.
func (c *CancelState) IsCancelled() bool { return c.cancelled }

// SetCancelled sets the cancel flag.
func (c *CancelState) SetCancelled(cancelled bool) { c.cancelled = cancelled }

var eventInterface = reflect.TypeFor[Event]()

// TypeOf returns the registry key for an event instance.
func TypeOf(e Event) reflect.Type {
	return reflect.TypeOf(e)
}

// TypeFor returns the registry key for events of type E.
func TypeFor[E Event]() reflect.Type {
	return reflect.TypeFor[E]()
}

// Name returns a short display name for an event type, without package path
// or pointer marker.
func Name(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}
