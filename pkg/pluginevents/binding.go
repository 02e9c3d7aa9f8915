package pluginevents

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

// Binding describes one handler a listener wants registered.
//
// Build bindings with On, OnFunc or Bind. A Binding literal with only
// Callback set is treated like Bind.
type Binding struct {
	// Name identifies the handler in diagnostics. Defaults to the function name.
	Name string

	// Callback is a func taking one concrete event parameter and returning
	// nothing or an error.
	Callback any

	// Priority selects the bucket. Defaults to Normal.
	Priority Priority

	// IgnoreCancelled skips the handler while the event is cancelled.
	IgnoreCancelled bool

	eventType reflect.Type
	invoke    func(Event) error
	err       error
}

// BindingOption configures a Binding.
type BindingOption func(*Binding)

// WithPriority sets the handler's priority.
func WithPriority(p Priority) BindingOption {
	return func(b *Binding) {
		b.Priority = p
	}
}

// IgnoreCancelled makes the handler skip events that are already cancelled.
func IgnoreCancelled() BindingOption {
	return func(b *Binding) {
		b.IgnoreCancelled = true
	}
}

func newBinding(name string, callback any, opts []BindingOption) Binding {
	b := Binding{Name: name, Callback: callback, Priority: Normal}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// On binds a typed handler that can fail.
func On[E Event](name string, fn func(E) error, opts ...BindingOption) Binding {
	b := newBinding(name, fn, opts)
	if fn != nil {
		b.eventType = reflect.TypeFor[E]()
		b.invoke = func(e Event) error {
			return fn(e.(E))
		}
	}
	return b
}

// OnFunc binds a typed handler with no result.
func OnFunc[E Event](name string, fn func(E), opts ...BindingOption) Binding {
	b := newBinding(name, fn, opts)
	if fn != nil {
		b.eventType = reflect.TypeFor[E]()
		b.invoke = func(e Event) error {
			fn(e.(E))
			return nil
		}
	}
	return b
}

// Bind binds an untyped callback. Its shape is checked by reflection when
// the listener is registered.
func Bind(name string, fn any, opts ...BindingOption) Binding {
	return newBinding(name, fn, opts)
}

// Listener supplies handler bindings. EventHandlers is called once per
// RegisterListener call.
type Listener interface {
	EventHandlers() []Binding
}

// ListenerFunc adapts a function returning a binding table to Listener.
type ListenerFunc func() []Binding

// EventHandlers implements Listener.
func (f ListenerFunc) EventHandlers() []Binding {
	return f()
}

// Named lets a listener choose its display name in diagnostics.
type Named interface {
	ListenerName() string
}

func listenerName(l Listener) string {
	if n, ok := l.(Named); ok {
		return n.ListenerName()
	}
	return reflect.TypeOf(l).String()
}

var errorInterface = reflect.TypeFor[error]()

// compile validates a binding and returns its event type and invoker.
func (b Binding) compile() (reflect.Type, func(Event) error, error) {
	if b.err != nil {
		return nil, nil, b.err
	}
	if !b.Priority.Valid() {
		return nil, nil, fmt.Errorf("%w: %d", ErrInvalidPriority, int8(b.Priority))
	}
	if b.invoke != nil {
		if b.eventType.Kind() == reflect.Interface {
			return nil, nil, fmt.Errorf("%w: %s", ErrAbstractEvent, b.eventType)
		}
		return b.eventType, b.invoke, nil
	}
	if b.Callback == nil {
		return nil, nil, ErrNilCallback
	}

	fn := reflect.ValueOf(b.Callback)
	if fn.Kind() != reflect.Func {
		return nil, nil, fmt.Errorf("%w: %T", ErrNotFunc, b.Callback)
	}
	if fn.IsNil() {
		return nil, nil, ErrNilCallback
	}

	ft := fn.Type()
	switch {
	case ft.NumIn() == 0:
		return nil, nil, fmt.Errorf("%w: too few parameters", ErrArity)
	case ft.NumIn() > 1:
		return nil, nil, fmt.Errorf("%w: too many parameters", ErrArity)
	}

	param := ft.In(0)
	if !param.Implements(eventInterface) {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotEvent, param)
	}
	if param.Kind() == reflect.Interface {
		return nil, nil, fmt.Errorf("%w: %s", ErrAbstractEvent, param)
	}

	switch {
	case ft.NumOut() == 0:
	case ft.NumOut() == 1 && ft.Out(0) == errorInterface:
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrBadResult, ft)
	}

	invoke := func(e Event) error {
		out := fn.Call([]reflect.Value{reflect.ValueOf(e)})
		if len(out) == 1 && !out[0].IsNil() {
			return out[0].Interface().(error)
		}
		return nil
	}
	return param, invoke, nil
}

// params lists the callback's parameter types for diagnostics.
func (b Binding) params() []string {
	if b.eventType != nil {
		return []string{b.eventType.String()}
	}
	if b.Callback == nil {
		return nil
	}
	ft := reflect.TypeOf(b.Callback)
	if ft.Kind() != reflect.Func {
		return nil
	}
	out := make([]string, ft.NumIn())
	for i := range out {
		out[i] = ft.In(i).String()
	}
	return out
}

// name returns the binding's display name.
func (b Binding) name(index int) string {
	if b.Name != "" {
		return b.Name
	}
	if b.Callback != nil {
		fn := reflect.ValueOf(b.Callback)
		if fn.Kind() == reflect.Func && !fn.IsNil() {
			if f := runtime.FuncForPC(fn.Pointer()); f != nil {
				full := f.Name()
				full = strings.TrimSuffix(full, "-fm")
				if i := strings.LastIndex(full, "."); i >= 0 {
					return full[i+1:]
				}
				return full
			}
		}
	}
	return fmt.Sprintf("handler#%d", index)
}
