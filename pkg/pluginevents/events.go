package pluginevents

import (
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/randalmurphal/pluginevents/pkg/pluginevents/faultlog"
	"github.com/randalmurphal/pluginevents/pkg/pluginevents/observability"
	"github.com/randalmurphal/pluginevents/pkg/pluginevents/registry"
)

// UnregisteredPolicy controls what CallEvent does for an event type nobody
// registered a handler for.
type UnregisteredPolicy int

const (
	// UnregisteredIgnore returns false silently.
	UnregisteredIgnore UnregisteredPolicy = iota
	// UnregisteredWarn returns false and logs a warning.
	UnregisteredWarn
)

// String returns "ignore" or "warn".
func (p UnregisteredPolicy) String() string {
	if p == UnregisteredWarn {
		return "warn"
	}
	return "ignore"
}

// ParseUnregisteredPolicy parses "ignore" (or "") and "warn".
func ParseUnregisteredPolicy(s string) (UnregisteredPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ignore":
		return UnregisteredIgnore, nil
	case "warn":
		return UnregisteredWarn, nil
	default:
		return UnregisteredIgnore, fmt.Errorf("unknown unregistered-event policy %q", s)
	}
}

// Events is a handler registry and dispatcher. It is safe for concurrent
// use: registration and dispatch may interleave freely, and dispatch of one
// event type never waits on registration for another.
type Events struct {
	tables       *registry.Registry[reflect.Type, *handlerTable]
	logger       *slog.Logger
	unregistered UnregisteredPolicy
	metrics      observability.MetricsRecorder
	spans        observability.SpanManager
	faults       faultlog.Recorder
	handlers     atomic.Int64
}

// Option configures an Events instance.
type Option func(*Events)

// WithLogger sets the process-default logger. It receives registration
// diagnostics when RegisterListener is given no logger, unregistered-event
// warnings, and faults of handlers with no bound logger.
// Default: slog.Default() at the time of use.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Events) {
		e.logger = logger
	}
}

// WithUnregisteredPolicy sets the unregistered-event policy.
// Default: UnregisteredIgnore.
func WithUnregisteredPolicy(p UnregisteredPolicy) Option {
	return func(e *Events) {
		e.unregistered = p
	}
}

// WithMetrics sets the metrics recorder. Default: no metrics.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(e *Events) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithSpanManager sets the span manager. Default: no tracing.
func WithSpanManager(s observability.SpanManager) Option {
	return func(e *Events) {
		if s != nil {
			e.spans = s
		}
	}
}

// WithFaultRecorder journals every handler fault to r.
func WithFaultRecorder(r faultlog.Recorder) Option {
	return func(e *Events) {
		e.faults = r
	}
}

// New creates an empty Events instance.
func New(opts ...Option) *Events {
	e := &Events{
		tables:  registry.New[reflect.Type, *handlerTable](),
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Logger returns the instance default logger: the one set with WithLogger,
// or slog.Default().
func (e *Events) Logger() *slog.Logger {
	return e.defaultLogger()
}

func (e *Events) defaultLogger() *slog.Logger {
	if e.logger != nil {
		return e.logger
	}
	return slog.Default()
}

// FaultRecorder returns the recorder set with WithFaultRecorder, or nil.
func (e *Events) FaultRecorder() faultlog.Recorder {
	return e.faults
}

// RegisterListener registers every valid handler binding of listener and
// returns how many were added.
//
// Each binding is validated on its own. Invalid bindings are skipped with a
// warning on logger naming the listener, the method and the violation; the
// other bindings are still registered. logger is bound to every registered
// handler and receives its dispatch diagnostics. A nil logger falls back to
// the default logger, and the missing binding is reported at dispatch.
//
// Registering the same pointer listener again does not duplicate its
// handlers. Handlers are keyed by listener identity and binding name, so two
// bindings of one listener with the same name and priority are merged into
// the first. Pointers to zero-size values share addresses and get no
// identity: each registration of one is treated as a new listener.
// RegisterListener never panics because of listener code.
func (e *Events) RegisterListener(listener Listener, logger *slog.Logger) int {
	regLog := logger
	if regLog == nil {
		regLog = e.defaultLogger()
	}

	if listener == nil {
		regLog.Warn("cannot register nil listener")
		return 0
	}

	name, bindings, err := describe(listener)
	if err != nil {
		regLog.Warn("unable to read event handlers",
			slog.String("listener", name),
			slog.String("error", err.Error()),
		)
		return 0
	}

	owner := ownerKey(listener)
	registered, rejected := 0, 0
	for i, b := range bindings {
		method := b.name(i)

		eventType, invoke, err := b.compile()
		if err != nil {
			bindErr := &BindingError{Listener: name, Method: method, Err: err}
			observability.LogBindingRejected(regLog, name, method, bindErr, b.params())
			rejected++
			continue
		}

		h := &handler{
			id:              uuid.NewString(),
			key:             handlerKey{owner: owner, method: method},
			listener:        name,
			method:          method,
			eventType:       eventType,
			priority:        b.Priority,
			ignoreCancelled: b.IgnoreCancelled,
			logger:          logger,
			invoke:          invoke,
		}

		table := e.tables.GetOrCreate(eventType, newHandlerTable)
		if !table.add(h) {
			observability.LogDuplicateHandler(regLog, name, method, eventType.String())
			continue
		}
		e.handlers.Add(1)
		registered++
	}

	observability.LogListenerRegistered(regLog, name, registered, rejected)
	return registered
}

// describe reads a listener's name and bindings, recovering from panics in
// listener code.
func describe(listener Listener) (name string, bindings []Binding, err error) {
	name = reflect.TypeOf(listener).String()
	defer func() {
		if r := recover(); r != nil {
			err = panicCause(r)
		}
	}()
	name = listenerName(listener)
	return name, listener.EventHandlers(), nil
}

// ownerKey returns the identity used to deduplicate a listener's handlers.
// Pointer listeners keep their identity across calls; anything else is
// unique per call. Zero-size pointees may all share one address.
func ownerKey(listener Listener) any {
	target := any(listener)
	if m, ok := listener.(*methodListener); ok {
		target = m.target
	}
	v := reflect.ValueOf(target)
	if v.Kind() == reflect.Pointer && !v.IsNil() && v.Type().Elem().Size() > 0 {
		return pointerKey{typ: v.Type(), ptr: v.Pointer()}
	}
	return uuid.NewString()
}

// Handlers returns the handlers registered for eventType in dispatch order.
func (e *Events) Handlers(eventType reflect.Type) []HandlerInfo {
	table, ok := e.tables.Get(eventType)
	if !ok {
		return nil
	}
	var out []HandlerInfo
	for _, bucket := range table.snapshot() {
		for _, h := range bucket {
			out = append(out, h.info())
		}
	}
	return out
}

// EventTypes returns every event type with a registry entry, sorted by name.
func (e *Events) EventTypes() []reflect.Type {
	types := e.tables.Keys()
	sort.Slice(types, func(i, j int) bool {
		return types[i].String() < types[j].String()
	})
	return types
}

// HandlerCount returns the total number of registered handlers.
func (e *Events) HandlerCount() int {
	return int(e.handlers.Load())
}
