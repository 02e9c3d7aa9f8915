package pluginevents

import (
	"fmt"
	"log/slog"
	"reflect"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// handler is a registered handler descriptor. Immutable once added to a table.
type handler struct {
	id              string
	key             handlerKey
	listener        string
	method          string
	eventType       reflect.Type
	priority        Priority
	ignoreCancelled bool
	logger          *slog.Logger
	invoke          func(Event) error
}

// handlerKey identifies the same callback across RegisterListener calls.
type handlerKey struct {
	owner  any
	method string
}

// pointerKey identifies a listener by its pointer.
type pointerKey struct {
	typ reflect.Type
	ptr uintptr
}

// call runs the handler, converting a returned error or a panic into a
// *HandlerError.
func (h *handler) call(event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &HandlerError{
				EventType:  h.eventType.String(),
				Listener:   h.listener,
				Method:     h.method,
				Priority:   h.priority,
				Cause:      panicCause(r),
				Panicked:   true,
				PanicValue: r,
				Stack:      debug.Stack(),
			}
		}
	}()

	if cause := h.invoke(event); cause != nil {
		return &HandlerError{
			EventType: h.eventType.String(),
			Listener:  h.listener,
			Method:    h.method,
			Priority:  h.priority,
			Cause:     cause,
		}
	}
	return nil
}

func panicCause(r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", r)
}

func (h *handler) info() HandlerInfo {
	return HandlerInfo{
		ID:              h.id,
		Listener:        h.listener,
		Method:          h.method,
		EventType:       h.eventType,
		Priority:        h.priority,
		IgnoreCancelled: h.ignoreCancelled,
		HasLogger:       h.logger != nil,
	}
}

// HandlerInfo is a read-only view of a registered handler.
type HandlerInfo struct {
	ID              string
	Listener        string
	Method          string
	EventType       reflect.Type
	Priority        Priority
	IgnoreCancelled bool
	HasLogger       bool
}

// bucketSet holds one slice of handlers per priority.
type bucketSet [numPriorities][]*handler

// handlerTable is the registry entry for one event type. Readers load the
// current bucketSet without locking; writers replace it under mu.
type handlerTable struct {
	mu      sync.Mutex
	buckets atomic.Pointer[bucketSet]
}

func newHandlerTable() *handlerTable {
	t := &handlerTable{}
	t.buckets.Store(&bucketSet{})
	return t
}

// add inserts h into its priority bucket. Returns false if a handler with
// the same key is already there.
func (t *handlerTable) add(h *handler) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	current := t.buckets.Load()
	bucket := current[h.priority]
	for _, existing := range bucket {
		if existing.key == h.key {
			return false
		}
	}

	grown := make([]*handler, len(bucket), len(bucket)+1)
	copy(grown, bucket)
	grown = append(grown, h)

	next := *current
	next[h.priority] = grown
	t.buckets.Store(&next)
	return true
}

func (t *handlerTable) snapshot() *bucketSet {
	return t.buckets.Load()
}
