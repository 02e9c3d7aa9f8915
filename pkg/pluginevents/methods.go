package pluginevents

import (
	"fmt"
	"reflect"
	"sort"
)

// MethodSpec is the handler metadata for one method.
type MethodSpec struct {
	Priority        Priority
	IgnoreCancelled bool
}

// MethodTable maps method names on a target to their handler metadata.
type MethodTable map[string]MethodSpec

// Methods returns a Listener whose handlers are the named methods of target.
// Each method is looked up by reflection when the listener is registered and
// validated like a Bind callback. Methods with pointer receivers need a
// pointer target.
//
//	events.RegisterListener(pluginevents.Methods(guard, pluginevents.MethodTable{
//	    "OnBreak": {Priority: pluginevents.High, IgnoreCancelled: true},
//	}), logger)
func Methods(target any, table MethodTable) Listener {
	return &methodListener{target: target, table: table}
}

type methodListener struct {
	target any
	table  MethodTable
}

func (m *methodListener) ListenerName() string {
	if n, ok := m.target.(Named); ok {
		return n.ListenerName()
	}
	return fmt.Sprintf("%T", m.target)
}

func (m *methodListener) EventHandlers() []Binding {
	names := make([]string, 0, len(m.table))
	for name := range m.table {
		names = append(names, name)
	}
	sort.Strings(names)

	target := reflect.ValueOf(m.target)
	bindings := make([]Binding, 0, len(names))
	for _, name := range names {
		spec := m.table[name]
		b := Binding{Name: name, Priority: spec.Priority, IgnoreCancelled: spec.IgnoreCancelled}

		var method reflect.Value
		if target.IsValid() {
			method = target.MethodByName(name)
		}
		if !method.IsValid() {
			b.err = fmt.Errorf("%w: %s", ErrNoSuchMethod, name)
		} else {
			b.Callback = method.Interface()
		}
		bindings = append(bindings, b)
	}
	return bindings
}
