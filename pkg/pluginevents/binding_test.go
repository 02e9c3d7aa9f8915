package pluginevents

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notAnEvent struct{}

func TestBinding_Defaults(t *testing.T) {
	b := OnFunc("h", func(*joinEvent) {})
	assert.Equal(t, "h", b.Name)
	assert.Equal(t, Normal, b.Priority)
	assert.False(t, b.IgnoreCancelled)

	b = Bind("h", func(*joinEvent) {}, WithPriority(Monitor), IgnoreCancelled())
	assert.Equal(t, Monitor, b.Priority)
	assert.True(t, b.IgnoreCancelled)
}

func TestBinding_Compile(t *testing.T) {
	joinType := reflect.TypeFor[*joinEvent]()

	tests := []struct {
		name     string
		binding  Binding
		wantType reflect.Type
		wantErr  error
		errText  string
	}{
		{"typed on", On("h", func(*joinEvent) error { return nil }), joinType, nil, ""},
		{"typed on func", OnFunc("h", func(*joinEvent) {}), joinType, nil, ""},
		{"typed value event", OnFunc("h", func(joinEvent) {}), reflect.TypeFor[joinEvent](), nil, ""},
		{"typed interface event", OnFunc("h", func(Event) {}), nil, ErrAbstractEvent, ""},
		{"typed nil", OnFunc[*joinEvent]("h", nil), nil, ErrNilCallback, ""},
		{"bind no result", Bind("h", func(*chatEvent) {}), reflect.TypeFor[*chatEvent](), nil, ""},
		{"bind error result", Bind("h", func(*chatEvent) error { return nil }), reflect.TypeFor[*chatEvent](), nil, ""},
		{"bind literal", Binding{Callback: func(*joinEvent) {}}, joinType, nil, ""},
		{"nil callback", Bind("h", nil), nil, ErrNilCallback, ""},
		{"typed nil func", Bind("h", (func(*joinEvent))(nil)), nil, ErrNilCallback, ""},
		{"not a func", Bind("h", 42), nil, ErrNotFunc, ""},
		{"no params", Bind("h", func() {}), nil, ErrArity, "too few"},
		{"two params", Bind("h", func(*joinEvent, int) {}), nil, ErrArity, "too many"},
		{"not an event", Bind("h", func(string) {}), nil, ErrNotEvent, ""},
		{"struct not an event", Bind("h", func(*notAnEvent) {}), nil, ErrNotEvent, ""},
		{"interface param", Bind("h", func(Cancellable) {}), nil, ErrAbstractEvent, ""},
		{"bad result", Bind("h", func(*joinEvent) int { return 0 }), nil, ErrBadResult, ""},
		{"two results", Bind("h", func(*joinEvent) (int, error) { return 0, nil }), nil, ErrBadResult, ""},
		{"bad priority", Bind("h", func(*joinEvent) {}, WithPriority(Priority(8))), nil, ErrInvalidPriority, ""},
		{"negative priority", OnFunc("h", func(*joinEvent) {}, WithPriority(Priority(-1))), nil, ErrInvalidPriority, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eventType, invoke, err := tt.binding.compile()
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				if tt.errText != "" {
					assert.Contains(t, err.Error(), tt.errText)
				}
				assert.Nil(t, invoke)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, eventType)
			assert.NotNil(t, invoke)
		})
	}
}

func TestBinding_ReflectedInvoke(t *testing.T) {
	boom := errors.New("boom")
	var got *chatEvent

	_, invoke, err := Bind("h", func(e *chatEvent) error {
		got = e
		return boom
	}).compile()
	require.NoError(t, err)

	e := &chatEvent{Message: "hi"}
	assert.ErrorIs(t, invoke(e), boom)
	assert.Same(t, e, got)

	_, invoke, err = Bind("h", func(e *chatEvent) error { return nil }).compile()
	require.NoError(t, err)
	assert.NoError(t, invoke(e))
}

func TestBinding_Params(t *testing.T) {
	assert.Equal(t, []string{"*pluginevents.joinEvent"}, OnFunc("h", func(*joinEvent) {}).params())
	assert.Equal(t, []string{"*pluginevents.joinEvent", "int"}, Bind("h", func(*joinEvent, int) {}).params())
	assert.Empty(t, Bind("h", func() {}).params())
	assert.Nil(t, Bind("h", nil).params())
	assert.Nil(t, Bind("h", "x").params())
}

func namedHandler(*joinEvent) {}

func TestBinding_Name(t *testing.T) {
	assert.Equal(t, "explicit", Bind("explicit", namedHandler).name(0))
	assert.Equal(t, "namedHandler", Bind("", namedHandler).name(0))
	assert.Equal(t, "handler#3", Bind("", nil).name(3))
}

type guard struct {
	calls callTrace
}

func (g *guard) OnBreak(e *breakEvent)     { g.calls.add("OnBreak") }
func (g *guard) OnChat(e *chatEvent) error { g.calls.add("OnChat"); return nil }
func (g *guard) Helper(a, b int) int       { return a + b }

func TestMethods(t *testing.T) {
	g := &guard{}
	l := Methods(g, MethodTable{
		"OnBreak": {Priority: High, IgnoreCancelled: true},
		"OnChat":  {},
		"Helper":  {},
		"Missing": {},
	})

	bindings := l.EventHandlers()
	require.Len(t, bindings, 4)

	// Sorted by method name.
	names := []string{bindings[0].Name, bindings[1].Name, bindings[2].Name, bindings[3].Name}
	assert.Equal(t, []string{"Helper", "Missing", "OnBreak", "OnChat"}, names)

	_, _, err := bindings[0].compile()
	assert.ErrorIs(t, err, ErrArity)

	_, _, err = bindings[1].compile()
	assert.ErrorIs(t, err, ErrNoSuchMethod)

	eventType, invoke, err := bindings[2].compile()
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeFor[*breakEvent](), eventType)
	assert.Equal(t, High, bindings[2].Priority)
	assert.True(t, bindings[2].IgnoreCancelled)
	require.NoError(t, invoke(&breakEvent{}))
	assert.Equal(t, []string{"OnBreak"}, g.calls.list())

	assert.Equal(t, "*pluginevents.guard", listenerName(l))
}

func TestMethods_NilTarget(t *testing.T) {
	bindings := Methods(nil, MethodTable{"OnBreak": {}}).EventHandlers()
	require.Len(t, bindings, 1)
	_, _, err := bindings[0].compile()
	assert.ErrorIs(t, err, ErrNoSuchMethod)
}

func TestName(t *testing.T) {
	assert.Equal(t, "chatEvent", Name(reflect.TypeFor[*chatEvent]()))
	assert.Equal(t, "joinEvent", Name(reflect.TypeFor[joinEvent]()))
	assert.Equal(t, "<nil>", Name(nil))
	assert.Equal(t, reflect.TypeFor[*chatEvent](), TypeOf(&chatEvent{}))
	assert.Equal(t, reflect.TypeFor[*chatEvent](), TypeFor[*chatEvent]())
}

func TestCancelState(t *testing.T) {
	var c Cancellable = &chatEvent{}
	assert.False(t, c.IsCancelled())
	c.SetCancelled(true)
	assert.True(t, c.IsCancelled())
	c.SetCancelled(false)
	assert.False(t, c.IsCancelled())

	var e Event = &joinEvent{}
	_, ok := e.(Cancellable)
	assert.False(t, ok)

	e = chatEvent{}
	_, ok = e.(Cancellable)
	assert.False(t, ok, "value type has no pointer methods")
}
