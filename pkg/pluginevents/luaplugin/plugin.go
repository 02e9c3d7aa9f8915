package luaplugin

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/randalmurphal/pluginevents/pkg/pluginevents"
)

// ErrPluginClosed is returned by handlers of a closed plugin.
var ErrPluginClosed = errors.New("lua plugin closed")

// TypeTable maps the event names scripts use to Go event types.
type TypeTable map[string]reflect.Type

// Option configures a Plugin.
type Option func(*Plugin)

// WithName sets the plugin name used in diagnostics.
// Default: the script file name, or the name given to LoadString.
func WithName(name string) Option {
	return func(p *Plugin) {
		p.name = name
	}
}

// WithLogger routes the script's print calls to logger.
// Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Plugin) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Plugin is a loaded Lua script. It implements pluginevents.Listener.
type Plugin struct {
	name   string
	types  TypeTable
	logger *slog.Logger

	mu       sync.Mutex
	L        *lua.LState
	handlers []scriptHandler
	closed   bool
}

// scriptHandler is one on(...) declaration.
type scriptHandler struct {
	name            string
	eventName       string
	eventType       reflect.Type
	priority        pluginevents.Priority
	ignoreCancelled bool
	fn              *lua.LFunction
}

// Load reads and runs the script at path.
func Load(path string, types TypeTable, opts ...Option) (*Plugin, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return LoadString(name, string(source), types, opts...)
}

// LoadString runs source as a script named name. Every on(...) call made
// while the script runs becomes a handler.
func LoadString(name, source string, types TypeTable, opts ...Option) (*Plugin, error) {
	p := &Plugin{
		name:   name,
		types:  types,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.L = newState()
	p.installAPI()

	if err := p.do(func() error { return p.L.DoString(source) }); err != nil {
		p.L.Close()
		return nil, fmt.Errorf("load script %s: %w", p.name, err)
	}
	return p, nil
}

// newState creates a Lua state with only the safe libraries opened.
func newState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}

func (p *Plugin) installAPI() {
	p.L.SetGlobal("on", p.L.NewFunction(p.luaOn))
	p.L.SetGlobal("print", p.L.NewFunction(p.luaPrint))
	registerEventType(p.L)
}

// do runs fn with panic recovery.
func (p *Plugin) do(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// on(eventName, [options], handler)
func (p *Plugin) luaOn(L *lua.LState) int {
	eventName := L.CheckString(1)

	var opts *lua.LTable
	var fn *lua.LFunction
	if L.GetTop() >= 3 {
		opts = L.CheckTable(2)
		fn = L.CheckFunction(3)
	} else {
		fn = L.CheckFunction(2)
	}

	eventType, ok := p.types[eventName]
	if !ok {
		L.ArgError(1, fmt.Sprintf("unknown event %q", eventName))
		return 0
	}

	h := scriptHandler{
		name:      fmt.Sprintf("%s#%d", eventName, len(p.handlers)+1),
		eventName: eventName,
		eventType: eventType,
		priority:  pluginevents.Normal,
		fn:        fn,
	}

	if opts != nil {
		if v := opts.RawGetString("priority"); v != lua.LNil {
			priority, err := pluginevents.ParsePriority(v.String())
			if err != nil {
				L.ArgError(2, err.Error())
				return 0
			}
			h.priority = priority
		}
		if v := opts.RawGetString("ignore_cancelled"); v != lua.LNil {
			h.ignoreCancelled = lua.LVAsBool(v)
		}
		if v := opts.RawGetString("name"); v != lua.LNil {
			h.name = v.String()
		}
	}

	p.handlers = append(p.handlers, h)
	return 0
}

// print(...) logs its arguments, space separated, at info level.
func (p *Plugin) luaPrint(L *lua.LState) int {
	parts := make([]string, 0, L.GetTop())
	for i := 1; i <= L.GetTop(); i++ {
		parts = append(parts, L.ToStringMeta(L.Get(i)).String())
	}
	p.logger.Info(strings.Join(parts, " "), slog.String("plugin", p.name))
	return 0
}

// ListenerName implements pluginevents.Named.
func (p *Plugin) ListenerName() string {
	return "lua:" + p.name
}

// EventHandlers implements pluginevents.Listener. Each handler is bound with
// a callback of its event's exact type, so it is validated like any other
// reflected binding.
func (p *Plugin) EventHandlers() []pluginevents.Binding {
	p.mu.Lock()
	handlers := append([]scriptHandler(nil), p.handlers...)
	p.mu.Unlock()

	bindings := make([]pluginevents.Binding, 0, len(handlers))
	for _, h := range handlers {
		opts := []pluginevents.BindingOption{pluginevents.WithPriority(h.priority)}
		if h.ignoreCancelled {
			opts = append(opts, pluginevents.IgnoreCancelled())
		}
		bindings = append(bindings, pluginevents.Bind(h.name, p.callback(h), opts...))
	}
	return bindings
}

var errorType = reflect.TypeFor[error]()

// callback builds a func(E) error for h's event type E.
func (p *Plugin) callback(h scriptHandler) any {
	fnType := reflect.FuncOf([]reflect.Type{h.eventType}, []reflect.Type{errorType}, false)
	return reflect.MakeFunc(fnType, func(args []reflect.Value) []reflect.Value {
		result := reflect.New(errorType).Elem()
		if err := p.call(h, args[0].Interface().(pluginevents.Event)); err != nil {
			result.Set(reflect.ValueOf(err))
		}
		return []reflect.Value{result}
	}).Interface()
}

// call runs h's Lua function with event.
func (p *Plugin) call(h scriptHandler, event pluginevents.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPluginClosed
	}

	ud := newEventUserData(p.L, event)
	err := p.L.CallByParam(lua.P{Fn: h.fn, NRet: 0, Protect: true}, ud)
	if err != nil {
		return fmt.Errorf("lua handler %s: %w", h.name, err)
	}
	return nil
}

// Len returns the number of declared handlers.
func (p *Plugin) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.handlers)
}

// Close releases the Lua state. Handlers called afterwards return
// ErrPluginClosed. Closing twice is a no-op.
func (p *Plugin) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	p.L.Close()
}
