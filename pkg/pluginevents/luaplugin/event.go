package luaplugin

import (
	"math"
	"reflect"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/randalmurphal/pluginevents/pkg/pluginevents"
)

const eventTypeName = "pluginevents.event"

// registerEventType installs the metatable for event userdata.
func registerEventType(L *lua.LState) {
	mt := L.NewTypeMetatable(eventTypeName)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"name":          eventName,
		"is_cancelled":  eventIsCancelled,
		"set_cancelled": eventSetCancelled,
		"get":           eventGet,
		"set":           eventSet,
	}))
}

func newEventUserData(L *lua.LState, event pluginevents.Event) *lua.LUserData {
	ud := L.NewUserData()
	ud.Value = event
	L.SetMetatable(ud, L.GetTypeMetatable(eventTypeName))
	return ud
}

func checkEvent(L *lua.LState) pluginevents.Event {
	ud := L.CheckUserData(1)
	if e, ok := ud.Value.(pluginevents.Event); ok {
		return e
	}
	L.ArgError(1, "event expected")
	return nil
}

// e:name()
func eventName(L *lua.LState) int {
	e := checkEvent(L)
	L.Push(lua.LString(pluginevents.Name(pluginevents.TypeOf(e))))
	return 1
}

// e:is_cancelled()
func eventIsCancelled(L *lua.LState) int {
	e := checkEvent(L)
	c, ok := e.(pluginevents.Cancellable)
	L.Push(lua.LBool(ok && c.IsCancelled()))
	return 1
}

// e:set_cancelled(bool)
func eventSetCancelled(L *lua.LState) int {
	e := checkEvent(L)
	cancelled := L.CheckBool(2)
	c, ok := e.(pluginevents.Cancellable)
	if !ok {
		L.RaiseError("event %s is not cancellable", pluginevents.Name(pluginevents.TypeOf(e)))
		return 0
	}
	c.SetCancelled(cancelled)
	return 0
}

// e:get(field) returns nil for unknown, unexported or unsupported fields.
func eventGet(L *lua.LState) int {
	e := checkEvent(L)
	field, ok := lookupField(e, L.CheckString(2))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(toLua(field))
	return 1
}

// e:set(field, value)
func eventSet(L *lua.LState) int {
	e := checkEvent(L)
	name := L.CheckString(2)
	value := L.CheckAny(3)

	field, ok := lookupField(e, name)
	if !ok {
		L.RaiseError("event has no field %q", name)
		return 0
	}
	if !field.CanSet() {
		L.RaiseError("field %q is read-only", name)
		return 0
	}
	if !fromLua(value, field) {
		L.RaiseError("cannot assign %s to field %q of type %s", value.Type(), name, field.Type())
	}
	return 0
}

// lookupField finds an exported field by name, ignoring case.
func lookupField(e pluginevents.Event, name string) (reflect.Value, bool) {
	v := reflect.ValueOf(e)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}

	sf, ok := v.Type().FieldByNameFunc(func(n string) bool {
		return strings.EqualFold(n, name)
	})
	if !ok || !sf.IsExported() {
		return reflect.Value{}, false
	}
	return v.FieldByIndex(sf.Index), true
}

func toLua(v reflect.Value) lua.LValue {
	switch v.Kind() {
	case reflect.String:
		return lua.LString(v.String())
	case reflect.Bool:
		return lua.LBool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := lv.(lua.LNumber)
		f := float64(n)
		if !ok || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return false
		}
		if field.OverflowInt(int64(f)) {
			return false
		}
		field.SetInt(int64(f))
		return true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, ok := lv.(lua.LNumber)
		f := float64(n)
		if !ok || f != math.Trunc(f) || f < 0 || f >= math.MaxUint64 {
			return false
		}
		if field.OverflowUint(uint64(f)) {
			return false
		}
		field.SetUint(uint64(f))
		return true
	case reflect.Float32, reflect.Float64:
		n, ok := lv.(lua.LNumber)
		if !ok || field.OverflowFloat(float64(n)) {
			return false
		}
		field.SetFloat(float64(n))
		return true
	default:
		return false
	}
}
