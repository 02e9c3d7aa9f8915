package main

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/randalmurphal/pluginevents/pkg/pluginevents"
	"github.com/randalmurphal/pluginevents/pkg/pluginevents/luaplugin"
)

// PlayerJoin fires when a player connects.
type PlayerJoin struct {
	pluginevents.Base
	Player string `json:"player"`
	Online int    `json:"online"`
}

// PlayerChat fires when a player sends a chat message.
type PlayerChat struct {
	pluginevents.Base
	pluginevents.CancelState
	Player  string `json:"player"`
	Message string `json:"message"`
}

// BlockBreak fires when a player breaks a block.
type BlockBreak struct {
	pluginevents.Base
	pluginevents.CancelState
	Player string `json:"player"`
	Block  string `json:"block"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Z      int    `json:"z"`
}

var catalog = luaplugin.TypeTable{
	"PlayerJoin": reflect.TypeFor[*PlayerJoin](),
	"PlayerChat": reflect.TypeFor[*PlayerChat](),
	"BlockBreak": reflect.TypeFor[*BlockBreak](),
}

func catalogNames() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// newEvent creates a catalog event and sets fields from key=value pairs.
func newEvent(name string, fields []string) (pluginevents.Event, error) {
	t, ok := catalog[name]
	if !ok {
		return nil, fmt.Errorf("unknown event %q (known: %s)", name, strings.Join(catalogNames(), ", "))
	}

	ptr := reflect.New(t.Elem())
	for _, kv := range fields {
		key, value, found := strings.Cut(kv, "=")
		if !found {
			return nil, fmt.Errorf("field %q: expected key=value", kv)
		}
		if err := setField(ptr.Elem(), key, value); err != nil {
			return nil, err
		}
	}
	return ptr.Interface().(pluginevents.Event), nil
}

func setField(v reflect.Value, key, value string) error {
	sf, ok := v.Type().FieldByNameFunc(func(n string) bool { return strings.EqualFold(n, key) })
	if !ok || !sf.IsExported() {
		return fmt.Errorf("event %s has no field %q", v.Type().Name(), key)
	}
	field := v.FieldByIndex(sf.Index)

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("field %s: %w", sf.Name, err)
		}
		field.SetInt(int64(n))
	default:
		return fmt.Errorf("field %s: unsupported kind %s", sf.Name, field.Kind())
	}
	return nil
}
