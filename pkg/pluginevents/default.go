package pluginevents

import (
	"log/slog"
	"sync"
)

var (
	defaultOnce   sync.Once
	defaultEvents *Events
)

// Default returns the process-wide Events instance, creating it on first use.
// Hosts that cannot pass an *Events through their call chains share it.
func Default() *Events {
	defaultOnce.Do(func() {
		defaultEvents = New()
	})
	return defaultEvents
}

// RegisterListener registers listener on the Default instance.
func RegisterListener(listener Listener, logger *slog.Logger) int {
	return Default().RegisterListener(listener, logger)
}

// CallEvent dispatches event on the Default instance.
func CallEvent(event Event) bool {
	return Default().CallEvent(event)
}
