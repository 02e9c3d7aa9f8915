package pluginevents

import (
	"fmt"
	"strings"
)

// Priority orders handler buckets. Lower priorities run first; Monitor runs
// last and ignores cancellation.
type Priority int8

const (
	Lowest Priority = iota
	Lower
	Low
	Normal
	High
	Higher
	Highest
	// Monitor is for handlers that observe the outcome of an event.
	// They should not modify it.
	Monitor
)

const numPriorities = int(Monitor) + 1

var priorityNames = [numPriorities]string{
	"LOWEST", "LOWER", "LOW", "NORMAL", "HIGH", "HIGHER", "HIGHEST", "MONITOR",
}

// String returns the upper-case priority name.
func (p Priority) String() string {
	if !p.Valid() {
		return fmt.Sprintf("Priority(%d)", int8(p))
	}
	return priorityNames[p]
}

// Valid reports whether p is one of the defined levels.
func (p Priority) Valid() bool {
	return p >= Lowest && p <= Monitor
}

// MarshalText implements encoding.TextMarshaler.
func (p Priority) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPriority, int8(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Priority) UnmarshalText(text []byte) error {
	parsed, err := ParsePriority(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePriority parses a priority name, ignoring case.
func ParsePriority(s string) (Priority, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range priorityNames {
		if n == name {
			return Priority(i), nil
		}
	}
	return Normal, fmt.Errorf("%w: %q", ErrInvalidPriority, s)
}

// Priorities returns every level in dispatch order.
func Priorities() []Priority {
	out := make([]Priority, numPriorities)
	for i := range out {
		out[i] = Priority(i)
	}
	return out
}
