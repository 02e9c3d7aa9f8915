package pluginevents

import (
	"fmt"
	"os"
	"strings"

	"github.com/randalmurphal/pluginevents/pkg/pluginevents/config"
	"github.com/randalmurphal/pluginevents/pkg/pluginevents/faultlog"
	"github.com/randalmurphal/pluginevents/pkg/pluginevents/observability"
)

// FromSettings builds an Events instance from loaded settings. The logger
// writes to stderr; pass WithLogger in extra to replace it. Options in extra
// are applied last.
//
// The returned close function releases the fault store, if one was opened.
func FromSettings(s config.Settings, extra ...Option) (*Events, func() error, error) {
	if err := s.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid settings: %w", err)
	}

	level, err := observability.ParseLevel(s.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	policy, err := ParseUnregisteredPolicy(s.Dispatch.Unregistered)
	if err != nil {
		return nil, nil, err
	}

	opts := []Option{
		WithLogger(observability.NewLogger(os.Stderr, level, s.Log.Format)),
		WithUnregisteredPolicy(policy),
	}
	if s.Metrics.Enabled {
		opts = append(opts, WithMetrics(observability.NewMetricsRecorder()))
	}
	if s.Tracing.Enabled {
		opts = append(opts, WithSpanManager(observability.NewSpanManager()))
	}

	closeFn := func() error { return nil }
	store, err := OpenFaultStore(s.Faults)
	if err != nil {
		return nil, nil, err
	}
	if store != nil {
		opts = append(opts, WithFaultRecorder(store))
		closeFn = store.Close
	}

	opts = append(opts, extra...)
	return New(opts...), closeFn, nil
}

// OpenFaultStore opens the fault journal described by f. It returns nil for
// the "none" store.
func OpenFaultStore(f config.FaultSettings) (faultlog.Store, error) {
	switch strings.ToLower(f.Store) {
	case "", config.FaultStoreNone:
		return nil, nil
	case config.FaultStoreMemory:
		return faultlog.NewMemoryStore(f.MaxRecords), nil
	case config.FaultStoreSQLite:
		store, err := faultlog.NewSQLiteStore(f.Path)
		if err != nil {
			return nil, fmt.Errorf("open fault store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown fault store %q", f.Store)
	}
}
