package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/randalmurphal/pluginevents/pkg/pluginevents/observability"
)

// Fault journal backends.
const (
	FaultStoreNone   = "none"
	FaultStoreMemory = "memory"
	FaultStoreSQLite = "sqlite"
)

// Settings is the full pluginevents configuration.
type Settings struct {
	Log      LogSettings      `yaml:"log" json:"log" mapstructure:"log"`
	Dispatch DispatchSettings `yaml:"dispatch" json:"dispatch" mapstructure:"dispatch"`
	Metrics  ToggleSettings   `yaml:"metrics" json:"metrics" mapstructure:"metrics"`
	Tracing  ToggleSettings   `yaml:"tracing" json:"tracing" mapstructure:"tracing"`
	Faults   FaultSettings    `yaml:"faults" json:"faults" mapstructure:"faults"`
	Lua      LuaSettings      `yaml:"lua" json:"lua" mapstructure:"lua"`
}

// LogSettings configures the process-default logger.
type LogSettings struct {
	// Level is debug, info, warn or error. The java.util.logging names
	// fine, config and severe are also accepted.
	Level string `yaml:"level" json:"level" mapstructure:"level"`

	// Format is text or json.
	Format string `yaml:"format" json:"format" mapstructure:"format"`
}

// DispatchSettings configures dispatch policy.
type DispatchSettings struct {
	// Unregistered is ignore or warn.
	Unregistered string `yaml:"unregistered" json:"unregistered" mapstructure:"unregistered"`
}

// ToggleSettings enables or disables an optional feature.
type ToggleSettings struct {
	Enabled bool `yaml:"enabled" json:"enabled" mapstructure:"enabled"`
}

// FaultSettings configures the handler fault journal.
type FaultSettings struct {
	// Store is none, memory or sqlite.
	Store string `yaml:"store" json:"store" mapstructure:"store"`

	// Path is the SQLite database file. Required for the sqlite store.
	Path string `yaml:"path" json:"path" mapstructure:"path"`

	// MaxRecords bounds the memory store. Zero uses the store default.
	MaxRecords int `yaml:"max_records" json:"max_records" mapstructure:"max_records"`
}

// LuaSettings lists Lua listener scripts to load.
type LuaSettings struct {
	Scripts []string `yaml:"scripts" json:"scripts" mapstructure:"scripts"`
}

// Default returns the settings used when nothing is configured.
func Default() Settings {
	return Settings{
		Log:      LogSettings{Level: "info", Format: "text"},
		Dispatch: DispatchSettings{Unregistered: "ignore"},
		Faults:   FaultSettings{Store: FaultStoreNone},
	}
}

// Validate checks the settings for unknown enum values and missing paths.
// All problems are reported together.
func (s Settings) Validate() error {
	var errs []error

	if _, err := observability.ParseLevel(s.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	switch strings.ToLower(s.Log.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", s.Log.Format))
	}

	switch strings.ToLower(s.Dispatch.Unregistered) {
	case "", "ignore", "warn":
	default:
		errs = append(errs, fmt.Errorf("dispatch.unregistered: unknown policy %q", s.Dispatch.Unregistered))
	}

	switch strings.ToLower(s.Faults.Store) {
	case "", FaultStoreNone, FaultStoreMemory:
	case FaultStoreSQLite:
		if s.Faults.Path == "" {
			errs = append(errs, errors.New("faults.path: required for the sqlite store"))
		}
	default:
		errs = append(errs, fmt.Errorf("faults.store: unknown store %q", s.Faults.Store))
	}

	if s.Faults.MaxRecords < 0 {
		errs = append(errs, errors.New("faults.max_records: must not be negative"))
	}

	for i, path := range s.Lua.Scripts {
		if strings.TrimSpace(path) == "" {
			errs = append(errs, fmt.Errorf("lua.scripts[%d]: empty path", i))
		}
	}

	return errors.Join(errs...)
}
