// Command pluginevents loads Lua listeners and fires demo events through
// a pluginevents dispatcher.
//
//	pluginevents handlers --script guard.lua
//	pluginevents fire PlayerChat --script guard.lua --field Message="buy spam"
//	pluginevents faults --config pluginevents.yaml
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/randalmurphal/pluginevents/pkg/pluginevents"
	"github.com/randalmurphal/pluginevents/pkg/pluginevents/config"
	"github.com/randalmurphal/pluginevents/pkg/pluginevents/luaplugin"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app is the state shared by subcommands.
type app struct {
	configPath string
	scripts    []string
	logLevel   string

	settings config.Settings
	events   *pluginevents.Events
	plugins  []*luaplugin.Plugin
	closeFn  func() error
	shutdown func(context.Context) error
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "pluginevents",
		Short:         "Inspect and fire events through a priority event dispatcher",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (yaml or json)")
	flags.StringSliceVar(&a.scripts, "script", nil, "Lua listener script to load (repeatable)")
	flags.StringVar(&a.logLevel, "log-level", "", "override log.level")

	root.AddCommand(newHandlersCmd(a), newFireCmd(a), newFaultsCmd(a))
	return root
}

// loadSettings merges defaults, the config file and PLUGINEVENTS_* env vars.
func (a *app) loadSettings() error {
	v := viper.New()

	def := config.Default()
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)
	v.SetDefault("dispatch.unregistered", def.Dispatch.Unregistered)
	v.SetDefault("metrics.enabled", def.Metrics.Enabled)
	v.SetDefault("tracing.enabled", def.Tracing.Enabled)
	v.SetDefault("faults.store", def.Faults.Store)
	v.SetDefault("faults.path", def.Faults.Path)
	v.SetDefault("faults.max_records", def.Faults.MaxRecords)
	v.SetDefault("lua.scripts", []string{})

	v.SetEnvPrefix("PLUGINEVENTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if a.configPath != "" {
		v.SetConfigFile(a.configPath)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	var s config.Settings
	if err := v.Unmarshal(&s); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	if a.logLevel != "" {
		s.Log.Level = a.logLevel
	}
	if err := s.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	a.settings = s
	return nil
}

// setup builds the dispatcher and registers every configured script.
func (a *app) setup() error {
	if err := a.loadSettings(); err != nil {
		return err
	}

	shutdown, err := initTelemetry(a.settings, os.Stderr)
	if err != nil {
		return err
	}
	a.shutdown = shutdown

	events, closeFn, err := pluginevents.FromSettings(a.settings)
	if err != nil {
		a.teardown()
		return err
	}
	a.events = events
	a.closeFn = closeFn

	scripts := append(append([]string{}, a.settings.Lua.Scripts...), a.scripts...)
	for _, path := range scripts {
		logger := a.events.Logger().With(slog.String("script", path))
		p, err := luaplugin.Load(path, catalog, luaplugin.WithLogger(logger))
		if err != nil {
			a.teardown()
			return err
		}
		a.plugins = append(a.plugins, p)
		a.events.RegisterListener(p, logger)
	}
	return nil
}

func (a *app) teardown() {
	for _, p := range a.plugins {
		p.Close()
	}
	a.plugins = nil
	if a.closeFn != nil {
		_ = a.closeFn()
		a.closeFn = nil
	}
	if a.shutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.shutdown(ctx)
		a.shutdown = nil
	}
}
