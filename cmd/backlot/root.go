// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ManuGH/backlot/internal/config"
	xglog "github.com/ManuGH/backlot/internal/log"
	"github.com/ManuGH/backlot/internal/version"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	LogLevel   string

	// lookup replaces os.LookupEnv in tests.
	lookup config.LookupFunc
}

// NewRootCommand creates the backlot command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(os.LookupEnv)
}

func newRootCommand(lookup config.LookupFunc) *cobra.Command {
	opts := &RootOptions{lookup: lookup}

	cmd := &cobra.Command{
		Use:           "backlot",
		Short:         "Signed client and resolution service for the Backlot catalog API",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to YAML config (default $"+config.EnvConfigFile+")")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level override (debug|info|warn|error)")

	cmd.AddCommand(NewListCommand())
	cmd.AddCommand(NewReqCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

// loadConfig resolves the config path and loads it, applying overrides last.
func (o *RootOptions) loadConfig(overrides ...func(*config.Config)) (config.Config, error) {
	loader, _ := o.newLoader(overrides...)
	return o.load(loader)
}

// newLoader returns the loader for the resolved config path and that path.
func (o *RootOptions) newLoader(overrides ...func(*config.Config)) (*config.Loader, string) {
	path := o.ConfigPath
	if path == "" {
		path, _ = o.lookup(config.EnvConfigFile)
	}
	loader := config.NewLoader(path).WithLookup(o.lookup)
	for _, fn := range overrides {
		loader = loader.WithOverride(fn)
	}
	if o.LogLevel != "" {
		level := o.LogLevel
		loader = loader.WithOverride(func(c *config.Config) { c.LogLevel = level })
	}
	return loader, path
}

func (o *RootOptions) load(loader *config.Loader) (config.Config, error) {
	cfg, err := loader.Load()
	if err != nil {
		return cfg, err
	}
	xglog.Configure(xglog.Config{Level: cfg.LogLevel, Service: "backlot", Version: version.Version})
	return cfg, nil
}
