// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ManuGH/backlot/internal/config"
	xglog "github.com/ManuGH/backlot/internal/log"
	"github.com/ManuGH/backlot/internal/telemetry"
	"github.com/ManuGH/backlot/internal/version"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Listen    string
	RateLimit int
	Tracing   bool
	Watch     bool
}

// NewServeCommand runs the HTTP entry point until interrupted.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the resolution pipeline over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loader, path := opts.newLoader(func(c *config.Config) {
				if opts.Listen != "" {
					c.Listen = opts.Listen
				}
			})
			cfg, err := opts.load(loader)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			logger := xglog.WithComponent("cli")
			logger.Info().Interface("config", cfg.Redacted()).Msg("configuration loaded")
			if cfg.APIToken == "" {
				logger.Warn().Str(xglog.FieldEvent, "auth.no_token").
					Msg("no API token configured: /v1 is open and method calls are disabled")
			}

			tp, err := telemetry.NewProvider(ctx, cfg.TelemetryProvider(version.Version))
			if err != nil {
				return err
			}
			defer func() {
				if err := tp.Shutdown(context.WithoutCancel(ctx)); err != nil {
					logger.Warn().Err(err).Msg("telemetry shutdown failed")
				}
			}()

			app, err := buildApp(ctx, cfg, appOptions{RateLimit: opts.RateLimit, Tracing: opts.Tracing})
			if err != nil {
				return err
			}
			defer app.Close()

			if opts.Watch && path != "" {
				holder := config.NewHolder(cfg, loader, path)
				holder.OnReload(func(_, next config.Config) {
					if err := app.ApplyChannels(ctx, next.Channels); err != nil {
						logger.Error().Err(err).Str(xglog.FieldEvent, "channels.reload_failed").Msg("applying reloaded channels failed")
					}
				})
				go func() {
					if err := holder.Watch(ctx); err != nil {
						logger.Error().Err(err).Msg("config watcher stopped")
					}
				}()
			}

			return app.Server.Run(ctx, cfg.Listen)
		},
	}

	cmd.Flags().StringVarP(&opts.Listen, "listen", "l", "", "listen address (default "+config.DefaultListen+")")
	cmd.Flags().IntVar(&opts.RateLimit, "rate-limit", 600, "inbound requests per minute per client IP; 0 disables")
	cmd.Flags().BoolVar(&opts.Tracing, "tracing", true, "wrap handlers with OpenTelemetry instrumentation")
	cmd.Flags().BoolVar(&opts.Watch, "watch", true, "reload the channel list when the config file changes")

	return cmd
}
