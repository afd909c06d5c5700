// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	xglog "github.com/ManuGH/backlot/internal/log"
)

// Loader handles configuration loading with precedence ENV > file > defaults.
type Loader struct {
	configPath string
	lookup     LookupFunc
	overrides  []func(*Config)
}

// NewLoader creates a loader for configPath, which may be empty.
func NewLoader(configPath string) *Loader {
	return &Loader{configPath: configPath, lookup: os.LookupEnv}
}

// WithLookup replaces the environment source.
func (l *Loader) WithLookup(lookup LookupFunc) *Loader {
	l.lookup = lookup
	return l
}

// WithOverride registers fn to run after the environment merge and before
// validation. Command-line flags use it.
func (l *Loader) WithOverride(fn func(*Config)) *Loader {
	l.overrides = append(l.overrides, fn)
	return l
}

// Load builds and validates the configuration.
func (l *Loader) Load() (Config, error) {
	cfg := Defaults()

	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	l.mergeEnv(&cfg)
	for _, fn := range l.overrides {
		fn(&cfg)
	}

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile decodes a YAML file over cfg. Unknown fields are rejected.
func (l *Loader) loadFile(path string, cfg *Config) error {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return fmt.Errorf("%w: %v", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return nil
}

func (l *Loader) mergeEnv(cfg *Config) {
	env := envParser{lookup: l.lookup, logger: xglog.WithComponent("config")}

	cfg.BaseURL = env.String(EnvBaseURL, cfg.BaseURL)
	cfg.APIKey = env.String(EnvAPIKey, cfg.APIKey)
	cfg.SecretKey = env.String(EnvSecretKey, cfg.SecretKey)
	cfg.PlayerURL = env.String(EnvPlayerURL, cfg.PlayerURL)
	cfg.RetryDelay = env.Duration(EnvRetryDelay, cfg.RetryDelay)
	cfg.ChannelTTL = env.Duration(EnvChannelTTL, cfg.ChannelTTL)
	cfg.QueueOrder = env.String(EnvQueueOrder, cfg.QueueOrder)
	cfg.RequestRate = env.Float(EnvRequestRate, cfg.RequestRate)
	cfg.HTTPTimeout = env.Duration(EnvHTTPTimeout, cfg.HTTPTimeout)
	cfg.Listen = env.String(EnvListen, cfg.Listen)
	cfg.APIToken = env.String(EnvAPIToken, cfg.APIToken)
	cfg.Redis.Addr = env.String(EnvRedisAddr, cfg.Redis.Addr)
	cfg.Redis.Password = env.String(EnvRedisPassword, cfg.Redis.Password)
	cfg.Redis.DB = env.Int(EnvRedisDB, cfg.Redis.DB)
	cfg.LogLevel = env.String(EnvLogLevel, cfg.LogLevel)
	cfg.Telemetry.Enabled = env.Bool(EnvTelemetryEnabled, cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = env.String(EnvTelemetryExporter, cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = env.String(EnvTelemetryEndpoint, cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = env.Float(EnvTelemetrySamplingRate, cfg.Telemetry.SamplingRate)
	cfg.Telemetry.Environment = env.String(EnvTelemetryEnvironment, cfg.Telemetry.Environment)
}
