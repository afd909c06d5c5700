// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ManuGH/backlot/internal/backlot"
	"github.com/ManuGH/backlot/internal/telemetry"
)

var (
	// ErrUnknownConfigField classifies strict YAML parse failures caused by unknown keys.
	ErrUnknownConfigField = errors.New("unknown config field")
	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("invalid config")
)

// Validate checks cfg and returns all problems joined.
func Validate(cfg Config) error {
	var errs []error
	fail := func(field, format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s: %s", ErrInvalidConfig, field, fmt.Sprintf(format, args...)))
	}

	if strings.TrimSpace(cfg.APIKey) == "" {
		fail("apiKey", "is required")
	}
	if strings.TrimSpace(cfg.SecretKey) == "" {
		fail("secretKey", "is required")
	}
	for field, raw := range map[string]string{"baseUrl": cfg.BaseURL, "playerUrl": cfg.PlayerURL} {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			fail(field, "must be an absolute http(s) URL, got %q", raw)
		}
	}
	if cfg.RetryDelay <= 0 {
		fail("retryDelay", "must be positive")
	}
	if cfg.ChannelTTL <= 0 {
		fail("channelTtl", "must be positive")
	}
	if cfg.HTTPTimeout <= 0 {
		fail("httpTimeout", "must be positive")
	}
	if cfg.RequestRate < 0 {
		fail("requestRate", "must not be negative")
	}
	if _, err := backlot.ParseOrder(cfg.QueueOrder); err != nil {
		fail("queueOrder", "%v", err)
	}
	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		fail("logLevel", "%v", err)
	}
	if cfg.Redis.DB < 0 {
		fail("redis.db", "must not be negative")
	}
	if t := cfg.Telemetry; t.Enabled {
		if t.Exporter != telemetry.ExporterGRPC && t.Exporter != telemetry.ExporterHTTP {
			fail("telemetry.exporter", "must be grpc or http, got %q", t.Exporter)
		}
		if strings.TrimSpace(t.Endpoint) == "" {
			fail("telemetry.endpoint", "is required when telemetry is enabled")
		}
	}
	if r := cfg.Telemetry.SamplingRate; r < 0 || r > 1 {
		fail("telemetry.samplingRate", "must be between 0 and 1, got %v", r)
	}

	seen := make(map[string]bool, len(cfg.Channels))
	for i, ch := range cfg.Channels {
		if ch.ID == "" {
			fail(fmt.Sprintf("channels[%d].id", i), "is required")
			continue
		}
		if seen[ch.ID] {
			fail(fmt.Sprintf("channels[%d].id", i), "duplicate id %q", ch.ID)
		}
		seen[ch.ID] = true
		s := ch.Secrets
		if (s.BacklotAPIKey == "") != (s.BacklotSecretKey == "") {
			fail(fmt.Sprintf("channels[%d].secrets", i), "backlotApiKey and backlotSecretKey must be set together")
		}
	}

	return errors.Join(errs...)
}
