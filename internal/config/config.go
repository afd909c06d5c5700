// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package config loads the backlot configuration from defaults, an
// optional YAML file and BACKLOT_* environment variables, in that order
// of increasing precedence.
package config

import (
	"time"

	"github.com/ManuGH/backlot/internal/backlot"
	"github.com/ManuGH/backlot/internal/cache"
	"github.com/ManuGH/backlot/internal/channel"
	"github.com/ManuGH/backlot/internal/playable"
	"github.com/ManuGH/backlot/internal/telemetry"
)

// Defaults.
const (
	DefaultListen            = ":8080"
	DefaultHTTPTimeout       = 30 * time.Second
	DefaultLogLevel          = "info"
	DefaultTelemetryEndpoint = "localhost:4317"
)

// Config is the effective configuration.
type Config struct {
	BaseURL     string            `yaml:"baseUrl"`
	APIKey      string            `yaml:"apiKey"`
	SecretKey   string            `yaml:"secretKey"`
	PlayerURL   string            `yaml:"playerUrl"`
	RetryDelay  time.Duration     `yaml:"retryDelay"`
	ChannelTTL  time.Duration     `yaml:"channelTtl"`
	QueueOrder  string            `yaml:"queueOrder"`
	RequestRate float64           `yaml:"requestRate"`
	HTTPTimeout time.Duration     `yaml:"httpTimeout"`
	Listen      string            `yaml:"listen"`
	APIToken    string            `yaml:"apiToken"`
	Redis       cache.RedisConfig `yaml:"redis"`
	LogLevel    string            `yaml:"logLevel"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Channels    []channel.Channel `yaml:"channels"`
}

// TelemetryConfig selects the OTLP trace exporter used by serve.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"` // grpc or http
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"samplingRate"`
	Environment  string  `yaml:"environment"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() Config {
	return Config{
		BaseURL:     backlot.DefaultBaseURL,
		PlayerURL:   playable.DefaultBaseURL,
		RetryDelay:  backlot.DefaultRetryDelay,
		ChannelTTL:  channel.DefaultTTL,
		QueueOrder:  backlot.OrderFIFO.String(),
		HTTPTimeout: DefaultHTTPTimeout,
		Listen:      DefaultListen,
		LogLevel:    DefaultLogLevel,
		Telemetry: TelemetryConfig{
			Exporter:     telemetry.ExporterGRPC,
			Endpoint:     DefaultTelemetryEndpoint,
			SamplingRate: 1.0,
		},
	}
}

// Credentials returns the default catalog credentials.
func (c Config) Credentials() backlot.Credentials {
	return backlot.Credentials{APIKey: c.APIKey, SecretKey: c.SecretKey}
}

// Order parses QueueOrder. Validate rejects unknown values.
func (c Config) Order() backlot.Order {
	o, _ := backlot.ParseOrder(c.QueueOrder)
	return o
}

// TelemetryProvider returns the tracer provider settings for serviceVersion.
func (c Config) TelemetryProvider(serviceVersion string) telemetry.Config {
	return telemetry.Config{
		Enabled:        c.Telemetry.Enabled,
		ServiceName:    "backlot",
		ServiceVersion: serviceVersion,
		Environment:    c.Telemetry.Environment,
		ExporterType:   c.Telemetry.Exporter,
		Endpoint:       c.Telemetry.Endpoint,
		SamplingRate:   c.Telemetry.SamplingRate,
	}
}

// Redacted returns a copy safe to log.
func (c Config) Redacted() Config {
	out := c
	out.APIKey = mask(c.APIKey)
	out.SecretKey = mask(c.SecretKey)
	out.APIToken = mask(c.APIToken)
	out.Redis.Password = mask(c.Redis.Password)
	out.Channels = make([]channel.Channel, len(c.Channels))
	for i, ch := range c.Channels {
		ch.Secrets.BacklotAPIKey = mask(ch.Secrets.BacklotAPIKey)
		ch.Secrets.BacklotSecretKey = mask(ch.Secrets.BacklotSecretKey)
		out.Channels[i] = ch
	}
	return out
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}
