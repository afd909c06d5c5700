// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Environment variable names.
const (
	EnvConfigFile    = "BACKLOT_CONFIG"
	EnvBaseURL       = "BACKLOT_BASE_URL"
	EnvAPIKey        = "BACKLOT_API_KEY"
	EnvSecretKey     = "BACKLOT_SECRET_KEY"
	EnvPlayerURL     = "BACKLOT_PLAYER_URL"
	EnvRetryDelay    = "BACKLOT_RETRY_DELAY"
	EnvChannelTTL    = "BACKLOT_CHANNEL_TTL"
	EnvQueueOrder    = "BACKLOT_QUEUE_ORDER"
	EnvRequestRate   = "BACKLOT_REQUEST_RATE"
	EnvHTTPTimeout   = "BACKLOT_HTTP_TIMEOUT"
	EnvListen        = "BACKLOT_LISTEN"
	EnvAPIToken      = "BACKLOT_API_TOKEN"
	EnvRedisAddr     = "BACKLOT_REDIS_ADDR"
	EnvRedisPassword = "BACKLOT_REDIS_PASSWORD"
	EnvRedisDB       = "BACKLOT_REDIS_DB"
	EnvLogLevel      = "BACKLOT_LOG_LEVEL"

	EnvTelemetryEnabled      = "BACKLOT_TELEMETRY_ENABLED"
	EnvTelemetryExporter     = "BACKLOT_TELEMETRY_EXPORTER"
	EnvTelemetryEndpoint     = "BACKLOT_TELEMETRY_ENDPOINT"
	EnvTelemetrySamplingRate = "BACKLOT_TELEMETRY_SAMPLING_RATE"
	EnvTelemetryEnvironment  = "BACKLOT_TELEMETRY_ENVIRONMENT"
)

// LookupFunc reads one environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

func isSensitive(key string) bool {
	k := strings.ToLower(key)
	return strings.Contains(k, "secret") || strings.Contains(k, "password") ||
		strings.Contains(k, "token") || strings.Contains(k, "api_key")
}

// envParser reads typed values and logs where each one came from.
type envParser struct {
	lookup LookupFunc
	logger zerolog.Logger
}

func (p envParser) raw(key string) (string, bool) {
	v, ok := p.lookup(key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (p envParser) usedEnv(key, value string) {
	evt := p.logger.Debug().Str("key", key).Str("source", "environment")
	if isSensitive(key) {
		evt = evt.Bool("sensitive", true)
	} else {
		evt = evt.Str("value", value)
	}
	evt.Msg("using environment variable")
}

func (p envParser) invalid(key, value, kind string) {
	p.logger.Warn().
		Str("key", key).
		Str("value", value).
		Msgf("invalid %s in environment variable, keeping previous value", kind)
}

func (p envParser) String(key, current string) string {
	v, ok := p.raw(key)
	if !ok {
		return current
	}
	p.usedEnv(key, v)
	return v
}

func (p envParser) Int(key string, current int) int {
	v, ok := p.raw(key)
	if !ok {
		return current
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		p.invalid(key, v, "integer")
		return current
	}
	p.usedEnv(key, v)
	return i
}

func (p envParser) Float(key string, current float64) float64 {
	v, ok := p.raw(key)
	if !ok {
		return current
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.invalid(key, v, "float")
		return current
	}
	p.usedEnv(key, v)
	return f
}

func (p envParser) Bool(key string, current bool) bool {
	v, ok := p.raw(key)
	if !ok {
		return current
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.invalid(key, v, "boolean")
		return current
	}
	p.usedEnv(key, v)
	return b
}

// Duration accepts Go durations ("90s") or plain seconds ("90").
func (p envParser) Duration(key string, current time.Duration) time.Duration {
	v, ok := p.raw(key)
	if !ok {
		return current
	}
	if d, err := time.ParseDuration(v); err == nil {
		p.usedEnv(key, v)
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		p.usedEnv(key, v)
		return time.Duration(secs) * time.Second
	}
	p.invalid(key, v, "duration")
	return current
}
