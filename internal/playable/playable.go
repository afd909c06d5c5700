// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package playable resolves device-adjusted HLS URLs from the player
// authorization endpoint.
package playable

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/backlot/internal/log"
	"github.com/ManuGH/backlot/internal/platform/httpx"
)

// DefaultBaseURL is the player authorization endpoint.
const DefaultBaseURL = "http://player.ooyala.com/sas/player_api/v1/authorization/embed_code"

// CodeStreamUndefined is the error code reported when no stream is authorized.
const CodeStreamUndefined = "STREAM_UNDEFINED"

const maxBodyBytes = 4 << 20

var (
	// ErrStreamUndefined means the endpoint answered but carried no usable stream.
	ErrStreamUndefined = errors.New("playable: stream undefined")
	// ErrUnexpectedStatus is returned for any non-200 response.
	ErrUnexpectedStatus = errors.New("playable: unexpected status")
	// ErrInvalidArgument is returned before any I/O for empty inputs.
	ErrInvalidArgument = errors.New("playable: invalid argument")
)

// StreamError carries the request identity for ErrStreamUndefined.
type StreamError struct {
	APIKey    string
	EmbedCode string
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("stream undefined for playable URL with apiKey %s and embedCode %s", e.APIKey, e.EmbedCode)
}

// Code returns CodeStreamUndefined.
func (e *StreamError) Code() string { return CodeStreamUndefined }

func (e *StreamError) Unwrap() error { return ErrStreamUndefined }

// Doer sends one HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Resolver queries the authorization endpoint.
type Resolver struct {
	base   string
	http   Doer
	logger zerolog.Logger
}

// New returns a Resolver. Empty base uses DefaultBaseURL; nil doer uses a
// traced httpx client.
func New(base string, doer Doer) *Resolver {
	if base == "" {
		base = DefaultBaseURL
	}
	if doer == nil {
		doer = httpx.NewClient("playable", 0)
	}
	return &Resolver{
		base:   strings.TrimRight(base, "/"),
		http:   doer,
		logger: xglog.WithComponent("playable"),
	}
}

type authorization struct {
	AuthorizationData map[string]struct {
		Streams []struct {
			URL struct {
				Data string `json:"data"`
			} `json:"url"`
		} `json:"streams"`
	} `json:"authorization_data"`
}

// Resolve returns the decoded stream URL for embedCode with the iphone
// player path rewritten to appletv.
func (r *Resolver) Resolve(ctx context.Context, apiKey, embedCode string) (string, error) {
	if apiKey == "" {
		return "", fmt.Errorf("apiKey is required: %w", ErrInvalidArgument)
	}
	if embedCode == "" {
		return "", fmt.Errorf("embedCode is required: %w", ErrInvalidArgument)
	}

	query := url.Values{}
	query.Set("device", "roku")
	query.Set("domain", "www.ooyala.com")
	query.Set("supportedFormats", "m3u8")
	target := r.base + "/" + url.PathEscape(apiKey) + "/" + url.PathEscape(embedCode) + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("playable: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	res, err := r.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("playable: request failed: %w", err)
	}
	defer res.Body.Close()

	lg := xglog.WithContext(ctx, r.logger)
	lg.Debug().
		Str(xglog.FieldEvent, "playable.response").
		Int(xglog.FieldStatus, res.StatusCode).
		Int64(xglog.FieldDuration, time.Since(start).Milliseconds()).
		Msg("player API responded")

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: player API returned %d", ErrUnexpectedStatus, res.StatusCode)
	}

	var body authorization
	if err := json.NewDecoder(io.LimitReader(res.Body, maxBodyBytes)).Decode(&body); err != nil {
		return "", fmt.Errorf("playable: decode %d response: %w", res.StatusCode, err)
	}

	entry, ok := body.AuthorizationData[embedCode]
	if !ok || len(entry.Streams) == 0 || entry.Streams[0].URL.Data == "" {
		return "", &StreamError{APIKey: apiKey, EmbedCode: embedCode}
	}

	decoded, err := base64.StdEncoding.DecodeString(entry.Streams[0].URL.Data)
	if err != nil {
		return "", fmt.Errorf("playable: decode stream url: %w", err)
	}
	return strings.Replace(string(decoded), "player/iphone", "player/appletv", 1), nil
}
