// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package channel models per-tenant channel configuration and the cached
// lookup used by the resolution pipeline.
package channel

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/ManuGH/backlot/internal/backlot"
)

// ErrNotFound is returned by stores that have no channel for an id.
var ErrNotFound = errors.New("channel: not found")

// Channel is the external configuration entity of one tenant.
type Channel struct {
	ID      string  `json:"id" yaml:"id"`
	Name    string  `json:"name,omitempty" yaml:"name"`
	Secrets Secrets `json:"secrets" yaml:"secrets"`
}

// Secrets carries override credentials and feature flags.
type Secrets struct {
	BacklotAPIKey    string `json:"backlotApiKey,omitempty" yaml:"backlotApiKey"`
	BacklotSecretKey string `json:"backlotSecretKey,omitempty" yaml:"backlotSecretKey"`
	SkipMetadata     bool   `json:"skipMetadata,omitempty" yaml:"skipMetadata"`
	SkipStreams      bool   `json:"skipStreams,omitempty" yaml:"skipStreams"`
	SkipPlayableURL  bool   `json:"skipPlayableUrl,omitempty" yaml:"skipPlayableUrl"`
}

type secretFields Secrets

// UnmarshalJSON accepts the flat form and the nested {"ooyala": {...}}
// form. Flat fields win when both are present.
func (s *Secrets) UnmarshalJSON(data []byte) error {
	var raw struct {
		secretFields
		Ooyala *secretFields `json:"ooyala"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := Secrets(raw.secretFields)
	if n := raw.Ooyala; n != nil {
		if out.BacklotAPIKey == "" && out.BacklotSecretKey == "" {
			out.BacklotAPIKey = n.BacklotAPIKey
			out.BacklotSecretKey = n.BacklotSecretKey
		}
		out.SkipMetadata = out.SkipMetadata || n.SkipMetadata
		out.SkipStreams = out.SkipStreams || n.SkipStreams
		out.SkipPlayableURL = out.SkipPlayableURL || n.SkipPlayableURL
	}
	*s = out
	return nil
}

// Credentials returns the override credentials. Both keys must be set for
// the override to apply; otherwise the zero value is returned.
func (s Secrets) Credentials() backlot.Credentials {
	if s.BacklotAPIKey == "" || s.BacklotSecretKey == "" {
		return backlot.Credentials{}
	}
	return backlot.Credentials{APIKey: s.BacklotAPIKey, SecretKey: s.BacklotSecretKey}
}

// Lookup reads a channel by id from an external store.
type Lookup interface {
	Lookup(ctx context.Context, id string) (Channel, error)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(ctx context.Context, id string) (Channel, error)

// Lookup implements Lookup.
func (f LookupFunc) Lookup(ctx context.Context, id string) (Channel, error) {
	return f(ctx, id)
}
