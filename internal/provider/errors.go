// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package provider

import (
	"errors"
	"fmt"
)

// Error codes carried by *Error.
const (
	CodeLabelNotFound    = "LABEL_NOT_FOUND"
	CodeAssetNotFound    = "ASSET_NOT_FOUND"
	CodePopularNotFound  = "POPULAR_NOT_FOUND"
	CodeSimilarNotFound  = "SIMILAR_NOT_FOUND"
	CodeTrendingNotFound = "TRENDING_NOT_FOUND"
	CodeStreamUndefined  = "STREAM_UNDEFINED"
)

var (
	// ErrInvalidSpec is returned before any I/O when a spec lacks a required field.
	ErrInvalidSpec = errors.New("provider: invalid spec")
	// ErrUnknownSource is returned by Resolve for an unserved spec source.
	ErrUnknownSource = errors.New("provider: unknown spec source")
	// ErrNotFound matches every *Error.
	ErrNotFound = errors.New("provider: not found")
)

// Error is a domain not-found failure. It is always paired with an error
// event.
type Error struct {
	Code    string
	Message string
	Spec    Spec
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports ErrNotFound as matching.
func (e *Error) Is(target error) bool {
	return target == ErrNotFound
}

// Code extracts the domain code of err, or "".
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func invalidSpec(source, field string) error {
	return fmt.Errorf("%s: spec.%s is required: %w", source, field, ErrInvalidSpec)
}
