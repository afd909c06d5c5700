// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package backlot

import (
	"errors"
	"fmt"
)

var (
	// Sentinel errors for errors.Is checks at the boundary.
	ErrInvalidArgument    = errors.New("backlot: invalid argument")
	ErrMissingCredentials = errors.New("backlot: api key and secret key are required")
	ErrTransport          = errors.New("backlot: transport failure")
	ErrUpstream           = errors.New("backlot: upstream error response")
	ErrContentType        = errors.New("backlot: expected content-type application/json")
	ErrBadResponse        = errors.New("backlot: invalid or malformed JSON response")
)

// APIError wraps a sentinel with the request path and the upstream detail.
type APIError struct {
	Sentinel error
	Path     string
	Status   int
	Message  string
	Err      error // lower-level cause (net.Error, json.SyntaxError)
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%v: GET %s", e.Sentinel, e.Path)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *APIError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Sentinel}
	}
	return []error{e.Sentinel, e.Err}
}

// StatusCode returns the upstream HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func invalidArgument(op, field string) error {
	return fmt.Errorf("%s: %s is required: %w", op, field, ErrInvalidArgument)
}
