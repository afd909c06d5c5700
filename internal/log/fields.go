// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID     = "request_id"
	FieldCorrelationID = "correlation_id"
	FieldSpecID        = "spec_id"
	FieldChannelID     = "channel_id"
	FieldLabelID       = "label_id"
	FieldAssetID       = "asset_id"

	// Process / pipeline fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldSource    = "source"
	FieldCode      = "code"

	// Transport fields
	FieldPath     = "path"
	FieldBaseURL  = "base_url"
	FieldStatus   = "status"
	FieldAttempt  = "attempt"
	FieldPending  = "pending"
	FieldDuration = "duration_ms"
)
