// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys shared across spans.
const (
	SpecIDKey     = "backlot.spec.id"
	SpecSourceKey = "backlot.spec.source"
	SpecTypeKey   = "backlot.spec.type"
	ChannelIDKey  = "backlot.channel.id"

	ErrorTypeKey = "error.type"
)

// SpecAttributes describes the spec being resolved.
func SpecAttributes(id, source, specType, channelID string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(SpecIDKey, id),
		attribute.String(SpecSourceKey, source),
		attribute.String(SpecTypeKey, specType),
		attribute.String(ChannelIDKey, channelID),
	}
}

// RecordError marks span failed with err and its classification.
func RecordError(span trace.Span, err error, errType string) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if errType != "" {
		span.SetAttributes(attribute.String(ErrorTypeKey, errType))
	}
}
