// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestContextWithRequestID(t *testing.T) {
	tests := []struct {
		name      string
		ctx       context.Context
		requestID string
		want      string
	}{
		{
			name:      "nil context",
			ctx:       nil,
			requestID: "test-id-123",
			want:      "test-id-123",
		},
		{
			name:      "background context",
			ctx:       context.Background(),
			requestID: "req-456",
			want:      "req-456",
		},
		{
			name:      "empty request ID",
			ctx:       context.Background(),
			requestID: "",
			want:      "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := ContextWithRequestID(tt.ctx, tt.requestID)
			got := RequestIDFromContext(ctx)
			if got != tt.want {
				t.Errorf("RequestIDFromContext() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSpecIDFromContext_Missing(t *testing.T) {
	if got := SpecIDFromContext(context.Background()); got != "" {
		t.Errorf("expected empty spec id, got %q", got)
	}
	//nolint:staticcheck // nil context is part of the contract
	if got := SpecIDFromContext(nil); got != "" {
		t.Errorf("expected empty spec id for nil context, got %q", got)
	}
}

func TestWithContext_AddsFields(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithSpecID(ctx, "spec-backlot-abc")

	l := WithContext(ctx, logger)
	l.Info().Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid log line: %v", err)
	}
	if entry[FieldRequestID] != "req-1" {
		t.Errorf("request_id = %v", entry[FieldRequestID])
	}
	if entry[FieldSpecID] != "spec-backlot-abc" {
		t.Errorf("spec_id = %v", entry[FieldSpecID])
	}
	if _, ok := entry[FieldCorrelationID]; ok {
		t.Errorf("correlation_id should be absent")
	}
}

func TestWithContext_NoFieldsReturnsSameLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	l := WithContext(context.Background(), logger)
	l.Info().Msg("plain")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid log line: %v", err)
	}
	if len(entry) != 2 {
		t.Errorf("expected only level and message, got %v", entry)
	}
}
