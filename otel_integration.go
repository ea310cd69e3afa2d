// Copyright (c) 2025 Nguyễn Thanh Phương
// This source code is licensed under the MIT License found in the LICENSE file.

// Package logtap provides the interception pipeline for the primary and engine logging APIs.
// This file correlates pipeline diagnostics with OpenTelemetry: sink failures
// are recorded on the span active in the log call's context, and the trace
// ID is attached to the diagnostic entry.

package logtap

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// extractOTelTraceID returns the trace ID of the span context in ctx, or "".
func extractOTelTraceID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

// extractOTelSpanID returns the span ID of the span context in ctx, or "".
func extractOTelSpanID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasSpanID() {
		return sc.SpanID().String()
	}
	return ""
}

// recordSpanError records err on the recording span in ctx, if any.
func recordSpanError(ctx context.Context, sink string, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err, trace.WithAttributes(attribute.String("logtap.sink", sink)))
}
