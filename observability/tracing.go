package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/xraph/storehook"

// Tracer provides OpenTelemetry tracing for Storehook.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a tracer on the global provider.
func NewTracer() *Tracer {
	return &Tracer{
		tracer: otel.Tracer(tracerName),
	}
}

// NewTracerFromProvider creates a tracer on an explicit provider.
func NewTracerFromProvider(tp trace.TracerProvider) *Tracer {
	return &Tracer{
		tracer: tp.Tracer(tracerName),
	}
}

// StartDispatchSpan starts a new span for one webhook dispatch.
func (t *Tracer) StartDispatchSpan(ctx context.Context, logID, eventType, endpointID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "storehook.dispatch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("storehook.log_id", logID),
			attribute.String("storehook.event_type", eventType),
			attribute.String("storehook.endpoint_id", endpointID),
		),
	)
}

// EndDispatchSpan ends a dispatch span with result attributes.
func (t *Tracer) EndDispatchSpan(span trace.Span, statusCode, durationMs int, errMsg string) {
	span.SetAttributes(
		attribute.Int("http.status_code", statusCode),
		attribute.Int("storehook.duration_ms", durationMs),
	)
	if errMsg != "" {
		span.SetAttributes(attribute.String("storehook.error", errMsg))
		span.SetStatus(codes.Error, errMsg)
	}
	span.End()
}
