package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/xraph/storehook"

// Metrics holds metric instruments for Storehook, backed by any OpenTelemetry
// meter (pass otel.Meter(...) or a MeterProvider's meter).
type Metrics struct {
	EventsTriggeredTotal metric.Int64Counter
	DispatchesTotal      metric.Int64Counter
	DispatchDuration     metric.Float64Histogram
	TestSendsLimited     metric.Int64Counter
}

// NewMetrics creates Storehook metric instruments on the supplied meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	triggered, err := meter.Int64Counter("storehook_events_triggered_total",
		metric.WithDescription("Events accepted for fan-out."))
	if err != nil {
		return nil, err
	}
	dispatches, err := meter.Int64Counter("storehook_dispatches_total",
		metric.WithDescription("Webhook dispatch attempts by outcome."))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("storehook_dispatch_duration_seconds",
		metric.WithDescription("Wall-clock duration of webhook dispatches."),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	limited, err := meter.Int64Counter("storehook_test_sends_limited_total",
		metric.WithDescription("Test-sends rejected by the per-endpoint rate limit."))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		EventsTriggeredTotal: triggered,
		DispatchesTotal:      dispatches,
		DispatchDuration:     duration,
		TestSendsLimited:     limited,
	}, nil
}

// RecordTrigger counts one event accepted for fan-out.
func (m *Metrics) RecordTrigger(ctx context.Context, eventType string) {
	m.EventsTriggeredTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("event_type", eventType)))
}

// RecordDispatch records a dispatch with the given status and duration.
func (m *Metrics) RecordDispatch(ctx context.Context, eventType, status string, durationMs int) {
	attrs := metric.WithAttributes(
		attribute.String("event_type", eventType),
		attribute.String("status", status),
	)
	m.DispatchesTotal.Add(ctx, 1, attrs)
	m.DispatchDuration.Record(ctx, float64(durationMs)/1000.0, attrs)
}

// RecordRateLimited counts one rejected test-send.
func (m *Metrics) RecordRateLimited(ctx context.Context) {
	m.TestSendsLimited.Add(ctx, 1)
}
