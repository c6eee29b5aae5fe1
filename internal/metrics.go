package internal

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"go.eggybyte.com/bindx/core/errors"
)

// MeterName is the instrumentation scope of the binder metrics.
const MeterName = "go.eggybyte.com/bindx"

// Metrics holds the binder instruments.
//
// Metrics collected:
//   - bindx_configure_total: Configure calls, labeled by outcome and error code
//   - bindx_configure_duration_seconds: Configure call latency
//   - bindx_fields_bound_total: Field assignments, labeled by stage
type Metrics struct {
	calls    metric.Int64Counter
	duration metric.Float64Histogram
	bound    metric.Int64Counter
}

// NewMetrics creates the instruments on mp. A nil provider records nothing.
// Instrument creation errors are reported to the global otel error handler
// and replaced by no-op instruments.
func NewMetrics(mp metric.MeterProvider) *Metrics {
	if mp == nil {
		mp = noop.NewMeterProvider()
	}
	meter := mp.Meter(MeterName)
	fallback := noop.NewMeterProvider().Meter(MeterName)

	calls, err := meter.Int64Counter(
		"bindx_configure_total",
		metric.WithDescription("Number of configure calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		otel.Handle(err)
		calls, _ = fallback.Int64Counter("bindx_configure_total")
	}

	duration, err := meter.Float64Histogram(
		"bindx_configure_duration_seconds",
		metric.WithDescription("Duration of configure calls"),
		metric.WithUnit("s"),
	)
	if err != nil {
		otel.Handle(err)
		duration, _ = fallback.Float64Histogram("bindx_configure_duration_seconds")
	}

	bound, err := meter.Int64Counter(
		"bindx_fields_bound_total",
		metric.WithDescription("Number of fields assigned from configuration"),
		metric.WithUnit("{field}"),
	)
	if err != nil {
		otel.Handle(err)
		bound, _ = fallback.Int64Counter("bindx_fields_bound_total")
	}

	return &Metrics{calls: calls, duration: duration, bound: bound}
}

// RecordConfigure records one configure call.
func (m *Metrics) RecordConfigure(start time.Time, err error) {
	ctx := context.Background()
	attrs := []attribute.KeyValue{attribute.String("outcome", "success")}
	if err != nil {
		attrs = []attribute.KeyValue{
			attribute.String("outcome", "error"),
			attribute.String("code", string(errors.CodeOf(err))),
		}
	}

	m.calls.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.duration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(attrs...))
}

// RecordBound records one field assignment by stage.
func (m *Metrics) RecordBound(stage Kind) {
	m.bound.Add(context.Background(), 1, metric.WithAttributes(attribute.String("stage", stage.String())))
}
