// Package monitoring - metrics.go provides simple counters.
//
// DESIGN: Lightweight in-memory counters for operational metrics:
//   - transforms/successes: Total and successful transform calls
//   - fallbacks:            Successes that did not use the first candidate
//   - exhausted:            NO_PROVIDER_AVAILABLE results
//   - invalid:              Envelopes rejected before routing
//
// Every increment is mirrored to OpenTelemetry counters on the global
// MeterProvider, so an exporter installed by the host picks them up.
// Without one the otel calls are no-ops.
package monitoring

import (
	"context"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/compresr/omni-transform/internal/engine"
)

const instrumentationName = "github.com/compresr/omni-transform/internal/monitoring"

// MetricsCollector collects operational metrics.
type MetricsCollector struct {
	transforms atomic.Int64
	successes  atomic.Int64
	fallbacks  atomic.Int64
	exhausted  atomic.Int64
	invalid    atomic.Int64

	transformCounter metric.Int64Counter
	latencyHistogram metric.Float64Histogram
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector() *MetricsCollector {
	mc := &MetricsCollector{}
	meter := otel.Meter(instrumentationName)
	mc.transformCounter, _ = meter.Int64Counter("omni.transforms",
		metric.WithDescription("Transform calls by outcome"))
	mc.latencyHistogram, _ = meter.Float64Histogram("omni.transform.latency_ms",
		metric.WithDescription("Transform latency (ms)"))
	return mc
}

// RecordTransform records one finished transform call.
func (mc *MetricsCollector) RecordTransform(ctx context.Context, res *engine.Result, latency time.Duration) {
	outcome := ClassifyOutcome(res)

	mc.transforms.Add(1)
	switch outcome {
	case OutcomeSelected:
		mc.successes.Add(1)
	case OutcomeFallback:
		mc.successes.Add(1)
		mc.fallbacks.Add(1)
	case OutcomeExhausted:
		mc.exhausted.Add(1)
	case OutcomeInvalid:
		mc.invalid.Add(1)
	}

	attrs := []attribute.KeyValue{attribute.String("outcome", string(outcome))}
	if res.SelectedProvider != nil {
		attrs = append(attrs, attribute.String("provider", res.SelectedProvider.String()))
	}
	if mc.transformCounter != nil {
		mc.transformCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	if mc.latencyHistogram != nil {
		mc.latencyHistogram.Record(ctx, float64(latency.Microseconds())/1000, metric.WithAttributes(attrs...))
	}
}

// Stats returns current metrics.
func (mc *MetricsCollector) Stats() map[string]int64 {
	return map[string]int64{
		"transforms": mc.transforms.Load(),
		"successes":  mc.successes.Load(),
		"fallbacks":  mc.fallbacks.Load(),
		"exhausted":  mc.exhausted.Load(),
		"invalid":    mc.invalid.Load(),
	}
}
