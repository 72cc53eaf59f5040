// Package monitoring - observer.go bundles tracing, metrics and telemetry
// around a single transform call.
//
// DESIGN: The CLI and the HTTP server both funnel through Observer.Run so a
// call is recorded identically whichever surface received it. Envelopes that
// fail to decode never reach the engine; RecordRejected covers those.
package monitoring

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/compresr/omni-transform/internal/canonical"
	"github.com/compresr/omni-transform/internal/engine"
)

// TransformFunc is the engine entry point being observed.
type TransformFunc func(*canonical.CanonicalEnvelope) *engine.Result

// Observer records every transform call it wraps.
type Observer struct {
	tracker *Tracker
	metrics *MetricsCollector
}

// NewObserver creates an observer. A nil tracker disables telemetry.
func NewObserver(tracker *Tracker, metrics *MetricsCollector) *Observer {
	if metrics == nil {
		metrics = NewMetricsCollector()
	}
	return &Observer{tracker: tracker, metrics: metrics}
}

// Metrics returns the observer's metrics collector.
func (o *Observer) Metrics() *MetricsCollector { return o.metrics }

// Run executes transform for env and records the outcome.
func (o *Observer) Run(ctx context.Context, source string, env *canonical.CanonicalEnvelope, transform TransformFunc) *engine.Result {
	preferred := providerStrings(env.Provider.Preferred)
	ctx, span := StartTransform(ctx,
		attribute.String("omni.source", source),
		attribute.String("omni.model", env.Request.Model),
		attribute.StringSlice("omni.preferred", preferred),
	)

	start := time.Now()
	res := transform(env)
	latency := time.Since(start)

	span.End(res)
	o.record(ctx, source, env.Request.Model, preferred, res, latency)
	return res
}

// RecordRejected records a result produced without running the engine.
func (o *Observer) RecordRejected(ctx context.Context, source string, res *engine.Result) {
	_, span := StartTransform(ctx, attribute.String("omni.source", source))
	span.End(res)
	o.record(ctx, source, "", nil, res, 0)
}

func (o *Observer) record(ctx context.Context, source, model string, preferred []string, res *engine.Result, latency time.Duration) {
	o.metrics.RecordTransform(ctx, res, latency)
	o.tracker.RecordTransform(NewTransformEvent(RequestIDFromContext(ctx), source, model, preferred, res, latency))

	logger := LoggerFromContext(ctx)
	evt := logger.Debug()
	if !res.OK {
		evt = logger.Info().Str("error_code", string(res.ErrorCode()))
	}
	if res.SelectedProvider != nil {
		evt = evt.Str("provider", res.SelectedProvider.String())
	}
	evt.Str("source", source).
		Str("outcome", string(ClassifyOutcome(res))).
		Dur("latency", latency).
		Msg("transform")
}
