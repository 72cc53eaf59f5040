// Package monitoring - tracing.go wraps each transform call in a span.
//
// DESIGN: Spans go to the global TracerProvider. The transform engine stays
// free of tracing; callers open a span, run the engine, and hand the result
// back to End, which copies the outcome onto the span.
package monitoring

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/compresr/omni-transform/internal/engine"
)

// TransformSpan is the tracing handle for one transform call.
type TransformSpan struct {
	span trace.Span
}

// StartTransform opens an "omni.transform" span.
func StartTransform(ctx context.Context, attrs ...attribute.KeyValue) (context.Context, *TransformSpan) {
	if id := RequestIDFromContext(ctx); id != "" {
		attrs = append(attrs, attribute.String("omni.request_id", id))
	}
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "omni.transform", trace.WithAttributes(attrs...))
	return ctx, &TransformSpan{span: span}
}

// End records the result on the span and closes it.
func (s *TransformSpan) End(res *engine.Result) {
	if s == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.Bool("omni.ok", res.OK),
		attribute.String("omni.outcome", string(ClassifyOutcome(res))),
		attribute.Int("omni.attempts", len(res.Diagnostics.AttemptedProviders)),
	}
	if res.SelectedProvider != nil {
		attrs = append(attrs, attribute.String("omni.provider", res.SelectedProvider.String()))
	}
	s.span.SetAttributes(attrs...)

	if res.Error != nil {
		s.span.RecordError(res.Error)
		s.span.SetStatus(codes.Error, string(res.Error.Code))
	} else {
		s.span.SetStatus(codes.Ok, "")
	}
	s.span.End()
}
