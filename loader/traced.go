package loader

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/krisalay/cachemanager/types"
)

const (
	tracerName = "github.com/krisalay/cachemanager/loader"
	spanName   = "cache.load"
)

// Traced creates an OpenTelemetry span around every backend load.
type Traced[K comparable, V any] struct {
	next   types.Loader[K, V]
	tracer trace.Tracer
}

// NewTraced wraps next. When tp is nil the global otel.GetTracerProvider()
// is used.
func NewTraced[K comparable, V any](next types.Loader[K, V], tp trace.TracerProvider) *Traced[K, V] {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Traced[K, V]{next: next, tracer: tp.Tracer(tracerName)}
}

// Load starts a "cache.load" span, calls the wrapped loader and records the
// outcome. types.ErrNotFound is not an error on the span.
func (t *Traced[K, V]) Load(ctx context.Context, key K) (V, error) {
	ctx, span := t.tracer.Start(ctx, spanName, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(attribute.String("cache.key", fmt.Sprint(key)))

	v, err := t.next.Load(ctx, key)
	switch {
	case err == nil:
		span.SetAttributes(attribute.Bool("cache.found", true))
	case errors.Is(err, types.ErrNotFound):
		span.SetAttributes(attribute.Bool("cache.found", false))
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return v, err
}
