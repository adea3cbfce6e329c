// Package tracer provides a lightweight tracing abstraction for the
// generation pipeline.
//
// The internal interface keeps the card module decoupled from OpenTelemetry
// APIs while still emitting distributed traces in production.
//
// Implementations:
//   - NoopTracer: for tests (zero overhead)
//   - OTelTracer: OpenTelemetry adapter for production
package tracer

import "context"

// Span represents an active trace span.
type Span interface {
	// End completes the span, recording any error that occurred.
	// End must be called exactly once, typically via defer.
	End(err error)

	// SetAttributes adds key-value pairs to the span.
	SetAttributes(attrs ...Attribute)

	// AddEvent records a timestamped event within the span.
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans for distributed tracing.
// Implementations must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

// String creates a string attribute.
func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

// Bool creates a boolean attribute.
func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

// Int creates an int attribute.
func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: value}
}

// Span names used by the generation pipeline.
const (
	SpanGenerate   = "card.generate"
	SpanClassify   = "card.classify"
	SpanSynthesize = "card.synthesize"
)

// Attribute keys used by the generation pipeline.
const (
	AttrPrefix        = "bin.prefix"
	AttrBrand         = "bin.brand"
	AttrLength        = "card.length"
	AttrSynthFallback = "card.synth_fallback"
	AttrIncludeAVS    = "card.include_avs"
)
