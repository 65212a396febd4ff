package middleware

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/lazyload/pkg/lazyload"
)

const defaultTracerName = "lazyload"

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "lazyload").
	TracerName string

	// TracerProvider supplies the tracer. Defaults to the global provider.
	TracerProvider trace.TracerProvider

	// Filter determines which updates to trace.
	// Return true to trace the update, false to skip.
	// If nil, all updates are traced.
	Filter func(b *lazyload.Binding) bool

	// AttributeExtractor adds custom attributes for each traced update.
	AttributeExtractor func(b *lazyload.Binding) []attribute.KeyValue
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithFilter sets a filter function for updates.
func WithFilter(filter func(b *lazyload.Binding) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(b *lazyload.Binding) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

// OpenTelemetry creates middleware that traces every dispatched update.
//
// The middleware:
//   - Creates a span named "lazyload.update <tag>" with the element id and threshold
//   - Passes the span context to the tag handler through ctx
//   - Records errors and sets span status
//   - Records the update outcome as a span attribute
//
// Example:
//
//	engine := lazyload.New(doc,
//	    lazyload.WithMiddleware(
//	        middleware.OpenTelemetry(middleware.WithTracerName("gallery")),
//	    ),
//	)
func OpenTelemetry(opts ...OTelOption) lazyload.Middleware {
	config := OTelConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	if config.TracerProvider == nil {
		config.TracerProvider = otel.GetTracerProvider()
	}
	tracer := config.TracerProvider.Tracer(config.TracerName)

	return func(next lazyload.UpdateFunc) lazyload.UpdateFunc {
		return func(ctx context.Context, b *lazyload.Binding) (lazyload.Outcome, error) {
			if config.Filter != nil && !config.Filter(b) {
				return next(ctx, b)
			}

			tag := tagOf(b)
			attrs := []attribute.KeyValue{
				attribute.String("lazyload.tag", tag),
				attribute.Float64("lazyload.threshold", b.Options().Threshold),
			}
			if id, ok := b.ID(); ok {
				attrs = append(attrs, attribute.String("lazyload.id", id))
			}
			if config.AttributeExtractor != nil {
				attrs = append(attrs, config.AttributeExtractor(b)...)
			}

			spanCtx, span := tracer.Start(ctx, fmt.Sprintf("lazyload.update %s", tag),
				trace.WithSpanKind(trace.SpanKindInternal),
				trace.WithAttributes(attrs...),
			)
			defer span.End()

			outcome, err := next(spanCtx, b)

			span.SetAttributes(attribute.String("lazyload.outcome", outcome.String()))
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			} else {
				span.SetStatus(codes.Ok, "")
			}
			return outcome, err
		}
	}
}
