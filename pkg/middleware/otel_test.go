package middleware

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/vango-dev/lazyload/pkg/lazyload"
)

type recordedSpan struct {
	noop.Span
	name   string
	attrs  map[attribute.Key]attribute.Value
	status codes.Code
	errs   []error
	ended  bool
}

func (s *recordedSpan) SetAttributes(kv ...attribute.KeyValue) {
	for _, a := range kv {
		s.attrs[a.Key] = a.Value
	}
}

func (s *recordedSpan) SetStatus(code codes.Code, _ string) { s.status = code }

func (s *recordedSpan) RecordError(err error, _ ...trace.EventOption) { s.errs = append(s.errs, err) }

func (s *recordedSpan) End(...trace.SpanEndOption) { s.ended = true }

type recordingTracer struct {
	noop.Tracer
	spans []*recordedSpan
}

func (r *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	cfg := trace.NewSpanStartConfig(opts...)
	s := &recordedSpan{name: name, attrs: make(map[attribute.Key]attribute.Value)}
	s.SetAttributes(cfg.Attributes()...)
	r.spans = append(r.spans, s)
	return trace.ContextWithSpan(ctx, s), s
}

type recordingProvider struct {
	noop.TracerProvider
	tracer *recordingTracer
	name   string
}

func (p *recordingProvider) Tracer(name string, _ ...trace.TracerOption) trace.Tracer {
	p.name = name
	return p.tracer
}

func newRecordingProvider() *recordingProvider {
	return &recordingProvider{tracer: &recordingTracer{}}
}

func TestOpenTelemetry_SpanPerUpdate(t *testing.T) {
	tp := newRecordingProvider()
	p := newPage(t, OpenTelemetry(
		WithTracerProvider(tp),
		WithTracerName("gallery"),
		WithAttributeExtractor(func(*lazyload.Binding) []attribute.KeyValue {
			return []attribute.KeyValue{attribute.String("test.attr", "ok")}
		}),
	))

	if _, err := p.bind(t, "img", "hero", 0); err != nil {
		t.Fatalf("bind: %v", err)
	}

	if tp.name != "gallery" {
		t.Errorf("tracer name = %q, want gallery", tp.name)
	}
	if len(tp.tracer.spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(tp.tracer.spans))
	}
	s := tp.tracer.spans[0]
	if s.name != "lazyload.update img" {
		t.Errorf("span name = %q", s.name)
	}
	if !s.ended || s.status != codes.Ok {
		t.Errorf("ended=%v status=%v", s.ended, s.status)
	}
	checks := map[attribute.Key]string{
		"lazyload.tag":     "img",
		"lazyload.id":      "hero",
		"lazyload.outcome": "activated",
		"test.attr":        "ok",
	}
	for k, want := range checks {
		if got := s.attrs[k].AsString(); got != want {
			t.Errorf("%s = %q, want %q", k, got, want)
		}
	}
	if got := s.attrs["lazyload.threshold"].AsFloat64(); got != 25 {
		t.Errorf("lazyload.threshold = %v, want 25", got)
	}
}

func TestOpenTelemetry_RecordsErrors(t *testing.T) {
	tp := newRecordingProvider()
	p := newPage(t, OpenTelemetry(WithTracerProvider(tp)))

	_, err := p.bind(t, "video", "clip", 0)
	if !errors.Is(err, lazyload.ErrNoHandler) {
		t.Fatalf("bind error = %v, want ErrNoHandler", err)
	}

	s := tp.tracer.spans[0]
	if s.status != codes.Error || len(s.errs) != 1 {
		t.Errorf("status=%v errs=%v", s.status, s.errs)
	}
	if got := s.attrs["lazyload.outcome"].AsString(); got != "failed" {
		t.Errorf("outcome = %q, want failed", got)
	}
}

func TestOpenTelemetry_HandlerSeesSpan(t *testing.T) {
	tp := newRecordingProvider()
	var seen trace.Span
	observe := func(next lazyload.UpdateFunc) lazyload.UpdateFunc {
		return func(ctx context.Context, b *lazyload.Binding) (lazyload.Outcome, error) {
			seen = trace.SpanFromContext(ctx)
			return next(ctx, b)
		}
	}
	p := newPage(t, OpenTelemetry(WithTracerProvider(tp)), observe)
	_, _ = p.bind(t, "img", "hero", 0)

	if len(tp.tracer.spans) != 1 || seen != trace.Span(tp.tracer.spans[0]) {
		t.Error("inner middleware should receive the span context")
	}
}

func TestOpenTelemetry_FilterSkipsTracing(t *testing.T) {
	tp := newRecordingProvider()
	p := newPage(t, OpenTelemetry(
		WithTracerProvider(tp),
		WithFilter(func(b *lazyload.Binding) bool {
			id, _ := b.ID()
			return id != "skip"
		}),
	))

	if _, err := p.bind(t, "img", "skip", 0); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if len(tp.tracer.spans) != 0 {
		t.Errorf("spans = %d, want 0", len(tp.tracer.spans))
	}
}
