package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/sumire/issuetracker/internal/domain"
	"github.com/sumire/issuetracker/internal/service"
)

// InstrumentedStore wraps a service.IssueStore with a span per call and
// issues.store.* metrics.
type InstrumentedStore struct {
	inner  service.IssueStore
	tracer trace.Tracer
	ops    metric.Int64Counter
	dur    metric.Float64Histogram
	errs   metric.Int64Counter
}

// WrapStore decorates s using the global providers. When telemetry is
// disabled s is returned unchanged.
func WrapStore(s service.IssueStore, enabled bool) service.IssueStore {
	if !enabled {
		return s
	}
	return NewInstrumentedStore(s, Tracer(), Meter())
}

// NewInstrumentedStore decorates s with the given tracer and meter.
func NewInstrumentedStore(s service.IssueStore, tracer trace.Tracer, meter metric.Meter) *InstrumentedStore {
	ops, _ := meter.Int64Counter("issues.store.operations",
		metric.WithDescription("Total issue store operations executed"),
	)
	dur, _ := meter.Float64Histogram("issues.store.operation.duration",
		metric.WithDescription("Issue store operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	errs, _ := meter.Int64Counter("issues.store.errors",
		metric.WithDescription("Issue store operations that failed with an infrastructure error"),
	)
	return &InstrumentedStore{
		inner:  s,
		tracer: tracer,
		ops:    ops,
		dur:    dur,
		errs:   errs,
	}
}

func (s *InstrumentedStore) op(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span, time.Time, []attribute.KeyValue) {
	all := append([]attribute.KeyValue{attribute.String("db.operation", name)}, attrs...)
	ctx, span := s.tracer.Start(ctx, "store."+name,
		trace.WithAttributes(all...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	s.ops.Add(ctx, 1, metric.WithAttributes(all...))
	return ctx, span, time.Now(), all
}

// done ends the span and records duration. Not-found is a normal outcome and
// is not counted as an error.
func (s *InstrumentedStore) done(ctx context.Context, span trace.Span, start time.Time, err error, attrs []attribute.KeyValue) {
	ms := float64(time.Since(start).Microseconds()) / 1000
	s.dur.Record(ctx, ms, metric.WithAttributes(attrs...))
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		span.SetAttributes(attribute.Bool("issues.not_found", true))
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.errs.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	span.End()
}

func (s *InstrumentedStore) Create(ctx context.Context, in domain.IssueInput) (*domain.Issue, error) {
	ctx, span, t, attrs := s.op(ctx, "Create", attribute.String("issues.status", string(in.Status)))
	v, err := s.inner.Create(ctx, in)
	if v != nil {
		span.SetAttributes(attribute.String("issues.id", v.ID))
	}
	s.done(ctx, span, t, err, attrs)
	return v, err
}

func (s *InstrumentedStore) FindByID(ctx context.Context, id string) (*domain.Issue, error) {
	ctx, span, t, attrs := s.op(ctx, "FindByID")
	span.SetAttributes(attribute.String("issues.id", id))
	v, err := s.inner.FindByID(ctx, id)
	s.done(ctx, span, t, err, attrs)
	return v, err
}

func (s *InstrumentedStore) Update(ctx context.Context, id string, in domain.IssueInput) (*domain.Issue, error) {
	ctx, span, t, attrs := s.op(ctx, "Update", attribute.String("issues.status", string(in.Status)))
	span.SetAttributes(attribute.String("issues.id", id))
	v, err := s.inner.Update(ctx, id, in)
	s.done(ctx, span, t, err, attrs)
	return v, err
}

func (s *InstrumentedStore) Delete(ctx context.Context, id string) error {
	ctx, span, t, attrs := s.op(ctx, "Delete")
	span.SetAttributes(attribute.String("issues.id", id))
	err := s.inner.Delete(ctx, id)
	s.done(ctx, span, t, err, attrs)
	return err
}

func (s *InstrumentedStore) Query(ctx context.Context, q domain.QuerySpec) ([]domain.Issue, int, error) {
	ctx, span, t, attrs := s.op(ctx, "Query",
		attribute.String("issues.sort", string(q.Sort.Key)),
		attribute.Bool("issues.search", q.Filter.Search != ""),
	)
	span.SetAttributes(
		attribute.Int("issues.page", q.Page),
		attribute.Int("issues.page_size", q.PageSize),
	)
	v, total, err := s.inner.Query(ctx, q)
	span.SetAttributes(attribute.Int("issues.total", total), attribute.Int("issues.returned", len(v)))
	s.done(ctx, span, t, err, attrs)
	return v, total, err
}

func (s *InstrumentedStore) Ping(ctx context.Context) error {
	ctx, span, t, attrs := s.op(ctx, "Ping")
	err := s.inner.Ping(ctx)
	s.done(ctx, span, t, err, attrs)
	return err
}
