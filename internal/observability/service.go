package observability

import (
	"context"
	"errors"
	"time"

	"merchantdir/internal/directory"
	"merchantdir/internal/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "merchantdir/directory"

// InstrumentedService wraps a directory.ServiceInterface implementation with
// OpenTelemetry tracing and metrics instrumentation.
type InstrumentedService struct {
	inner    directory.ServiceInterface
	tracer   trace.Tracer
	duration metric.Float64Histogram
	errors   metric.Int64Counter
	results  metric.Int64Histogram
}

// Ensure InstrumentedService implements directory.ServiceInterface
var _ directory.ServiceInterface = (*InstrumentedService)(nil)

// NewInstrumentedService creates a service wrapper that records trace spans,
// operation latency histograms, error counters and result sizes for every
// directory query.
func NewInstrumentedService(inner directory.ServiceInterface) (*InstrumentedService, error) {
	tracer := otel.Tracer(instrumentationName)
	meter := otel.Meter(instrumentationName)

	duration, err := meter.Float64Histogram(
		"directory.operation.duration",
		metric.WithDescription("Duration of directory operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	errCounter, err := meter.Int64Counter(
		"directory.operation.errors",
		metric.WithDescription("Number of failed directory operations"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	results, err := meter.Int64Histogram(
		"directory.list.matches",
		metric.WithDescription("Number of merchants matching a list request before pagination"),
		metric.WithUnit("{merchant}"),
	)
	if err != nil {
		return nil, err
	}

	return &InstrumentedService{
		inner:    inner,
		tracer:   tracer,
		duration: duration,
		errors:   errCounter,
		results:  results,
	}, nil
}

func (s *InstrumentedService) startSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "directory."+operation,
		trace.WithAttributes(append([]attribute.KeyValue{
			attribute.String("directory.operation", operation),
		}, attrs...)...),
	)
}

func (s *InstrumentedService) record(ctx context.Context, span trace.Span, operation string, start time.Time, err error) {
	elapsed := time.Since(start).Seconds()
	attrs := metric.WithAttributes(attribute.String("operation", operation))

	s.duration.Record(ctx, elapsed, attrs)

	if err != nil {
		s.errors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("code", errorCode(err)),
		))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End()
}

// errorCode returns the machine code of a service error, or INTERNAL_ERROR.
func errorCode(err error) string {
	var svcErr *directory.ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Code
	}
	return models.ErrorCodeInternalError
}

func (s *InstrumentedService) ListMerchants(ctx context.Context, req *models.ListMerchantsRequest) (*models.ListMerchantsResponse, error) {
	var attrs []attribute.KeyValue
	if req != nil {
		attrs = append(attrs,
			attribute.Int("page", req.Page),
			attribute.Int("limit", req.Limit),
			attribute.Bool("search", req.Filters.SearchQuery != ""),
			attribute.StringSlice("categories", req.Filters.Categories),
			attribute.StringSlice("capabilities", req.Filters.Capabilities),
			attribute.StringSlice("payment_providers", req.Filters.PaymentProviders),
		)
	}
	ctx, span := s.startSpan(ctx, "ListMerchants", attrs...)
	start := time.Now()
	result, err := s.inner.ListMerchants(ctx, req)
	if err == nil {
		s.results.Record(ctx, int64(result.Pagination.Total))
		span.SetAttributes(attribute.Int("total", result.Pagination.Total))
	}
	s.record(ctx, span, "ListMerchants", start, err)
	return result, err
}

func (s *InstrumentedService) GetMerchant(ctx context.Context, slug string) (*models.Merchant, error) {
	ctx, span := s.startSpan(ctx, "GetMerchant", attribute.String("slug", slug))
	start := time.Now()
	result, err := s.inner.GetMerchant(ctx, slug)
	s.record(ctx, span, "GetMerchant", start, err)
	return result, err
}

func (s *InstrumentedService) Metadata(ctx context.Context) (models.DirectoryMetadata, error) {
	ctx, span := s.startSpan(ctx, "Metadata")
	start := time.Now()
	result, err := s.inner.Metadata(ctx)
	s.record(ctx, span, "Metadata", start, err)
	return result, err
}

// Count is not traced; the health endpoint calls it on every probe.
func (s *InstrumentedService) Count(ctx context.Context) int {
	return s.inner.Count(ctx)
}
