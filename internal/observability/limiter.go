package observability

import (
	"context"

	"merchantdir/internal/ratelimit"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// bucketCounter is implemented by limiters that keep buckets in process.
type bucketCounter interface {
	Len() int
}

// InstrumentedLimiter counts admission decisions of a ratelimit.Limiter. Keys
// are never recorded as attributes since they are client addresses.
type InstrumentedLimiter struct {
	inner        ratelimit.Limiter
	decisions    metric.Int64Counter
	registration metric.Registration
}

// Ensure InstrumentedLimiter implements ratelimit.Limiter
var _ ratelimit.Limiter = (*InstrumentedLimiter)(nil)

var (
	decisionAllowed = metric.WithAttributes(attribute.String("decision", "allowed"))
	decisionDenied  = metric.WithAttributes(attribute.String("decision", "denied"))
)

// NewInstrumentedLimiter wraps inner. When inner can report how many buckets
// it tracks, that number is exported as an observable gauge.
func NewInstrumentedLimiter(inner ratelimit.Limiter) (*InstrumentedLimiter, error) {
	meter := otel.Meter("merchantdir/ratelimit")

	decisions, err := meter.Int64Counter(
		"ratelimit.decisions",
		metric.WithDescription("Number of rate limit admission decisions"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	il := &InstrumentedLimiter{inner: inner, decisions: decisions}

	if counter, ok := inner.(bucketCounter); ok {
		buckets, err := meter.Int64ObservableGauge(
			"ratelimit.buckets",
			metric.WithDescription("Number of client buckets currently tracked"),
			metric.WithUnit("{bucket}"),
		)
		if err != nil {
			return nil, err
		}
		il.registration, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
			o.ObserveInt64(buckets, int64(counter.Len()))
			return nil
		}, buckets)
		if err != nil {
			return nil, err
		}
	}

	return il, nil
}

func (l *InstrumentedLimiter) Allow(ctx context.Context, key string) (bool, ratelimit.Info) {
	allowed, info := l.inner.Allow(ctx, key)
	if allowed {
		l.decisions.Add(ctx, 1, decisionAllowed)
	} else {
		l.decisions.Add(ctx, 1, decisionDenied)
	}
	return allowed, info
}

// Close unregisters the gauge callback and closes the wrapped limiter.
func (l *InstrumentedLimiter) Close() error {
	if l.registration != nil {
		if err := l.registration.Unregister(); err != nil {
			return err
		}
	}
	return l.inner.Close()
}
