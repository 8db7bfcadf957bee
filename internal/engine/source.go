package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/abhisek/prepcoach/internal/history"
	"github.com/abhisek/prepcoach/internal/logging"
	"github.com/abhisek/prepcoach/internal/metrics"
)

// DataSource supplies the historical facts the engine works from. It is the
// only I/O boundary of the core.
type DataSource interface {
	// PerformanceRecords returns every record for the learner. No records is
	// an empty slice, not an error.
	PerformanceRecords(ctx context.Context, learnerID string) ([]history.PerformanceRecord, error)

	// Ratings returns the whole rating graph, each edge keyed by its learner.
	Ratings(ctx context.Context) ([]history.RatingEdge, error)
}

// BreakerConfig configures the circuit breaker placed in front of a DataSource.
type BreakerConfig struct {
	Enabled bool `koanf:"enabled"`

	// MaxRequests is how many probes are let through while half-open.
	MaxRequests uint32 `koanf:"max_requests" validate:"gte=1"`

	// Interval resets the failure counts while closed. Zero never resets.
	Interval time.Duration `koanf:"interval"`

	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`

	// The breaker opens once at least MinRequests have been seen and the
	// failure ratio reaches FailureRatio.
	MinRequests  uint32  `koanf:"min_requests" validate:"gte=1"`
	FailureRatio float64 `koanf:"failure_ratio" validate:"gt=0,lte=1"`
}

// DefaultBreakerConfig returns conservative breaker settings.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Enabled:      true,
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		MinRequests:  3,
		FailureRatio: 0.6,
	}
}

// BreakerSource wraps a DataSource with a circuit breaker so a failing
// store is not hammered by every request.
type BreakerSource struct {
	inner DataSource
	cb    *gobreaker.CircuitBreaker[any]
	name  string
}

// NewBreakerSource wraps inner. name labels logs and metrics.
func NewBreakerSource(inner DataSource, name string, cfg BreakerConfig) *BreakerSource {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("data source breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
		IsSuccessful: func(err error) bool {
			// A caller giving up is not a store failure.
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &BreakerSource{inner: inner, cb: cb, name: name}
}

// State reports the breaker state.
func (b *BreakerSource) State() gobreaker.State {
	return b.cb.State()
}

func (b *BreakerSource) PerformanceRecords(ctx context.Context, learnerID string) ([]history.PerformanceRecord, error) {
	return castResult[[]history.PerformanceRecord](b.execute(func() (any, error) {
		return b.inner.PerformanceRecords(ctx, learnerID)
	}))
}

func (b *BreakerSource) Ratings(ctx context.Context) ([]history.RatingEdge, error) {
	return castResult[[]history.RatingEdge](b.execute(func() (any, error) {
		return b.inner.Ratings(ctx)
	}))
}

func (b *BreakerSource) execute(fn func() (any, error)) (any, error) {
	res, err := b.cb.Execute(fn)
	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
	}
	return res, err
}

func castResult[T any](res any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if res == nil {
		return zero, nil
	}
	typed, ok := res.(T)
	if !ok {
		return zero, fmt.Errorf("breaker: unexpected result type %T", res)
	}
	return typed, nil
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
