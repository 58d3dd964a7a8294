package oracle

import (
	"context"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/spboyer/thinkroute/internal/models"
	"golang.org/x/time/rate"
)

// Default retry settings for external scoring calls.
const (
	DefaultMaxAttempts = 3
	DefaultBackoffBase = 500 * time.Millisecond
	DefaultMaxBackoff  = 8 * time.Second
)

// decorated wraps an Oracle while keeping its name.
type decorated struct {
	inner Oracle
	score Func
}

func (d *decorated) Name() string { return NameOf(d.inner) }

func (d *decorated) Score(ctx context.Context, question string) (*models.OracleResponse, error) {
	return d.score(ctx, question)
}

// WithRetry retries transient failures (see models.IsRetryable) with
// exponential backoff, making at most maxAttempts calls. Invalid input and
// cancellation are returned immediately.
func WithRetry(o Oracle, maxAttempts int, base time.Duration) Oracle {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if base <= 0 {
		base = DefaultBackoffBase
	}

	return &decorated{inner: o, score: func(ctx context.Context, question string) (*models.OracleResponse, error) {
		backoff := retry.WithCappedDuration(DefaultMaxBackoff,
			retry.WithMaxRetries(uint64(maxAttempts-1), retry.NewExponential(base)))

		attempt := 0
		var resp *models.OracleResponse
		err := retry.Do(ctx, backoff, func(ctx context.Context) error {
			attempt++
			r, err := o.Score(ctx, question)
			if err == nil {
				resp = r
				return nil
			}
			if models.IsRetryable(err) {
				slog.Debug("retrying oracle call", "attempt", attempt, "error", err)
				return retry.RetryableError(err)
			}
			return err
		})
		if err != nil {
			return nil, err
		}
		return resp, nil
	}}
}

// WithRateLimit makes every call wait for limiter first.
func WithRateLimit(o Oracle, limiter *rate.Limiter) Oracle {
	if limiter == nil {
		return o
	}
	return &decorated{inner: o, score: func(ctx context.Context, question string) (*models.OracleResponse, error) {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return o.Score(ctx, question)
	}}
}

// NewLimiter allows perSecond calls per second with a burst of one.
// A non-positive rate means unlimited and returns nil.
func NewLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

// WithTimeout bounds every call by d. An exceeded deadline surfaces as
// context.DeadlineExceeded, which batch callers record as a timeout.
func WithTimeout(o Oracle, d time.Duration) Oracle {
	if d <= 0 {
		return o
	}
	return &decorated{inner: o, score: func(ctx context.Context, question string) (*models.OracleResponse, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return o.Score(ctx, question)
	}}
}
