package oracle

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spboyer/thinkroute/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flaky(failures int, err error) (Oracle, *atomic.Int32) {
	calls := &atomic.Int32{}
	return Func(func(ctx context.Context, question string) (*models.OracleResponse, error) {
		if int(calls.Add(1)) <= failures {
			return nil, err
		}
		return &models.OracleResponse{Scores: models.ScoreVector{Breadth: 0.5, Depth: 0.5}}, nil
	}), calls
}

func TestWithRetry_RecoversFromTransientErrors(t *testing.T) {
	o, calls := flaky(2, errors.New("503"))

	resp, err := WithRetry(o, 3, time.Millisecond).Score(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, 0.5, resp.Scores.Breadth)
	assert.Equal(t, int32(3), calls.Load())
}

func TestWithRetry_GivesUp(t *testing.T) {
	boom := errors.New("503")
	o, calls := flaky(10, boom)

	_, err := WithRetry(o, 3, time.Millisecond).Score(context.Background(), "q")
	require.ErrorIs(t, err, boom)
	assert.Equal(t, int32(3), calls.Load())
}

func TestWithRetry_DoesNotRetryInvalidInput(t *testing.T) {
	o, calls := flaky(10, &models.InvalidInputError{Field: "question", Reason: "empty"})

	_, err := WithRetry(o, 5, time.Millisecond).Score(context.Background(), "")
	var invalid *models.InvalidInputError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, int32(1), calls.Load())
}

func TestWithRetry_KeepsName(t *testing.T) {
	f := NewFixed()
	assert.Equal(t, "mock", NameOf(WithRetry(f, 2, 0)))
	assert.Equal(t, "mock", NameOf(WithTimeout(WithRateLimit(f, NewLimiter(10)), time.Second)))
}

func TestWithTimeout(t *testing.T) {
	slow := Func(func(ctx context.Context, question string) (*models.OracleResponse, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	_, err := WithTimeout(slow, 10*time.Millisecond).Score(context.Background(), "q")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, models.ErrorKindTimeout, models.ClassifyError(err))
}

func TestWithRateLimit_HonorsCancellation(t *testing.T) {
	f := NewFixed().Set("q", 0.1, 0.1)
	limiter := NewLimiter(0.001)
	o := WithRateLimit(f, limiter)

	// First call consumes the burst.
	_, err := o.Score(context.Background(), "q")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = o.Score(ctx, "q")
	require.Error(t, err)
	assert.Equal(t, 1, f.Calls("q"))
}

func TestNewLimiter_Unlimited(t *testing.T) {
	assert.Nil(t, NewLimiter(0))
	f := NewFixed()
	assert.Same(t, f, WithRateLimit(f, nil).(*Fixed))
}

func TestFixed(t *testing.T) {
	f := NewFixed().Set("a", 0.2, 0.8)
	f.Latency = 5 * time.Millisecond
	f.SetError("b", errors.New("down"))

	resp, err := f.Score(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, models.ScoreVector{Breadth: 0.2, Depth: 0.8}, resp.Scores)
	assert.Equal(t, 5*time.Millisecond, resp.Latency)

	_, err = f.Score(context.Background(), "b")
	require.Error(t, err)

	_, err = f.Score(context.Background(), "unknown")
	require.Error(t, err)

	assert.Equal(t, 1, f.Calls("a"))
	assert.Equal(t, 3, f.TotalCalls())
}
