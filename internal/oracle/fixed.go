package oracle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spboyer/thinkroute/internal/models"
)

// Fixed is a deterministic oracle that answers from a table. It counts
// calls per question so tests can check caching.
type Fixed struct {
	// Latency is reported on every response.
	Latency time.Duration

	mu        sync.Mutex
	responses map[string]models.OracleResponse
	errs      map[string]error
	calls     map[string]int
}

func NewFixed() *Fixed {
	return &Fixed{
		responses: map[string]models.OracleResponse{},
		errs:      map[string]error{},
		calls:     map[string]int{},
	}
}

// Set scripts breadth and depth for question.
func (f *Fixed) Set(question string, breadth, depth float64) *Fixed {
	return f.SetResponse(question, models.OracleResponse{
		Scores:    models.ScoreVector{Breadth: breadth, Depth: depth},
		ModeGuess: models.ModeUnknown,
	})
}

// SetResponse scripts a full response for question.
func (f *Fixed) SetResponse(question string, resp models.OracleResponse) *Fixed {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[question] = resp
	delete(f.errs, question)
	return f
}

// SetError makes every call for question fail with err.
func (f *Fixed) SetError(question string, err error) *Fixed {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[question] = err
	return f
}

// Calls returns how many times question was scored.
func (f *Fixed) Calls(question string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[question]
}

// TotalCalls returns the number of Score calls across all questions.
func (f *Fixed) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

// Name implements [Named].
func (f *Fixed) Name() string {
	return string(BackendMock)
}

// Score implements [Oracle].
func (f *Fixed) Score(ctx context.Context, question string) (*models.OracleResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[question]++

	if err, ok := f.errs[question]; ok {
		return nil, err
	}
	resp, ok := f.responses[question]
	if !ok {
		return nil, fmt.Errorf("fixed oracle has no response for %q", question)
	}
	resp.Latency = f.Latency
	return &resp, nil
}
