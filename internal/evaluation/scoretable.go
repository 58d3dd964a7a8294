package evaluation

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/spboyer/thinkroute/internal/models"
)

// ErrScoreConflict is returned when a question is stored twice with
// different scores.
var ErrScoreConflict = errors.New("conflicting scores for question")

// ScoreTable holds one oracle response per distinct question for the
// length of a run. Writes are idempotent: storing an equal response again
// is a no-op and storing a different one is an error. Reads are safe from
// any goroutine.
type ScoreTable struct {
	mu       sync.RWMutex
	scores   map[string]*models.OracleResponse
	failures map[string]error
}

func NewScoreTable() *ScoreTable {
	return &ScoreTable{
		scores:   map[string]*models.OracleResponse{},
		failures: map[string]error{},
	}
}

// Put records resp for question.
func (t *ScoreTable) Put(question string, resp *models.OracleResponse) error {
	if resp == nil {
		return fmt.Errorf("nil response for %q", question)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.scores[question]; ok {
		if existing.Equal(resp) {
			return nil
		}
		return fmt.Errorf("%w %q", ErrScoreConflict, question)
	}
	t.scores[question] = resp
	delete(t.failures, question)
	return nil
}

// Fail records that scoring question failed. A question that already has
// scores keeps them.
func (t *ScoreTable) Fail(question string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.scores[question]; ok {
		return
	}
	t.failures[question] = err
}

// Get returns the stored response for question.
func (t *ScoreTable) Get(question string) (*models.OracleResponse, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	resp, ok := t.scores[question]
	return resp, ok
}

// Failure returns the recorded scoring error for question, if any.
func (t *ScoreTable) Failure(question string) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.failures[question]
}

// Lookup returns the response for question or the reason there is none.
func (t *ScoreTable) Lookup(question string) (*models.OracleResponse, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if resp, ok := t.scores[question]; ok {
		return resp, nil
	}
	if err, ok := t.failures[question]; ok {
		return nil, err
	}
	return nil, fmt.Errorf("question %q was not scored", question)
}

// Len is the number of scored questions.
func (t *ScoreTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.scores)
}

// Questions returns the scored questions in sorted order.
func (t *ScoreTable) Questions() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.scores))
	for q := range t.scores {
		out = append(out, q)
	}
	sort.Strings(out)
	return out
}
