package evaluation

import (
	"errors"
	"sync"
	"testing"

	"github.com/spboyer/thinkroute/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreTable_IdempotentPut(t *testing.T) {
	table := NewScoreTable()
	resp := &models.OracleResponse{Scores: models.ScoreVector{Breadth: 0.4, Depth: 0.6}}

	require.NoError(t, table.Put("q", resp))
	require.NoError(t, table.Put("q", &models.OracleResponse{Scores: models.ScoreVector{Breadth: 0.4, Depth: 0.6}, Latency: 99}),
		"equal scores with a different latency are the same write")

	err := table.Put("q", &models.OracleResponse{Scores: models.ScoreVector{Breadth: 0.5, Depth: 0.6}})
	require.ErrorIs(t, err, ErrScoreConflict)

	got, ok := table.Get("q")
	require.True(t, ok)
	assert.Same(t, resp, got)
	assert.Equal(t, 1, table.Len())
}

func TestScoreTable_Failures(t *testing.T) {
	table := NewScoreTable()
	boom := errors.New("boom")

	table.Fail("bad", boom)
	_, err := table.Lookup("bad")
	require.ErrorIs(t, err, boom)
	assert.Equal(t, boom, table.Failure("bad"))

	_, err = table.Lookup("never")
	require.Error(t, err)

	// A later success replaces the failure; a later failure does not
	// replace a success.
	require.NoError(t, table.Put("bad", &models.OracleResponse{}))
	assert.NoError(t, table.Failure("bad"))
	table.Fail("bad", boom)
	_, err = table.Lookup("bad")
	require.NoError(t, err)

	require.Error(t, table.Put("nil", nil))
}

func TestScoreTable_ConcurrentWrites(t *testing.T) {
	table := NewScoreTable()
	resp := models.OracleResponse{Scores: models.ScoreVector{Breadth: 0.1, Depth: 0.2}}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := resp
			assert.NoError(t, table.Put("q", &r))
			_, _ = table.Get("q")
		}()
	}
	wg.Wait()

	assert.Equal(t, []string{"q"}, table.Questions())
}

func TestSummarize_NoEvaluatedExamples(t *testing.T) {
	outcomes := []ExampleOutcome{
		{Example: models.LabeledExample{ID: "a", ExpectedMode: models.ModeCOT}, Err: errors.New("x")},
	}
	res := Summarize(models.ThresholdConfig{Breadth: 0.5, Depth: 0.5}, outcomes, DefaultCI)

	assert.Equal(t, 0.0, res.Accuracy)
	assert.Equal(t, 1, res.SkippedCount())
	assert.Zero(t, res.Evaluated())
	assert.Nil(t, res.AccuracyCI)
}
