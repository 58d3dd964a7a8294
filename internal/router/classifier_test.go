package router

import (
	"context"
	"testing"

	"github.com/spboyer/thinkroute/internal/models"
	"github.com/spboyer/thinkroute/internal/oracle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		guess models.Mode
		want  models.Mode
	}{
		{models.ModeDirect, models.ModeDirect},
		{models.ModeTOT, models.ModeTOT},
		{models.ModeCombined, models.ModeCombined},
		{models.ModeUnknown, models.ModeCOT},
		{models.ModeMultiStrategy, models.ModeCOT},
		{"", models.ModeCOT},
	}
	for _, tt := range tests {
		t.Run(string(tt.guess), func(t *testing.T) {
			got, _ := Classify(&models.OracleResponse{ModeGuess: tt.guess})
			assert.Equal(t, tt.want, got)
		})
	}

	got, _ := Classify(nil)
	assert.Equal(t, models.ModeCOT, got)
}

func TestClassifier_Select(t *testing.T) {
	conf := 0.55
	f := oracle.NewFixed().
		SetResponse("What is 2+2?", models.OracleResponse{ModeGuess: models.ModeDirect, Confidence: &conf}).
		Set("unscored guess", 0.2, 0.2)

	c := NewClassifier(f)

	mode, confidence, err := c.Select(context.Background(), "What is 2+2?")
	require.NoError(t, err)
	assert.Equal(t, models.ModeDirect, mode)
	assert.Equal(t, 0.55, confidence)

	mode, confidence, err = c.Select(context.Background(), "unscored guess")
	require.NoError(t, err)
	assert.Equal(t, models.ModeCOT, mode)
	assert.Equal(t, DefaultConfidence, confidence)

	_, _, err = c.Select(context.Background(), "")
	var invalid *models.InvalidInputError
	require.ErrorAs(t, err, &invalid)
}
