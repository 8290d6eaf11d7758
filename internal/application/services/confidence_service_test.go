package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verifix/backend/internal/domain/entities"
)

func scoreWith(t *testing.T, reply string) string {
	t.Helper()
	svc := NewConfidenceService(&stubLLM{generate: func(string) (string, error) {
		return reply, nil
	}})
	score, err := svc.Score(context.Background(), &entities.Solution{Title: "t"})
	require.NoError(t, err)
	return score
}

func TestScoreParsesInteger(t *testing.T) {
	assert.Equal(t, "85", scoreWith(t, " 85 \n"))
}

func TestScoreClampsRange(t *testing.T) {
	assert.Equal(t, "100", scoreWith(t, "140"))
	assert.Equal(t, "0", scoreWith(t, "-5"))
}

func TestScoreDefaultsOnGarbage(t *testing.T) {
	assert.Equal(t, "0", scoreWith(t, "very confident"))
}
