package services

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verifix/backend/internal/domain/providers"
	"github.com/verifix/backend/pkg/config"
)

func TestFindMatchesFiltersAndSorts(t *testing.T) {
	embedder := &stubEmbedder{vector: []float32{0.1, 0.2, 0.3}}
	index := &stubIndex{hits: []providers.QuestionHit{
		{QuestionID: "q1", Text: "belt slips", SolutionID: "s1", Score: 0.80},
		{QuestionID: "q2", Text: "belt squeals", SolutionID: "s2", Score: 0.60},
		{QuestionID: "q3", Text: "belt slips badly", SolutionID: "s3", Score: 0.92},
	}}
	svc := NewRetrievalService(embedder, index, &config.RetrievalConfig{MatchThreshold: 0.75, TopK: 5})

	matches, err := svc.FindMatches(context.Background(), "conveyor belt slips")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "q3", matches[0].QuestionID)
	assert.Equal(t, "q1", matches[1].QuestionID)
}

func TestFindMatchesNoMatchesBelowThreshold(t *testing.T) {
	embedder := &stubEmbedder{vector: []float32{0.1, 0.2}}
	index := &stubIndex{hits: []providers.QuestionHit{
		{QuestionID: "q1", Score: 0.30},
	}}
	svc := NewRetrievalService(embedder, index, nil)

	matches, err := svc.FindMatches(context.Background(), "question")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFindMatchesDegenerateEmbedding(t *testing.T) {
	cases := map[string][]float32{
		"zero norm": {0, 0, 0},
		"nan":       {float32(math.NaN()), 0.5},
	}

	for name, vector := range cases {
		t.Run(name, func(t *testing.T) {
			embedder := &stubEmbedder{vector: vector}
			index := &stubIndex{hits: []providers.QuestionHit{{QuestionID: "q1", Score: 0.99}}}
			svc := NewRetrievalService(embedder, index, nil)

			matches, err := svc.FindMatches(context.Background(), "question")
			require.NoError(t, err)
			assert.Empty(t, matches)
		})
	}
}

func TestFindMatchesIndexFailureIsAnError(t *testing.T) {
	embedder := &stubEmbedder{vector: []float32{0.5}}
	index := &stubIndex{searchErr: errors.New("index down")}
	svc := NewRetrievalService(embedder, index, nil)

	_, err := svc.FindMatches(context.Background(), "question")
	assert.Error(t, err)
}

func TestFindMatchesEmbedderFailureIsAnError(t *testing.T) {
	embedder := &stubEmbedder{err: errors.New("embedder down")}
	svc := NewRetrievalService(embedder, &stubIndex{}, nil)

	_, err := svc.FindMatches(context.Background(), "question")
	assert.Error(t, err)
}

func TestFindMatchesRejectsEmptyQuestion(t *testing.T) {
	svc := NewRetrievalService(&stubEmbedder{vector: []float32{1}}, &stubIndex{}, nil)

	_, err := svc.FindMatches(context.Background(), "")
	assert.Error(t, err)
}

func TestRetrievalDefaults(t *testing.T) {
	svc := NewRetrievalService(&stubEmbedder{}, &stubIndex{}, nil)
	assert.InDelta(t, 0.75, svc.Threshold(), 0.0001)
}
