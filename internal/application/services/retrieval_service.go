package services

import (
	"context"
	"math"
	"sort"

	"github.com/verifix/backend/internal/domain/entities"
	"github.com/verifix/backend/internal/domain/providers"
	"github.com/verifix/backend/pkg/config"
	apperrors "github.com/verifix/backend/pkg/errors"
)

// RetrievalService finds stored questions semantically close to a
// canonical question. An empty result means "no confident match", which
// is a distinct outcome from a retrieval failure.
type RetrievalService struct {
	embedder  providers.Embedder
	index     providers.QuestionIndex
	threshold float64
	topK      int
}

// NewRetrievalService creates a new retrieval service
func NewRetrievalService(embedder providers.Embedder, index providers.QuestionIndex, cfg *config.RetrievalConfig) *RetrievalService {
	threshold := 0.75
	topK := 5
	if cfg != nil {
		if cfg.MatchThreshold > 0 {
			threshold = cfg.MatchThreshold
		}
		if cfg.TopK > 0 {
			topK = cfg.TopK
		}
	}

	return &RetrievalService{
		embedder:  embedder,
		index:     index,
		threshold: threshold,
		topK:      topK,
	}
}

// FindMatches embeds the canonical question, searches the index and
// returns matches at or above the similarity threshold, best first.
// A degenerate embedding (NaN or zero norm) yields no matches rather
// than spurious ones.
func (s *RetrievalService) FindMatches(ctx context.Context, canonical string) ([]entities.Match, error) {
	if canonical == "" {
		return nil, apperrors.NewValidationError("question must not be empty", nil)
	}

	embedding, err := s.embedder.Embed(ctx, canonical)
	if err != nil {
		return nil, err
	}

	if !usableEmbedding(embedding) {
		return []entities.Match{}, nil
	}

	hits, err := s.index.Search(ctx, embedding, s.topK)
	if err != nil {
		return nil, err
	}

	matches := []entities.Match{}
	for _, hit := range hits {
		if hit.Score < s.threshold || math.IsNaN(hit.Score) {
			continue
		}
		matches = append(matches, entities.Match{
			QuestionID: hit.QuestionID,
			Text:       hit.Text,
			SolutionID: hit.SolutionID,
			Score:      hit.Score,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	return matches, nil
}

// Threshold returns the configured similarity cutoff.
func (s *RetrievalService) Threshold() float64 {
	return s.threshold
}

func usableEmbedding(embedding []float32) bool {
	norm := 0.0
	for _, v := range embedding {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
		norm += f * f
	}
	return norm > 0
}
