package providers

import (
	"context"
)

// QuestionHit is one nearest-neighbor result from the similarity index.
type QuestionHit struct {
	QuestionID string
	Text       string
	SolutionID string
	// Score is the cosine similarity in [0,1], higher is closer.
	Score float64
}

// QuestionIndex defines the similarity index contract: store
// (vector, payload) pairs and retrieve nearest neighbors by cosine
// similarity. The collection must be created with the agreed dimension
// before first use.
type QuestionIndex interface {
	// EnsureCollection creates the collection for the given vector
	// dimension if it does not exist yet
	EnsureCollection(ctx context.Context, dimension int) error

	// Upsert indexes a question embedding with its payload
	Upsert(ctx context.Context, questionID, text, solutionID string, embedding []float32) error

	// Search returns up to k nearest neighbors, best first
	Search(ctx context.Context, embedding []float32, k int) ([]QuestionHit, error)

	// DeleteBySolutionID removes all indexed questions for a solution
	DeleteBySolutionID(ctx context.Context, solutionID string) error
}
