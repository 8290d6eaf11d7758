package providers

import (
	"context"
)

// Embedder maps text to a fixed-length dense vector. Deterministic for
// a given model version: same text yields the same vector.
type Embedder interface {
	// Embed returns the embedding vector for a text
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the configured vector dimensionality
	Dimension() int
}
