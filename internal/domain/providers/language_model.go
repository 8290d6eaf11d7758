package providers

import (
	"context"
)

// LanguageModel defines the interface for text generation. The model
// guarantees no output schema; callers must parse responses
// defensively.
type LanguageModel interface {
	// Generate returns generated text for a prompt
	Generate(ctx context.Context, prompt string) (string, error)

	// GenerateWithImage returns generated text for a prompt grounded on
	// an image (raw bytes, any common format)
	GenerateWithImage(ctx context.Context, prompt string, image []byte) (string, error)
}
