package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/verifix/backend/pkg/config"
	apperrors "github.com/verifix/backend/pkg/errors"
)

const embedderMaxRetries = 3

// EmbeddingClient implements the embedder provider against an
// OpenAI-compatible embeddings endpoint.
type EmbeddingClient struct {
	apiKey     string
	model      string
	baseURL    string
	dimension  int
	httpClient *http.Client
}

// NewEmbeddingClient creates a new embedding client.
func NewEmbeddingClient(cfg *config.EmbeddingConfig) (*EmbeddingClient, error) {
	if cfg == nil || cfg.BaseURL == "" {
		return nil, errors.New("embedding base url is required")
	}
	if cfg.Dimension <= 0 {
		return nil, errors.New("embedding dimension must be positive")
	}

	model := cfg.Model
	if model == "" {
		model = "all-MiniLM-L6-v2"
	}

	return &EmbeddingClient{
		apiKey:    cfg.APIKey,
		model:     model,
		baseURL:   cfg.BaseURL,
		dimension: cfg.Dimension,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Dimension returns the vector size this client produces.
func (c *EmbeddingClient) Dimension() int {
	return c.dimension
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed returns the embedding vector for a piece of text. Transient
// failures (429 and 5xx) are retried with backoff, honoring
// Retry-After when the server sends one.
func (c *EmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, apperrors.NewValidationError("text to embed must not be empty", nil)
	}

	body, err := json.Marshal(embeddingRequest{
		Model: c.model,
		Input: []string{text},
	})
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < embedderMaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * 500 * time.Millisecond
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		embedding, retryAfter, err := c.doEmbed(ctx, body)
		if err == nil {
			return embedding, nil
		}
		lastErr = err

		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Type != apperrors.ErrorTypeExternal {
			return nil, err
		}
		if retryAfter > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryAfter):
			}
		}
	}

	return nil, lastErr
}

func (c *EmbeddingClient) doEmbed(ctx context.Context, body []byte) ([]float32, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, apperrors.NewExternalError("embedding request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, retryAfter, apperrors.NewExternalError(
			fmt.Sprintf("embedding request failed with status %d", resp.StatusCode), nil)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, 0, apperrors.NewValidationError(
			fmt.Sprintf("embedding request rejected with status %d", resp.StatusCode), nil)
	}

	var decoded embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, 0, apperrors.NewExternalError("failed to decode embedding response", err)
	}
	if len(decoded.Data) == 0 {
		return nil, 0, apperrors.NewExternalError("embedding response contained no vectors", nil)
	}

	embedding := decoded.Data[0].Embedding
	if len(embedding) != c.dimension {
		return nil, 0, apperrors.NewExternalError(
			fmt.Sprintf("embedding dimension mismatch: expected %d, got %d", c.dimension, len(embedding)), nil)
	}

	return embedding, 0, nil
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return 0
}
