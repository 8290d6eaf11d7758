package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verifix/backend/pkg/config"
)

func newResponsesServer(t *testing.T, text string, capture *map[string]interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/responses", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		if capture != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(capture))
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"output": []map[string]interface{}{
				{
					"content": []map[string]interface{}{
						{"type": "output_text", "text": text},
					},
				},
			},
		})
	}))
}

func TestClientGenerate(t *testing.T) {
	var captured map[string]interface{}
	server := newResponsesServer(t, "  the answer  ", &captured)
	defer server.Close()

	client, err := NewClient(&config.LLMConfig{
		APIKey:  "test-key",
		Model:   "gpt-4o-mini",
		BaseURL: server.URL,
	})
	require.NoError(t, err)

	text, err := client.Generate(context.Background(), "why does the spindle stall?")
	require.NoError(t, err)
	assert.Equal(t, "the answer", text)
	assert.Equal(t, "gpt-4o-mini", captured["model"])
}

func TestClientGenerateWithImage(t *testing.T) {
	var captured map[string]interface{}
	server := newResponsesServer(t, "panel shows E-42", &captured)
	defer server.Close()

	client, err := NewClient(&config.LLMConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
	})
	require.NoError(t, err)

	text, err := client.GenerateWithImage(context.Background(), "describe the fault", []byte{0xFF, 0xD8})
	require.NoError(t, err)
	assert.Equal(t, "panel shows E-42", text)

	input, ok := captured["input"].([]interface{})
	require.True(t, ok)
	require.Len(t, input, 1)
	message := input[0].(map[string]interface{})
	parts := message["content"].([]interface{})
	require.Len(t, parts, 2)
	imagePart := parts[1].(map[string]interface{})
	assert.Equal(t, "input_image", imagePart["type"])
	assert.Contains(t, imagePart["image_url"], "data:image/jpeg;base64,")
}

func TestClientGenerateServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewClient(&config.LLMConfig{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "prompt")
	assert.Error(t, err)
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(&config.LLMConfig{})
	assert.Error(t, err)
}

func TestEmbeddingClientEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Input, 1)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"embedding": []float32{0.1, 0.2, 0.3}},
			},
		})
	}))
	defer server.Close()

	client, err := NewEmbeddingClient(&config.EmbeddingConfig{
		BaseURL:   server.URL,
		Dimension: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, client.Dimension())

	vector, err := client.Embed(context.Background(), "spindle overheats on startup")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vector)
}

func TestEmbeddingClientRetriesTransientFailures(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		if attempts == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"embedding": []float32{0.5, 0.5}},
			},
		})
	}))
	defer server.Close()

	client, err := NewEmbeddingClient(&config.EmbeddingConfig{BaseURL: server.URL, Dimension: 2})
	require.NoError(t, err)

	vector, err := client.Embed(context.Background(), "conveyor belt slips")
	require.NoError(t, err)
	assert.Len(t, vector, 2)
	assert.Equal(t, 2, attempts)
}

func TestEmbeddingClientDimensionMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"embedding": []float32{0.5}},
			},
		})
	}))
	defer server.Close()

	client, err := NewEmbeddingClient(&config.EmbeddingConfig{BaseURL: server.URL, Dimension: 4})
	require.NoError(t, err)

	_, err = client.Embed(context.Background(), "text")
	assert.Error(t, err)
}

func TestEmbeddingClientRejectsEmptyText(t *testing.T) {
	client, err := NewEmbeddingClient(&config.EmbeddingConfig{BaseURL: "http://localhost:9", Dimension: 2})
	require.NoError(t, err)

	_, err = client.Embed(context.Background(), "")
	assert.Error(t, err)
}
