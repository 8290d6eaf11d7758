package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/verifix/backend/internal/application/services"
	"github.com/verifix/backend/internal/domain/entities"
)

// questionNormalizer turns raw technician input into one canonical question.
type questionNormalizer interface {
	Normalize(ctx context.Context, question string, mctx entities.ManufacturingContext, image []byte) (*services.NormalizedQuestion, error)
}

// matchRetriever finds stored questions similar to a canonical question.
type matchRetriever interface {
	FindMatches(ctx context.Context, canonical string) ([]entities.Match, error)
}

// askRequest is the shared payload of /api/ask and /api/investigate.
type askRequest struct {
	Question  string                         `json:"question"`
	Context   *entities.ManufacturingContext `json:"context,omitempty"`
	ImageData string                         `json:"image_data,omitempty"`
}

func (req *askRequest) manufacturingContext() entities.ManufacturingContext {
	if req.Context == nil {
		return entities.ManufacturingContext{}
	}
	return *req.Context
}

// image decodes the optional base64 image payload, tolerating a data
// URL prefix from browser clients.
func (req *askRequest) image() ([]byte, error) {
	if req.ImageData == "" {
		return nil, nil
	}
	payload := req.ImageData
	if idx := strings.Index(payload, ";base64,"); idx >= 0 {
		payload = payload[idx+len(";base64,"):]
	}
	return base64.StdEncoding.DecodeString(payload)
}

// AskHandler handles question lookups against the stored corpus.
type AskHandler struct {
	normalizer questionNormalizer
	retriever  matchRetriever
}

// NewAskHandler creates a new ask handler
func NewAskHandler(normalizer questionNormalizer, retriever matchRetriever) *AskHandler {
	return &AskHandler{normalizer: normalizer, retriever: retriever}
}

// Ask handles POST /api/ask. A question with no confident match is a
// 404, distinct from a retrieval failure which surfaces as a 5xx.
func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	image, err := req.image()
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid image data")
		return
	}

	normalized, err := h.normalizer.Normalize(r.Context(), req.Question, req.manufacturingContext(), image)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	matches, err := h.retriever.FindMatches(r.Context(), normalized.Canonical)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	if len(matches) == 0 {
		respondWithJSON(w, http.StatusNotFound, map[string]string{
			"detail": "No verified solutions found. Please document your fix.",
		})
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"matches": matches,
	})
}
