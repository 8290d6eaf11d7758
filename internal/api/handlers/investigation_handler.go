package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/verifix/backend/internal/application/services"
	"github.com/verifix/backend/internal/domain/entities"
)

// investigationStarter kicks off the async research pipeline for a
// normalized question.
type investigationStarter interface {
	Start(ctx context.Context, normalized *services.NormalizedQuestion) (*entities.Solution, error)
}

// InvestigationHandler handles requests to research undocumented problems.
type InvestigationHandler struct {
	normalizer     questionNormalizer
	investigations investigationStarter
}

// NewInvestigationHandler creates a new investigation handler
func NewInvestigationHandler(normalizer questionNormalizer, investigations investigationStarter) *InvestigationHandler {
	return &InvestigationHandler{normalizer: normalizer, investigations: investigations}
}

// Investigate handles POST /api/investigate. The pipeline runs in the
// background; clients follow progress over the solution's status stream.
func (h *InvestigationHandler) Investigate(w http.ResponseWriter, r *http.Request) {
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

	solution, err := h.investigations.Start(r.Context(), normalized)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusAccepted, map[string]interface{}{
		"message": "Investigation started",
		"solution": map[string]string{
			"id": solution.ID,
		},
	})
}
