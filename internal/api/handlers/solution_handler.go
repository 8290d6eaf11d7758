package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/verifix/backend/internal/application/services"
	"github.com/verifix/backend/internal/domain/entities"
)

// solutionManager is the slice of the solution service the REST
// handlers need.
type solutionManager interface {
	Create(ctx context.Context, canonical string, input *services.SolutionInput) (*entities.Solution, []entities.Match, error)
	GetByID(ctx context.Context, id string) (*entities.Solution, error)
	List(ctx context.Context) ([]*entities.Solution, error)
	ListRecent(ctx context.Context, limit int) ([]*entities.Solution, error)
	ListQuestions(ctx context.Context) ([]*entities.Question, error)
	Verify(ctx context.Context, id string) (*entities.Solution, error)
	Delete(ctx context.Context, id string) error
}

// inventoryReader looks up the machine inventory attached to a solution.
type inventoryReader interface {
	GetBySolutionID(ctx context.Context, solutionID string) (*entities.Inventory, error)
}

// documentRequest is the payload of POST /api/solutions.
type documentRequest struct {
	Question string                  `json:"question"`
	Solution *services.SolutionInput `json:"solution"`
}

// SolutionHandler handles CRUD requests for documented solutions.
type SolutionHandler struct {
	normalizer questionNormalizer
	solutions  solutionManager
	inventory  inventoryReader
}

// NewSolutionHandler creates a new solution handler
func NewSolutionHandler(normalizer questionNormalizer, solutions solutionManager, inventory inventoryReader) *SolutionHandler {
	return &SolutionHandler{normalizer: normalizer, solutions: solutions, inventory: inventory}
}

// Create handles POST /api/solutions. A question that already has a
// confidently matching stored solution is rejected with 409 and the
// competing matches so the client can review them.
func (h *SolutionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req documentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	mctx := entities.ManufacturingContext{}
	if req.Solution != nil {
		mctx = req.Solution.Context
	}

	normalized, err := h.normalizer.Normalize(r.Context(), req.Question, mctx, nil)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	solution, matches, err := h.solutions.Create(r.Context(), normalized.Canonical, req.Solution)
	if err != nil {
		if len(matches) > 0 {
			respondWithJSON(w, http.StatusConflict, map[string]interface{}{
				"detail":  "A similar documented solution already exists",
				"matches": matches,
			})
			return
		}
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, solution)
}

// List handles GET /api/solutions
func (h *SolutionHandler) List(w http.ResponseWriter, r *http.Request) {
	solutions, err := h.solutions.List(r.Context())
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, solutions)
}

// ListRecent handles GET /api/solutions/recent
func (h *SolutionHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	solutions, err := h.solutions.ListRecent(r.Context(), limit)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, solutions)
}

// GetByID handles GET /api/solutions/{id}
func (h *SolutionHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	solution, err := h.solutions.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, solution)
}

// Verify handles POST /api/solutions/{id}/verify
func (h *SolutionHandler) Verify(w http.ResponseWriter, r *http.Request) {
	solution, err := h.solutions.Verify(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, solution)
}

// Delete handles DELETE /api/solutions/{id}
func (h *SolutionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.solutions.Delete(r.Context(), r.PathValue("id")); err != nil {
		respondWithAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetInventory handles GET /api/solutions/{id}/inventory
func (h *SolutionHandler) GetInventory(w http.ResponseWriter, r *http.Request) {
	inventory, err := h.inventory.GetBySolutionID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, inventory)
}

// ListQuestions handles GET /api/questions
func (h *SolutionHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.solutions.ListQuestions(r.Context())
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, questions)
}
