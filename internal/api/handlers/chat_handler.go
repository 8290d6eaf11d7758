package handlers

import (
	"context"
	"encoding/json"
	"net/http"
)

// corpusChatter answers free-form questions over the stored solution
// corpus.
type corpusChatter interface {
	Chat(ctx context.Context, question string) (string, error)
}

// ChatHandler handles conversational queries over stored solutions.
type ChatHandler struct {
	chat corpusChatter
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chat corpusChatter) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// Chat handles POST /api/chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	answer, err := h.chat.Chat(r.Context(), req.Question)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": answer})
}
