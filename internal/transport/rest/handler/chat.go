package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/smita-2184/llm-eval/internal/service"
)

// ChatHandler handles the multi-model question endpoints
type ChatHandler struct {
	fanout *service.FanoutService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(fanout *service.FanoutService) *ChatHandler {
	return &ChatHandler{fanout: fanout}
}

type questionRequest struct {
	Question string `json:"question"`
}

// GenerateResponses handles POST /api/generate-responses. Per-model provider
// failures are carried inside the reply map; the endpoint itself only fails
// on bad input.
func (h *ChatHandler) GenerateResponses(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.fanout.GenerateResponses(r.Context(), req.Question)
	if err != nil {
		if errors.Is(err, service.ErrEmptyQuestion) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to generate responses")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
