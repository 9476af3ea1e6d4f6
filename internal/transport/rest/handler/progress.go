package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/smita-2184/llm-eval/internal/service"
	"github.com/smita-2184/llm-eval/internal/transport/rest/middleware"
)

// ProgressHandler serves derived curriculum progress
type ProgressHandler struct {
	progress *service.ProgressService
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(progress *service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progress: progress}
}

// Get handles GET /api/progress/{userId}. Users can only read their own
// progress.
func (h *ProgressHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}
	if userID != middleware.GetUserID(r.Context()) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	writeJSON(w, http.StatusOK, h.progress.Snapshot(r.Context(), userID))
}
