package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/smita-2184/llm-eval/internal/model"
	"github.com/smita-2184/llm-eval/internal/service"
	"github.com/smita-2184/llm-eval/internal/transport/rest/middleware"
)

// EvaluationHandler handles the four append-only evaluation endpoints.
// Payloads are always attributed to the authenticated user.
type EvaluationHandler struct {
	evals *service.EvaluationService
}

// NewEvaluationHandler creates a new evaluation handler
func NewEvaluationHandler(evals *service.EvaluationService) *EvaluationHandler {
	return &EvaluationHandler{evals: evals}
}

type savedResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

// SaveComparison handles POST /api/evaluations/comparison
func (h *EvaluationHandler) SaveComparison(w http.ResponseWriter, r *http.Request) {
	var rating model.ComparisonRating
	if err := json.NewDecoder(r.Body).Decode(&rating); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rating.UserID = middleware.GetUserID(r.Context())

	id, err := h.evals.SaveComparison(r.Context(), &rating)
	if err != nil {
		h.writeSaveError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, savedResponse{Success: true, ID: id})
}

// SaveTestRating handles POST /api/evaluations/test
func (h *EvaluationHandler) SaveTestRating(w http.ResponseWriter, r *http.Request) {
	var rating model.TestRating
	if err := json.NewDecoder(r.Body).Decode(&rating); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rating.UserID = middleware.GetUserID(r.Context())

	id, err := h.evals.SaveTestRating(r.Context(), &rating)
	if err != nil {
		h.writeSaveError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, savedResponse{Success: true, ID: id})
}

// SaveScaleValidation handles POST /api/evaluations/scale-validation
func (h *EvaluationHandler) SaveScaleValidation(w http.ResponseWriter, r *http.Request) {
	var validation model.ScaleValidation
	if err := json.NewDecoder(r.Body).Decode(&validation); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	validation.UserID = middleware.GetUserID(r.Context())

	id, err := h.evals.SaveScaleValidation(r.Context(), &validation)
	if err != nil {
		h.writeSaveError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, savedResponse{Success: true, ID: id})
}

// SaveQuiz handles POST /api/evaluations/quiz
func (h *EvaluationHandler) SaveQuiz(w http.ResponseWriter, r *http.Request) {
	var quiz model.QuizGeneration
	if err := json.NewDecoder(r.Body).Decode(&quiz); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	quiz.UserID = middleware.GetUserID(r.Context())

	id, err := h.evals.SaveQuiz(r.Context(), &quiz)
	if err != nil {
		h.writeSaveError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, savedResponse{Success: true, ID: id})
}

func (h *EvaluationHandler) writeSaveError(w http.ResponseWriter, err error) {
	var invalid *service.ValidationError
	if errors.As(err, &invalid) {
		writeError(w, http.StatusBadRequest, invalid.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, "failed to save evaluation")
}
