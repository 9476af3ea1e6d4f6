package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/smita-2184/llm-eval/internal/model"
	"github.com/smita-2184/llm-eval/internal/service"
)

// AuthHandler handles registration and sign-in endpoints
type AuthHandler struct {
	authSvc *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authSvc *service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Register handles POST /api/register-user
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var form model.RegistrationForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if _, err := h.authSvc.Register(r.Context(), &form); err != nil {
		if errors.Is(err, service.ErrUsernameTaken) {
			writeJSON(w, http.StatusOK, model.RegistrationResult{Success: false, Message: err.Error()})
			return
		}
		writeJSON(w, http.StatusBadRequest, model.RegistrationResult{Success: false, Message: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, model.RegistrationResult{Success: true, Message: "Registration successful"})
}

// CheckUsername handles POST /api/check-username
func (h *AuthHandler) CheckUsername(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	available, err := h.authSvc.CheckUsername(r.Context(), req.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check username")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"exists": !available})
}

// Login handles POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.authSvc.SignIn(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
