package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/smita-2184/llm-eval/internal/llm"
	"github.com/smita-2184/llm-eval/internal/service"
)

// StreamHandler serves the single-model streaming endpoints
type StreamHandler struct {
	fanout *service.FanoutService
	logger *logrus.Logger
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(fanout *service.FanoutService, logger *logrus.Logger) *StreamHandler {
	return &StreamHandler{fanout: fanout, logger: logger}
}

// StreamGemini handles POST /api/stream/gemini
func (h *StreamHandler) StreamGemini(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, llm.ModelIDGeminiPro)
}

// StreamGroq handles POST /api/stream/groq
func (h *StreamHandler) StreamGroq(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, llm.ModelIDLlama)
}

// StreamMistral handles POST /api/stream/mistral
func (h *StreamHandler) StreamMistral(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, llm.ModelIDMistral)
}

func (h *StreamHandler) stream(w http.ResponseWriter, r *http.Request, modelID string) {
	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	// Credential and input errors must be caught before the 200 header goes
	// out, so deltas only hit the wire after the first token arrives.
	started := false
	err := h.fanout.StreamModel(r.Context(), modelID, req.Question, func(delta string) error {
		if !started {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			started = true
		}
		if _, err := w.Write([]byte(delta)); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		if started {
			h.logger.WithError(err).WithField("model", modelID).Warn("Stream aborted mid-response")
			return
		}
		var missingKey *service.MissingKeyError
		switch {
		case errors.Is(err, service.ErrEmptyQuestion):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.As(err, &missingKey):
			writeError(w, http.StatusBadRequest, missingKey.Message)
		default:
			h.logger.WithError(err).WithField("model", modelID).Warn("Stream failed")
			writeError(w, http.StatusInternalServerError, "failed to stream response")
		}
		return
	}
	if !started {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
	}
}
