package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/smita-2184/llm-eval/internal/model"
	"github.com/smita-2184/llm-eval/internal/service"
)

// DocumentHandler handles the PDF analysis and document chat endpoints
type DocumentHandler struct {
	docs   *service.DocumentService
	logger *logrus.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(docs *service.DocumentService, logger *logrus.Logger) *DocumentHandler {
	return &DocumentHandler{docs: docs, logger: logger}
}

type documentChatRequest struct {
	DocumentPart *model.DocumentPart      `json:"documentPart"`
	Messages     []model.DocumentChatTurn `json:"messages"`
	Question     string                   `json:"question"`
}

// Analyze handles POST /api/analyze-document
func (h *DocumentHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL      string `json:"url"`
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	text, err := h.docs.Analyze(r.Context(), req.URL, req.Question)
	if err != nil {
		h.logger.WithError(err).Warn("Document analysis failed")
		h.writeDocumentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.DocumentAnalysisResult{Text: text})
}

// StartChat handles POST /api/start-document-chat
func (h *DocumentHandler) StartChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	part, err := h.docs.OpenURL(r.Context(), req.URL)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to open document")
		h.writeDocumentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, part)
}

// Upload handles POST /api/upload-document (multipart form, field "file")
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	part, err := h.docs.OpenUpload(r.Context(), file, header.Header.Get("Content-Type"))
	if err != nil {
		if errors.Is(err, service.ErrNotPDF) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.WithError(err).Warn("Document upload failed")
		writeError(w, http.StatusInternalServerError, "failed to process document")
		return
	}
	writeJSON(w, http.StatusOK, part)
}

// ContinueChat handles POST /api/continue-document-chat
func (h *DocumentHandler) ContinueChat(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeChatRequest(w, r)
	if !ok {
		return
	}

	text, err := h.docs.Ask(r.Context(), req.DocumentPart, req.Messages, req.Question)
	if err != nil {
		h.logger.WithError(err).Warn("Document chat turn failed")
		h.writeDocumentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.DocumentAnalysisResult{Text: text})
}

// StreamChat handles POST /api/stream-document-chat
func (h *DocumentHandler) StreamChat(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeChatRequest(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	started := false
	err := h.docs.AskStream(r.Context(), req.DocumentPart, req.Messages, req.Question, func(delta string) error {
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
			h.logger.WithError(err).Warn("Document stream aborted mid-response")
			return
		}
		h.logger.WithError(err).Warn("Document stream failed")
		h.writeDocumentError(w, err)
		return
	}
	if !started {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
	}
}

func (h *DocumentHandler) decodeChatRequest(w http.ResponseWriter, r *http.Request) (*documentChatRequest, bool) {
	var req documentChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	if req.DocumentPart == nil || req.DocumentPart.InlineData.Data == "" {
		writeError(w, http.StatusBadRequest, "documentPart is required")
		return nil, false
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return nil, false
	}
	return &req, true
}

func (h *DocumentHandler) writeDocumentError(w http.ResponseWriter, err error) {
	if errors.Is(err, service.ErrGeminiKeyMissing) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
