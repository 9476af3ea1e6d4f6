package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/smita-2184/llm-eval/internal/credentials"
	"github.com/smita-2184/llm-eval/internal/llm"
	"github.com/smita-2184/llm-eval/internal/model"
)

const (
	pdfMimeType = "application/pdf"

	// Gemini's inline-data ceiling.
	maxInlineDocumentBytes = 20 << 20
)

var (
	// ErrNotPDF rejects uploads with any other content type.
	ErrNotPDF = errors.New("Only PDF files are supported")

	// ErrGeminiKeyMissing marks an unusable Google credential; handlers map
	// it to 400.
	ErrGeminiKeyMissing = errors.New("Google Gemini API key is missing or invalid")
)

// Generation settings for document-grounded answers, where determinism beats
// creativity.
var documentGenerationConfig = llm.GenerationConfig{
	Temperature:     0.2,
	TopP:            0.95,
	TopK:            40,
	MaxOutputTokens: 8192,
}

// geminiModel is the content-level slice of the Google adapter the document
// chat needs.
type geminiModel interface {
	GenerateContents(ctx context.Context, contents []llm.GeminiContent, cfg *llm.GenerationConfig, systemInstruction, key string) (string, error)
	StreamContents(ctx context.Context, contents []llm.GeminiContent, cfg *llm.GenerationConfig, systemInstruction, key string, fn llm.StreamFunc) error
}

// DocumentService is the stateless document chat session. The client keeps
// the part and the turn history between requests, so any instance can serve
// any turn.
type DocumentService struct {
	gemini geminiModel
	creds  *credentials.Store
	client *http.Client
	logger *logrus.Logger
}

func NewDocumentService(gemini *llm.GoogleAdapter, creds *credentials.Store, logger *logrus.Logger) *DocumentService {
	return &DocumentService{
		gemini: gemini,
		creds:  creds,
		client: &http.Client{Timeout: 60 * time.Second},
		logger: logger,
	}
}

func (s *DocumentService) key(ctx context.Context) (string, error) {
	keys, validity := s.creds.Load(ctx)
	if !validity[credentials.ProviderGoogle] || keys.Get(credentials.ProviderGoogle) == "" {
		return "", ErrGeminiKeyMissing
	}
	return keys.Get(credentials.ProviderGoogle), nil
}

// OpenURL fetches a remote PDF and wraps it as an inline-data part for the
// client to re-present on every turn.
func (s *DocumentService) OpenURL(ctx context.Context, url string) (*model.DocumentPart, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch PDF: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch PDF: %s", resp.Status)
	}

	return s.encodePart(resp.Body)
}

// OpenUpload wraps an uploaded PDF. The declared content type must be
// application/pdf.
func (s *DocumentService) OpenUpload(_ context.Context, r io.Reader, contentType string) (*model.DocumentPart, error) {
	if contentType != pdfMimeType {
		return nil, ErrNotPDF
	}
	return s.encodePart(r)
}

func (s *DocumentService) encodePart(r io.Reader) (*model.DocumentPart, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxInlineDocumentBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxInlineDocumentBytes {
		return nil, fmt.Errorf("document exceeds the %d MB inline limit", maxInlineDocumentBytes>>20)
	}
	if len(data) == 0 {
		return nil, errors.New("document is empty")
	}

	return &model.DocumentPart{
		InlineData: model.InlineData{
			Data:     base64.StdEncoding.EncodeToString(data),
			MimeType: pdfMimeType,
		},
	}, nil
}

// Analyze answers a one-shot question about a remote PDF.
func (s *DocumentService) Analyze(ctx context.Context, url, question string) (string, error) {
	key, err := s.key(ctx)
	if err != nil {
		return "", err
	}
	part, err := s.OpenURL(ctx, url)
	if err != nil {
		return "", err
	}
	if question == "" {
		question = "Summarize this document"
	}

	contents := []llm.GeminiContent{{
		Role: "user",
		Parts: []llm.GeminiPart{
			{InlineData: &part.InlineData},
			{Text: question},
		},
	}}
	return s.gemini.GenerateContents(ctx, contents, nil, "", key)
}

// Ask answers one turn of a document chat.
func (s *DocumentService) Ask(ctx context.Context, part *model.DocumentPart, turns []model.DocumentChatTurn, question string) (string, error) {
	key, err := s.key(ctx)
	if err != nil {
		return "", err
	}
	return s.gemini.GenerateContents(ctx, buildChatContents(part, turns, question), &documentGenerationConfig, "", key)
}

// AskStream streams one turn of a document chat as text deltas.
func (s *DocumentService) AskStream(ctx context.Context, part *model.DocumentPart, turns []model.DocumentChatTurn, question string, fn llm.StreamFunc) error {
	key, err := s.key(ctx)
	if err != nil {
		return err
	}
	return s.gemini.StreamContents(ctx, buildChatContents(part, turns, question), &documentGenerationConfig, "", key, fn)
}

// buildChatContents rebuilds the provider conversation from the client-held
// history. A first turn (or a history holding only the initial greeting)
// starts fresh; otherwise the history keeps only the user turns. The part is
// re-sent with every question.
func buildChatContents(part *model.DocumentPart, turns []model.DocumentChatTurn, question string) []llm.GeminiContent {
	var contents []llm.GeminiContent
	if len(turns) > 1 {
		for _, turn := range turns {
			if turn.Role != "user" {
				continue
			}
			contents = append(contents, llm.GeminiContent{
				Role:  "user",
				Parts: []llm.GeminiPart{{Text: turn.Content}},
			})
		}
	}
	return append(contents, llm.GeminiContent{
		Role: "user",
		Parts: []llm.GeminiPart{
			{InlineData: &part.InlineData},
			{Text: question},
		},
	})
}
