package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/smita-2184/llm-eval/internal/llm"
	"github.com/smita-2184/llm-eval/internal/model"
)

type stubGemini struct {
	lastContents []llm.GeminiContent
	lastConfig   *llm.GenerationConfig
	reply        string
	deltas       []string
}

func (g *stubGemini) GenerateContents(ctx context.Context, contents []llm.GeminiContent, cfg *llm.GenerationConfig, systemInstruction, key string) (string, error) {
	g.lastContents = contents
	g.lastConfig = cfg
	return g.reply, nil
}

func (g *stubGemini) StreamContents(ctx context.Context, contents []llm.GeminiContent, cfg *llm.GenerationConfig, systemInstruction, key string, fn llm.StreamFunc) error {
	g.lastContents = contents
	g.lastConfig = cfg
	for _, delta := range g.deltas {
		if err := fn(delta); err != nil {
			return err
		}
	}
	return nil
}

func newTestDocumentService(gemini geminiModel) *DocumentService {
	return &DocumentService{
		gemini: gemini,
		creds:  newCredStore(map[string]interface{}{"google-key": "AIzaSyAbcdefghijklmnopqrs"}),
		client: &http.Client{Timeout: 5 * time.Second},
		logger: testLogger(),
	}
}

func pdfPart() *model.DocumentPart {
	return &model.DocumentPart{InlineData: model.InlineData{
		Data:     base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 fake")),
		MimeType: "application/pdf",
	}}
}

func TestOpenURLEncodesDocument(t *testing.T) {
	payload := []byte("%PDF-1.4 content")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	svc := newTestDocumentService(&stubGemini{})
	part, err := svc.OpenURL(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("OpenURL returned error: %v", err)
	}
	if part.InlineData.MimeType != "application/pdf" {
		t.Fatalf("unexpected mime type %q", part.InlineData.MimeType)
	}
	decoded, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
	if err != nil || string(decoded) != string(payload) {
		t.Fatalf("document bytes did not round-trip: %v %q", err, decoded)
	}
}

func TestOpenURLRejectsNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	svc := newTestDocumentService(&stubGemini{})
	_, err := svc.OpenURL(context.Background(), srv.URL)
	if err == nil || !strings.Contains(err.Error(), "failed to fetch PDF") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestOpenUploadRejectsNonPDF(t *testing.T) {
	svc := newTestDocumentService(&stubGemini{})
	_, err := svc.OpenUpload(context.Background(), strings.NewReader("hello"), "text/plain")
	if err != ErrNotPDF {
		t.Fatalf("got %v, want ErrNotPDF", err)
	}
}

func TestAskFirstTurnStartsFresh(t *testing.T) {
	gemini := &stubGemini{reply: "answer"}
	svc := newTestDocumentService(gemini)

	// A single greeting turn does not count as history.
	turns := []model.DocumentChatTurn{{Role: "assistant", Content: "Hello! Ask me about the document."}}
	if _, err := svc.Ask(context.Background(), pdfPart(), turns, "What is chapter 1 about?"); err != nil {
		t.Fatalf("Ask returned error: %v", err)
	}

	if len(gemini.lastContents) != 1 {
		t.Fatalf("fresh session must send exactly one content entry, got %d", len(gemini.lastContents))
	}
	parts := gemini.lastContents[0].Parts
	if len(parts) != 2 || parts[0].InlineData == nil || parts[1].Text != "What is chapter 1 about?" {
		t.Fatalf("unexpected parts %+v", parts)
	}
}

func TestAskKeepsOnlyUserTurns(t *testing.T) {
	gemini := &stubGemini{reply: "answer"}
	svc := newTestDocumentService(gemini)

	turns := []model.DocumentChatTurn{
		{Role: "assistant", Content: "Hello!"},
		{Role: "user", Content: "First question"},
		{Role: "assistant", Content: "First answer"},
		{Role: "user", Content: "Second question"},
	}
	if _, err := svc.Ask(context.Background(), pdfPart(), turns, "Third question"); err != nil {
		t.Fatalf("Ask returned error: %v", err)
	}

	// Two history user turns plus the current question entry.
	if len(gemini.lastContents) != 3 {
		t.Fatalf("expected 3 content entries, got %d", len(gemini.lastContents))
	}
	if gemini.lastContents[0].Parts[0].Text != "First question" || gemini.lastContents[1].Parts[0].Text != "Second question" {
		t.Fatalf("history turns wrong: %+v", gemini.lastContents)
	}
	for i, content := range gemini.lastContents {
		if content.Role != "user" {
			t.Fatalf("entry %d has role %q, assistant turns must be dropped", i, content.Role)
		}
	}
	last := gemini.lastContents[2].Parts
	if last[0].InlineData == nil || last[1].Text != "Third question" {
		t.Fatalf("document must be re-sent with the current question: %+v", last)
	}
}

func TestAskUsesDocumentGenerationConfig(t *testing.T) {
	gemini := &stubGemini{reply: "answer"}
	svc := newTestDocumentService(gemini)

	if _, err := svc.Ask(context.Background(), pdfPart(), nil, "q"); err != nil {
		t.Fatalf("Ask returned error: %v", err)
	}

	cfg := gemini.lastConfig
	if cfg == nil {
		t.Fatal("generation config not forwarded")
	}
	if cfg.Temperature != 0.2 || cfg.TopP != 0.95 || cfg.TopK != 40 || cfg.MaxOutputTokens != 8192 {
		t.Fatalf("unexpected generation config %+v", cfg)
	}
}

func TestAskStreamDeliversDeltas(t *testing.T) {
	gemini := &stubGemini{deltas: []string{"The ", "answer"}}
	svc := newTestDocumentService(gemini)

	var got strings.Builder
	err := svc.AskStream(context.Background(), pdfPart(), nil, "q", func(delta string) error {
		got.WriteString(delta)
		return nil
	})
	if err != nil {
		t.Fatalf("AskStream returned error: %v", err)
	}
	if got.String() != "The answer" {
		t.Fatalf("unexpected deltas %q", got.String())
	}
}

func TestDocumentChatRequiresGoogleKey(t *testing.T) {
	svc := &DocumentService{
		gemini: &stubGemini{},
		creds:  newCredStore(map[string]interface{}{}),
		client: &http.Client{},
		logger: testLogger(),
	}

	if _, err := svc.Ask(context.Background(), pdfPart(), nil, "q"); err != ErrGeminiKeyMissing {
		t.Fatalf("got %v, want ErrGeminiKeyMissing", err)
	}
	if err := svc.AskStream(context.Background(), pdfPart(), nil, "q", func(string) error { return nil }); err != ErrGeminiKeyMissing {
		t.Fatalf("got %v, want ErrGeminiKeyMissing", err)
	}
}

func TestAnalyzeDefaultsQuestion(t *testing.T) {
	payload := []byte("%PDF-1.4 report")
	docSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer docSrv.Close()

	gemini := &stubGemini{reply: "A summary."}
	svc := newTestDocumentService(gemini)

	text, err := svc.Analyze(context.Background(), docSrv.URL, "")
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if text != "A summary." {
		t.Fatalf("unexpected text %q", text)
	}

	parts := gemini.lastContents[0].Parts
	if parts[1].Text != "Summarize this document" {
		t.Fatalf("empty question must default, got %q", parts[1].Text)
	}
	if fmt.Sprint(gemini.lastConfig) != "<nil>" {
		t.Fatalf("analysis uses provider defaults, got %+v", gemini.lastConfig)
	}
}
