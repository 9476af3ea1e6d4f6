package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/smita-2184/llm-eval/internal/config"
	"github.com/smita-2184/llm-eval/internal/metrics"
	"github.com/smita-2184/llm-eval/internal/model"
)

// GeminiPart is one part of a Gemini content entry: either text or inline
// document data.
type GeminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *model.InlineData `json:"inlineData,omitempty"`
}

// GeminiContent is one turn of a Gemini conversation.
type GeminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []GeminiPart `json:"parts"`
}

// GenerationConfig mirrors Gemini's generationConfig block. Zero values are
// omitted so an empty config defers to provider defaults.
type GenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	TopP            float64 `json:"topP,omitempty"`
	TopK            int     `json:"topK,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

// googleAdapter speaks Gemini's generateContent REST dialect: key in the
// query string, contents/parts bodies, candidates in the response, and an
// alt=sse variant for streaming.
type googleAdapter struct {
	modelID   string
	name      string
	baseURL   string
	wireModel string
	decorate  func(string) string
	timeout   time.Duration
	client    *http.Client
	logger    *logrus.Logger
}

// NewGoogleAdapter builds a standalone Gemini adapter. The document chat
// subsystem uses its own instance pointed at the multimodal flash model.
func NewGoogleAdapter(cfg *config.ProvidersConfig, modelID, name, wireModel string, logger *logrus.Logger) *GoogleAdapter {
	return &GoogleAdapter{googleAdapter{
		modelID:   modelID,
		name:      name,
		baseURL:   cfg.GoogleBaseURL,
		wireModel: wireModel,
		timeout:   cfg.RequestTimeout,
		client:    &http.Client{},
		logger:    logger,
	}}
}

// GoogleAdapter exposes the content-level Gemini calls the document chat
// session needs on top of the uniform Adapter contract.
type GoogleAdapter struct {
	googleAdapter
}

func (a *googleAdapter) ModelID() string  { return a.modelID }
func (a *googleAdapter) Name() string     { return a.name }
func (a *googleAdapter) Provider() string { return "google" }

type geminiRequest struct {
	SystemInstruction *GeminiContent    `json:"systemInstruction,omitempty"`
	Contents          []GeminiContent   `json:"contents"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
}

func (a *googleAdapter) endpoint(method, key string) string {
	return fmt.Sprintf("%s/%s:%s?key=%s", strings.TrimSuffix(a.baseURL, "/"), a.wireModel, method, key)
}

func (a *googleAdapter) post(ctx context.Context, url string, reqBody geminiRequest) (*http.Response, error) {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return a.client.Do(req)
}

func parseGeminiBody(raw []byte) (string, bool) {
	var parsed struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", false
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", false
	}
	var b strings.Builder
	for _, p := range parsed.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String(), true
}

func geminiAPIError(name string, status int, raw []byte) error {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Error.Message != "" {
		return fmt.Errorf("%s", parsed.Error.Message)
	}
	return fmt.Errorf("%s request failed with status %d", name, status)
}

// GenerateContents runs a unary generateContent call over arbitrary contents.
func (a *googleAdapter) GenerateContents(ctx context.Context, contents []GeminiContent, cfg *GenerationConfig, systemInstruction, key string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	reqBody := geminiRequest{Contents: contents, GenerationConfig: cfg}
	if systemInstruction != "" {
		reqBody.SystemInstruction = &GeminiContent{Parts: []GeminiPart{{Text: systemInstruction}}}
	}

	start := time.Now()
	resp, err := a.post(reqCtx, a.endpoint("generateContent", key), reqBody)
	if err != nil {
		metrics.RecordLLMRequest(a.modelID, "error", time.Since(start))
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordLLMRequest(a.modelID, "error", time.Since(start))
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		metrics.RecordLLMRequest(a.modelID, "error", time.Since(start))
		return "", geminiAPIError(a.name, resp.StatusCode, raw)
	}

	text, ok := parseGeminiBody(raw)
	if !ok || text == "" {
		metrics.RecordLLMRequest(a.modelID, "error", time.Since(start))
		return "", fmt.Errorf("unexpected response format from %s", a.name)
	}
	metrics.RecordLLMRequest(a.modelID, "success", time.Since(start))
	return text, nil
}

// StreamContents runs streamGenerateContent over arbitrary contents, emitting
// text deltas in arrival order.
func (a *googleAdapter) StreamContents(ctx context.Context, contents []GeminiContent, cfg *GenerationConfig, systemInstruction, key string, fn StreamFunc) error {
	reqBody := geminiRequest{Contents: contents, GenerationConfig: cfg}
	if systemInstruction != "" {
		reqBody.SystemInstruction = &GeminiContent{Parts: []GeminiPart{{Text: systemInstruction}}}
	}

	start := time.Now()
	resp, err := a.post(ctx, a.endpoint("streamGenerateContent", key)+"&alt=sse", reqBody)
	if err != nil {
		metrics.RecordLLMRequest(a.modelID, "error", time.Since(start))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		metrics.RecordLLMRequest(a.modelID, "error", time.Since(start))
		return geminiAPIError(a.name, resp.StatusCode, raw)
	}

	err = scanSSE(resp.Body, func(payload []byte) error {
		text, ok := parseGeminiBody(payload)
		if !ok || text == "" {
			return nil
		}
		return fn(text)
	})
	if err != nil {
		metrics.RecordLLMRequest(a.modelID, "error", time.Since(start))
		return err
	}
	metrics.RecordLLMRequest(a.modelID, "success", time.Since(start))
	return nil
}

func (a *googleAdapter) systemInstruction(req ChatRequest) string {
	if req.SystemInstruction != "" {
		return req.SystemInstruction
	}
	return DefaultSystemInstruction
}

func chatContents(prompt string) []GeminiContent {
	return []GeminiContent{{Role: "user", Parts: []GeminiPart{{Text: prompt}}}}
}

func chatGenerationConfig(req ChatRequest) *GenerationConfig {
	return &GenerationConfig{
		Temperature:     req.Temperature,
		TopP:            req.TopP,
		TopK:            req.TopK,
		MaxOutputTokens: req.MaxTokens,
	}
}

func (a *googleAdapter) Generate(ctx context.Context, req ChatRequest, key string) (string, error) {
	text, err := a.GenerateContents(ctx, chatContents(req.Prompt), chatGenerationConfig(req), a.systemInstruction(req), key)
	if err != nil {
		return "", err
	}
	if a.decorate != nil {
		text = a.decorate(text)
	}
	return text, nil
}

func (a *googleAdapter) GenerateStream(ctx context.Context, req ChatRequest, key string, fn StreamFunc) error {
	return a.StreamContents(ctx, chatContents(req.Prompt), chatGenerationConfig(req), a.systemInstruction(req), key, fn)
}
