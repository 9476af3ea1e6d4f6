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

	"github.com/smita-2184/llm-eval/internal/metrics"
)

// togetherAdapter speaks Together's prompt-completion dialect: a single
// instruction-wrapped prompt string instead of a messages array, with
// choices[0].text in both unary and streamed responses.
type togetherAdapter struct {
	modelID   string
	name      string
	baseURL   string
	wireModel string
	timeout   time.Duration
	client    *http.Client
	logger    *logrus.Logger
}

func (a *togetherAdapter) ModelID() string  { return a.modelID }
func (a *togetherAdapter) Name() string     { return a.name }
func (a *togetherAdapter) Provider() string { return "together" }

func (a *togetherAdapter) prompt(req ChatRequest) string {
	instruction := req.SystemInstruction
	if instruction == "" {
		instruction = "You are a chemistry expert. Provide a detailed, scientifically accurate response to this question:"
	}
	return fmt.Sprintf("<s>[INST] %s %s [/INST]", instruction, req.Prompt)
}

func (a *togetherAdapter) newRequest(ctx context.Context, req ChatRequest, key string, stream bool) (*http.Request, error) {
	body := map[string]interface{}{
		"model":       a.wireModel,
		"prompt":      a.prompt(req),
		"max_tokens":  req.MaxTokens,
		"temperature": req.Temperature,
	}
	if stream {
		body["stream"] = true
	}
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := strings.TrimSuffix(a.baseURL, "/") + "/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+key)
	return httpReq, nil
}

func (a *togetherAdapter) Generate(ctx context.Context, req ChatRequest, key string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	httpReq, err := a.newRequest(reqCtx, req, key, false)
	if err != nil {
		return "", err
	}

	start := time.Now()
	resp, err := a.client.Do(httpReq)
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
		return "", apiError(a.name, resp.StatusCode, raw)
	}

	var parsed struct {
		Choices []struct {
			Text string `json:"text"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		metrics.RecordLLMRequest(a.modelID, "error", time.Since(start))
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Text == "" {
		metrics.RecordLLMRequest(a.modelID, "error", time.Since(start))
		return "", fmt.Errorf("unexpected response format from %s", a.name)
	}
	metrics.RecordLLMRequest(a.modelID, "success", time.Since(start))
	return parsed.Choices[0].Text, nil
}

func (a *togetherAdapter) GenerateStream(ctx context.Context, req ChatRequest, key string, fn StreamFunc) error {
	httpReq, err := a.newRequest(ctx, req, key, true)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	start := time.Now()
	resp, err := a.client.Do(httpReq)
	if err != nil {
		metrics.RecordLLMRequest(a.modelID, "error", time.Since(start))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		metrics.RecordLLMRequest(a.modelID, "error", time.Since(start))
		return apiError(a.name, resp.StatusCode, raw)
	}

	err = scanSSE(resp.Body, func(payload []byte) error {
		var chunk struct {
			Choices []struct {
				Text string `json:"text"`
			} `json:"choices"`
		}
		if err := json.Unmarshal(payload, &chunk); err != nil {
			return nil
		}
		if len(chunk.Choices) == 0 || chunk.Choices[0].Text == "" {
			return nil
		}
		return fn(chunk.Choices[0].Text)
	})
	if err != nil {
		metrics.RecordLLMRequest(a.modelID, "error", time.Since(start))
		return err
	}
	metrics.RecordLLMRequest(a.modelID, "success", time.Since(start))
	return nil
}
