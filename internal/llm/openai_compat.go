package llm

import (
	"bufio"
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

// openAICompatAdapter speaks the chat-completions dialect shared by OpenAI,
// Groq, and DeepSeek-compatible endpoints: bearer auth, a messages array, and
// SSE data frames with delta records when streaming.
type openAICompatAdapter struct {
	modelID           string
	name              string
	provider          string
	baseURL           string
	wireModel         string
	instructionSuffix string
	decorate          func(string) string
	timeout           time.Duration
	client            *http.Client
	logger            *logrus.Logger
}

func (a *openAICompatAdapter) ModelID() string  { return a.modelID }
func (a *openAICompatAdapter) Name() string     { return a.name }
func (a *openAICompatAdapter) Provider() string { return a.provider }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (a *openAICompatAdapter) systemInstruction(req ChatRequest) string {
	if req.SystemInstruction != "" {
		return req.SystemInstruction
	}
	return DefaultSystemInstruction + a.instructionSuffix
}

func (a *openAICompatAdapter) requestBody(req ChatRequest, stream bool) ([]byte, error) {
	body := map[string]interface{}{
		"model": a.wireModel,
		"messages": []chatMessage{
			{Role: "system", Content: a.systemInstruction(req)},
			{Role: "user", Content: req.Prompt},
		},
		"temperature": req.Temperature,
		"max_tokens":  req.MaxTokens,
		"top_p":       req.TopP,
	}
	if stream {
		body["stream"] = true
	}
	return json.Marshal(body)
}

func (a *openAICompatAdapter) newRequest(ctx context.Context, body []byte, key string) (*http.Request, error) {
	url := strings.TrimSuffix(a.baseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)
	return req, nil
}

// apiError extracts the provider's error message from a non-2xx body.
func apiError(name string, status int, body []byte) error {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		return fmt.Errorf("%s", parsed.Error.Message)
	}
	return fmt.Errorf("%s request failed with status %d", name, status)
}

func (a *openAICompatAdapter) Generate(ctx context.Context, req ChatRequest, key string) (string, error) {
	body, err := a.requestBody(req, false)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	httpReq, err := a.newRequest(reqCtx, body, key)
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
		a.logger.WithFields(logrus.Fields{
			"model":  a.modelID,
			"status": resp.StatusCode,
		}).Warn("LLM request rejected")
		return "", apiError(a.name, resp.StatusCode, raw)
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		metrics.RecordLLMRequest(a.modelID, "error", time.Since(start))
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		metrics.RecordLLMRequest(a.modelID, "error", time.Since(start))
		return "", fmt.Errorf("unexpected response format from %s", a.name)
	}

	metrics.RecordLLMRequest(a.modelID, "success", time.Since(start))

	text := parsed.Choices[0].Message.Content
	if a.decorate != nil {
		text = a.decorate(text)
	}
	return text, nil
}

func (a *openAICompatAdapter) GenerateStream(ctx context.Context, req ChatRequest, key string, fn StreamFunc) error {
	body, err := a.requestBody(req, true)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := a.newRequest(ctx, body, key)
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
				Delta struct {
					Content string `json:"content"`
				} `json:"delta"`
			} `json:"choices"`
		}
		if err := json.Unmarshal(payload, &chunk); err != nil {
			// Skip non-delta frames (pings, usage records).
			return nil
		}
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			return nil
		}
		return fn(chunk.Choices[0].Delta.Content)
	})
	if err != nil {
		metrics.RecordLLMRequest(a.modelID, "error", time.Since(start))
		return err
	}
	metrics.RecordLLMRequest(a.modelID, "success", time.Since(start))
	return nil
}

// scanSSE walks "data:" frames of an SSE body and hands each payload to emit,
// stopping at the [DONE] terminator or the first emit error. The reader is
// pulled at the rate emit returns, so a slow consumer backpressures the
// provider connection.
func scanSSE(r io.Reader, emit func(payload []byte) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" {
			continue
		}
		if payload == "[DONE]" {
			return nil
		}
		if err := emit([]byte(payload)); err != nil {
			return err
		}
	}
	return scanner.Err()
}
