package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestCompatAdapter(baseURL string) *openAICompatAdapter {
	return &openAICompatAdapter{
		modelID:   ModelIDGPT4,
		name:      "OpenAI",
		provider:  "openai",
		baseURL:   baseURL,
		wireModel: "gpt-4",
		timeout:   5 * time.Second,
		client:    &http.Client{},
		logger:    testLogger(),
	}
}

func TestOpenAICompatGenerate(t *testing.T) {
	var gotAuth string
	var gotBody map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		fmt.Fprint(w, `{"choices":[{"message":{"content":"Benzene is aromatic."}}]}`)
	}))
	defer srv.Close()

	adapter := newTestCompatAdapter(srv.URL)
	text, err := adapter.Generate(context.Background(), DefaultChatRequest("What is benzene?"), "sk-test")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if text != "Benzene is aromatic." {
		t.Fatalf("unexpected text %q", text)
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotBody["model"] != "gpt-4" {
		t.Fatalf("unexpected wire model %v", gotBody["model"])
	}

	messages, ok := gotBody["messages"].([]interface{})
	if !ok || len(messages) != 2 {
		t.Fatalf("expected system+user messages, got %v", gotBody["messages"])
	}
	system := messages[0].(map[string]interface{})
	if system["role"] != "system" || !strings.Contains(system["content"].(string), "chemistry expert") {
		t.Fatalf("unexpected system message %v", system)
	}
}

func TestOpenAICompatGenerateUsesProviderErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"Incorrect API key provided"}}`)
	}))
	defer srv.Close()

	adapter := newTestCompatAdapter(srv.URL)
	_, err := adapter.Generate(context.Background(), DefaultChatRequest("q"), "sk-bad")
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "Incorrect API key provided" {
		t.Fatalf("expected provider message to surface, got %q", err)
	}
}

func TestOpenAICompatGenerateRejectsEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	adapter := newTestCompatAdapter(srv.URL)
	_, err := adapter.Generate(context.Background(), DefaultChatRequest("q"), "sk-test")
	if err == nil || !strings.Contains(err.Error(), "unexpected response format from OpenAI") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestOpenAICompatGenerateAppliesDecoration(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[{"message":{"content":"raw"}}]}`)
	}))
	defer srv.Close()

	adapter := newTestCompatAdapter(srv.URL)
	adapter.decorate = decorateMixtral

	text, err := adapter.Generate(context.Background(), DefaultChatRequest("q"), "sk-test")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if text != "# Mixtral Response\n\nraw" {
		t.Fatalf("decoration not applied: %q", text)
	}
}

func TestOpenAICompatGenerateStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if body["stream"] != true {
			t.Errorf("expected stream:true in body")
		}

		w.Header().Set("Content-Type", "text/event-stream")
		frames := []string{
			`data: {"choices":[{"delta":{"content":"Hel"}}]}`,
			``,
			`data: {"choices":[{"delta":{"content":"lo"}}]}`,
			``,
			`data: {"choices":[{"delta":{}}]}`,
			``,
			`data: [DONE]`,
		}
		for _, frame := range frames {
			fmt.Fprintln(w, frame)
		}
	}))
	defer srv.Close()

	adapter := newTestCompatAdapter(srv.URL)

	var got strings.Builder
	err := adapter.GenerateStream(context.Background(), DefaultChatRequest("q"), "sk-test", func(delta string) error {
		got.WriteString(delta)
		return nil
	})
	if err != nil {
		t.Fatalf("GenerateStream returned error: %v", err)
	}
	if got.String() != "Hello" {
		t.Fatalf("unexpected stream text %q", got.String())
	}
}

func TestOpenAICompatGenerateStreamStopsOnCallbackError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for i := 0; i < 100; i++ {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":\"x%d\"}}]}\n\n", i)
		}
		fmt.Fprintln(w, "data: [DONE]")
	}))
	defer srv.Close()

	adapter := newTestCompatAdapter(srv.URL)

	calls := 0
	err := adapter.GenerateStream(context.Background(), DefaultChatRequest("q"), "sk-test", func(delta string) error {
		calls++
		if calls == 3 {
			return fmt.Errorf("client went away")
		}
		return nil
	})
	if err == nil || !strings.Contains(err.Error(), "client went away") {
		t.Fatalf("expected callback error to propagate, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("stream should stop at the failing callback, got %d calls", calls)
	}
}

func TestScanSSESkipsNonDataLines(t *testing.T) {
	input := ": comment\nevent: ping\ndata: {\"a\":1}\n\ndata: [DONE]\ndata: {\"a\":2}\n"
	var payloads []string
	err := scanSSE(strings.NewReader(input), func(p []byte) error {
		payloads = append(payloads, string(p))
		return nil
	})
	if err != nil {
		t.Fatalf("scanSSE returned error: %v", err)
	}
	if len(payloads) != 1 || payloads[0] != `{"a":1}` {
		t.Fatalf("unexpected payloads %v", payloads)
	}
}
