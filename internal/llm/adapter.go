package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/smita-2184/llm-eval/internal/config"
)

// DefaultSystemInstruction is the canonical persona every adapter applies
// unless the caller supplies its own.
const DefaultSystemInstruction = "You are a chemistry expert. Provide a detailed, scientifically accurate response to the question. Include relevant chemical concepts, reactions, and explanations."

// Per-model additions to the canonical instruction.
const (
	markdownInstructionSuffix = " Format your response in markdown with proper headings, bullet points, and code blocks where appropriate."
	deepSeekInstructionSuffix = " Format your response with a 'Thinking Process' section followed by a 'Final Answer' section."
)

// ChatRequest is the uniform request shape handed to every adapter. The
// adapter serializes it into the provider's wire format.
type ChatRequest struct {
	Prompt            string
	SystemInstruction string
	Temperature       float64
	TopP              float64
	TopK              int
	MaxTokens         int
}

// DefaultChatRequest builds the standard single-question request used by the
// fan-out and the streaming endpoints.
func DefaultChatRequest(question string) ChatRequest {
	return ChatRequest{
		Prompt:      question,
		Temperature: 0.7,
		TopP:        0.95,
		TopK:        40,
		MaxTokens:   1024,
	}
}

// StreamFunc receives text deltas in provider arrival order. Returning an
// error stops the stream; the adapter releases its reader and returns that
// error. Producers never buffer ahead of the callback.
type StreamFunc func(delta string) error

// Adapter translates the uniform chat contract into one provider's wire call.
// Implementations map every transport, auth, and parse failure to an error
// value; nothing escapes as a panic.
type Adapter interface {
	// ModelID is the curriculum-facing id, e.g. "gpt-4".
	ModelID() string
	// Name is the display name used in user-facing error prefixes.
	Name() string
	// Provider is the credential id this adapter authenticates with.
	Provider() string

	Generate(ctx context.Context, req ChatRequest, key string) (string, error)
	GenerateStream(ctx context.Context, req ChatRequest, key string, fn StreamFunc) error
}

const (
	ModelIDGPT4      = "gpt-4"
	ModelIDGeminiPro = "gemini-pro"
	ModelIDLlama     = "llama"
	ModelIDMixtral   = "mixtral"
	ModelIDDeepSeek  = "deepseek"

	// ModelIDMistral is the streaming-only Together-backed model; it is not
	// part of the curriculum.
	ModelIDMistral = "mistral"
)

// TrackedModels is the fixed curriculum: the model ids a user must cover
// across all three activity kinds to complete the course.
var TrackedModels = []string{ModelIDGPT4, ModelIDGeminiPro, ModelIDLlama, ModelIDMixtral, ModelIDDeepSeek}

// Registry resolves model ids to adapters. Adapters are registered once at
// startup; lookups are read-only afterwards.
type Registry struct {
	order    []string
	adapters map[string]Adapter
}

// NewRegistry wires the full adapter set from provider configuration. The
// DeepSeek adapter is an OpenAI-compatible client whose base URL comes from
// config, so repointing it is a deployment concern.
func NewRegistry(cfg *config.ProvidersConfig, logger *logrus.Logger) *Registry {
	client := &http.Client{} // no client timeout: streams are bounded by ctx

	r := &Registry{adapters: make(map[string]Adapter)}

	r.register(&openAICompatAdapter{
		modelID:   ModelIDGPT4,
		name:      "OpenAI",
		provider:  "openai",
		baseURL:   cfg.OpenAIBaseURL,
		wireModel: "gpt-4",
		timeout:   cfg.RequestTimeout,
		client:    client,
		logger:    logger,
	})
	r.register(&googleAdapter{
		modelID:   ModelIDGeminiPro,
		name:      "Gemini",
		baseURL:   cfg.GoogleBaseURL,
		wireModel: "gemini-1.5-pro",
		decorate:  decorateGemini,
		timeout:   cfg.RequestTimeout,
		client:    client,
		logger:    logger,
	})
	r.register(&openAICompatAdapter{
		modelID:   ModelIDLlama,
		name:      "LLaMA",
		provider:  "groq",
		baseURL:   cfg.GroqBaseURL,
		wireModel: "llama3-70b-8192",
		timeout:   cfg.RequestTimeout,
		client:    client,
		logger:    logger,
	})
	r.register(&openAICompatAdapter{
		modelID:           ModelIDMixtral,
		name:              "Mixtral",
		provider:          "groq",
		baseURL:           cfg.GroqBaseURL,
		wireModel:         "mistral-saba-24b",
		instructionSuffix: markdownInstructionSuffix,
		decorate:          decorateMixtral,
		timeout:           cfg.RequestTimeout,
		client:            client,
		logger:            logger,
	})
	r.register(&openAICompatAdapter{
		modelID:           ModelIDDeepSeek,
		name:              "DeepSeek",
		provider:          "groq",
		baseURL:           cfg.GroqBaseURL,
		wireModel:         "deepseek-r1-distill-llama-70b",
		instructionSuffix: deepSeekInstructionSuffix,
		decorate:          decorateDeepSeek,
		timeout:           cfg.RequestTimeout,
		client:            client,
		logger:            logger,
	})
	r.register(&togetherAdapter{
		modelID:   ModelIDMistral,
		name:      "Mixtral",
		baseURL:   cfg.TogetherBaseURL,
		wireModel: "mistralai/Mixtral-8x7B-Instruct-v0.1",
		timeout:   cfg.RequestTimeout,
		client:    client,
		logger:    logger,
	})

	return r
}

func (r *Registry) register(a Adapter) {
	r.order = append(r.order, a.ModelID())
	r.adapters[a.ModelID()] = a
}

// Get returns the adapter for a model id.
func (r *Registry) Get(modelID string) (Adapter, error) {
	a, ok := r.adapters[modelID]
	if !ok {
		return nil, fmt.Errorf("model not found: %s", modelID)
	}
	return a, nil
}
