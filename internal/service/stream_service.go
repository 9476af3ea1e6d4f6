package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/smita-2184/llm-eval/internal/credentials"
	"github.com/smita-2184/llm-eval/internal/llm"
)

var providerDisplayNames = map[string]string{
	credentials.ProviderOpenAI:   "OpenAI",
	credentials.ProviderGoogle:   "Gemini",
	credentials.ProviderGroq:     "Groq",
	credentials.ProviderTogether: "Together",
}

// MissingKeyError is returned by streaming routes when the provider
// credential is absent or failed classification. Handlers map it to 400.
type MissingKeyError struct {
	Message string
}

func (e *MissingKeyError) Error() string { return e.Message }

// StreamModel streams one model's answer through fn. Unlike the fan-out
// path, credential and upstream failures surface as errors because a
// streaming response has nowhere to carry a per-model error field.
func (s *FanoutService) StreamModel(ctx context.Context, modelID, question string, fn llm.StreamFunc) error {
	if strings.TrimSpace(question) == "" {
		return ErrEmptyQuestion
	}

	adapter, err := s.registry.Get(modelID)
	if err != nil {
		return err
	}

	keys, validity := s.creds.Load(ctx)
	key := keys.Get(adapter.Provider())
	if !validity[adapter.Provider()] || key == "" {
		display := providerDisplayNames[adapter.Provider()]
		if display == "" {
			display = adapter.Name()
		}
		return &MissingKeyError{Message: fmt.Sprintf("%s API key is missing or invalid", display)}
	}

	return adapter.GenerateStream(ctx, llm.DefaultChatRequest(question), key, fn)
}
