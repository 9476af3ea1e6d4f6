package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/smita-2184/llm-eval/internal/credentials"
	"github.com/smita-2184/llm-eval/internal/llm"
	"github.com/smita-2184/llm-eval/internal/model"
)

// ErrEmptyQuestion is returned before any credential load or provider call.
var ErrEmptyQuestion = errors.New("question must be a non-empty string")

// Messages for models whose provider key failed classification. Texts are
// stable because the comparison UI matches on them.
var missingKeyMessages = map[string]string{
	"gpt-4":      "OpenAI API key is missing or invalid",
	"gemini-pro": "Google API key for Gemini is missing or invalid",
	"llama":      "Groq API key for LLaMA is missing or invalid",
	"mixtral":    "Groq API key for Mixtral is missing or invalid",
	"deepseek":   "Groq API key for DeepSeek is missing or invalid",
}

// FanoutService dispatches one question to every curriculum model in
// parallel and settles all outcomes. A slow or broken provider never blocks
// or cancels its siblings; every failure is materialized as the error field
// of that model's reply.
type FanoutService struct {
	registry *llm.Registry
	creds    *credentials.Store
	logger   *logrus.Logger
}

func NewFanoutService(registry *llm.Registry, creds *credentials.Store, logger *logrus.Logger) *FanoutService {
	return &FanoutService{
		registry: registry,
		creds:    creds,
		logger:   logger,
	}
}

// GenerateResponses runs the question across all tracked models. The returned
// map has an entry for every tracked model; it only errors on invalid input.
func (s *FanoutService) GenerateResponses(ctx context.Context, question string) (model.ChatFanOutResult, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}

	keys, validity := s.creds.Load(ctx)

	replies := make([]model.ChatReply, len(llm.TrackedModels))
	var wg sync.WaitGroup
	for i, modelID := range llm.TrackedModels {
		adapter, err := s.registry.Get(modelID)
		if err != nil {
			replies[i] = errorReply(modelID, err.Error())
			continue
		}

		wg.Add(1)
		go func(i int, adapter llm.Adapter) {
			defer wg.Done()
			replies[i] = s.generate(ctx, adapter, question, keys, validity)
		}(i, adapter)
	}
	wg.Wait()

	result := make(model.ChatFanOutResult, len(replies))
	for _, reply := range replies {
		result[reply.ModelID] = reply
	}
	return result, nil
}

func (s *FanoutService) generate(ctx context.Context, adapter llm.Adapter, question string, keys credentials.ApiKeySet, validity credentials.KeyValidity) model.ChatReply {
	modelID := adapter.ModelID()

	key := keys.Get(adapter.Provider())
	if !validity[adapter.Provider()] || key == "" {
		return errorReply(modelID, missingKeyMessage(modelID, adapter.Name()))
	}

	text, err := adapter.Generate(ctx, llm.DefaultChatRequest(question), key)
	if err != nil {
		s.logger.WithError(err).WithField("model", modelID).Warn("LLM generation failed")
		return errorReply(modelID, fmt.Sprintf("Failed to generate response from %s: %s", adapter.Name(), err.Error()))
	}

	return model.ChatReply{
		ModelID:   modelID,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
}

func missingKeyMessage(modelID, name string) string {
	if msg, ok := missingKeyMessages[modelID]; ok {
		return msg
	}
	return fmt.Sprintf("%s API key is missing or invalid", name)
}

func errorReply(modelID, msg string) model.ChatReply {
	return model.ChatReply{
		ModelID:   modelID,
		Timestamp: time.Now().UTC(),
		Error:     msg,
	}
}
