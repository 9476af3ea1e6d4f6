package credentials

import "strings"

// Provider ids. Keys are shared infrastructure in this deployment; each
// provider id maps to one field of the api_keys/current document.
const (
	ProviderOpenAI   = "openai"
	ProviderGoogle   = "google"
	ProviderGroq     = "groq"
	ProviderTogether = "together"
)

// Document field names are kept as the existing deployment stores them.
var providerFields = map[string]string{
	ProviderOpenAI:   "openai-key",
	ProviderGoogle:   "google-key",
	ProviderGroq:     "groq-llama-key",
	ProviderTogether: "mixtral-key",
}

// ApiKeySet maps provider id to a trimmed key string. Absent providers map to
// the empty string.
type ApiKeySet map[string]string

// Get returns the key for a provider, or "" when unset.
func (s ApiKeySet) Get(provider string) string {
	return s[provider]
}

// KeyValidity is the derived structural classification per provider. It says
// nothing about whether the key actually authenticates upstream.
type KeyValidity map[string]bool

// HasAnyValid reports whether at least one provider key passed classification.
func (v KeyValidity) HasAnyValid() bool {
	for _, ok := range v {
		if ok {
			return true
		}
	}
	return false
}

// Placeholder sentinels that show up in copied .env templates, plus one
// revoked key that circulated in an early deployment.
const (
	placeholderOpenAI   = "your_openai_api_key_here"
	placeholderGemini   = "your_gemini_api_key_here"
	placeholderTogether = "your_together_api_key_here"
	revokedOpenAIKey    = "sk-proj-uk5Xxo0glvLrA2wkm6GlQwScmDhwvlCil452"
)

func isValidOpenAIKey(key string) bool {
	return len(key) > 20 && !strings.Contains(key, placeholderOpenAI) && !strings.Contains(key, revokedOpenAIKey)
}

func isValidGoogleKey(key string) bool {
	return len(key) > 20 && !strings.Contains(key, placeholderGemini)
}

func isValidGroqKey(key string) bool {
	return len(key) > 10 && !strings.Contains(key, placeholderTogether)
}

func isValidTogetherKey(key string) bool {
	return len(key) > 10 && !strings.Contains(key, placeholderTogether)
}

// Classify derives KeyValidity for a key set. Keys are expected to be trimmed
// already; classification is deterministic for a given set.
func Classify(keys ApiKeySet) KeyValidity {
	return KeyValidity{
		ProviderOpenAI:   isValidOpenAIKey(keys.Get(ProviderOpenAI)),
		ProviderGoogle:   isValidGoogleKey(keys.Get(ProviderGoogle)),
		ProviderGroq:     isValidGroqKey(keys.Get(ProviderGroq)),
		ProviderTogether: isValidTogetherKey(keys.Get(ProviderTogether)),
	}
}

func emptyKeySet() ApiKeySet {
	return ApiKeySet{
		ProviderOpenAI:   "",
		ProviderGoogle:   "",
		ProviderGroq:     "",
		ProviderTogether: "",
	}
}
