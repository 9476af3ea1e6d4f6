package credentials

import (
	"context"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/smita-2184/llm-eval/internal/metrics"
	"github.com/smita-2184/llm-eval/internal/repository"
)

const cacheKey = "api_keys/current"

type cachedKeys struct {
	keys     ApiKeySet
	validity KeyValidity
}

// Store loads the shared provider credentials and classifies them. Load never
// fails: transport problems degrade to an all-invalid set so a broken
// credential document reads as per-model config errors, not an outage.
type Store struct {
	repo   repository.APIKeyRepository
	cache  *gocache.Cache
	group  singleflight.Group
	logger *logrus.Logger
}

// NewStore creates a credential store with a short-TTL process-local cache.
func NewStore(repo repository.APIKeyRepository, ttl time.Duration, logger *logrus.Logger) *Store {
	return &Store{
		repo:   repo,
		cache:  gocache.New(ttl, 2*ttl),
		logger: logger,
	}
}

// Load returns the current key set and its derived validity. Concurrent
// callers share a single document read.
func (s *Store) Load(ctx context.Context) (ApiKeySet, KeyValidity) {
	if v, ok := s.cache.Get(cacheKey); ok {
		metrics.RecordCredentialCacheHit()
		c := v.(cachedKeys)
		return c.keys, c.validity
	}
	metrics.RecordCredentialCacheMiss()

	v, _, _ := s.group.Do(cacheKey, func() (interface{}, error) {
		c := s.load(ctx)
		return c, nil
	})
	c := v.(cachedKeys)
	return c.keys, c.validity
}

func (s *Store) load(ctx context.Context) cachedKeys {
	doc, err := s.repo.FetchCurrent(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to load API key document, treating all keys as invalid")
		keys := emptyKeySet()
		// A load failure is not cached so the next request retries.
		return cachedKeys{keys: keys, validity: Classify(keys)}
	}

	keys := emptyKeySet()
	for provider, field := range providerFields {
		raw, ok := doc[field]
		if !ok {
			continue
		}
		// Non-string values are coerced to empty rather than rejected.
		if str, ok := raw.(string); ok {
			keys[provider] = strings.TrimSpace(str)
		}
	}

	validity := Classify(keys)
	if !validity.HasAnyValid() {
		s.logger.Warn("No valid API keys found in credential document")
	}

	c := cachedKeys{keys: keys, validity: validity}
	s.cache.SetDefault(cacheKey, c)
	return c
}
