package middleware

import (
	"net"
	"net/http"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/smita-2184/llm-eval/internal/config"
)

// RateLimitMiddleware enforces a per-client request budget on the LLM
// routes. Clients are keyed by authenticated user when present, remote IP
// otherwise.
type RateLimitMiddleware struct {
	enabled  bool
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	rps      rate.Limit
	burst    int
	logger   *logrus.Logger
}

// NewRateLimitMiddleware creates a new rate limit middleware
func NewRateLimitMiddleware(cfg config.RateLimitConfig, logger *logrus.Logger) *RateLimitMiddleware {
	if !cfg.Enabled {
		return &RateLimitMiddleware{enabled: false}
	}
	return &RateLimitMiddleware{
		enabled:  true,
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(float64(cfg.RequestsPerMinute) / 60.0),
		burst:    cfg.Burst,
		logger:   logger,
	}
}

// Limit wraps a route with the per-client limiter
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.enabled {
			next.ServeHTTP(w, r)
			return
		}

		key := clientKey(r)
		if !m.getLimiter(key).Allow() {
			m.logger.WithField("client", key).Warn("Rate limit exceeded")
			http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *RateLimitMiddleware) getLimiter(key string) *rate.Limiter {
	m.mu.RLock()
	limiter, exists := m.limiters[key]
	m.mu.RUnlock()
	if exists {
		return limiter
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if limiter, exists := m.limiters[key]; exists {
		return limiter
	}
	limiter = rate.NewLimiter(m.rps, m.burst)
	m.limiters[key] = limiter
	return limiter
}

func clientKey(r *http.Request) string {
	if userID := GetUserID(r.Context()); userID != "" {
		return userID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
