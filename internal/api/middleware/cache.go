package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/restaurant-guide/dashboard/internal/domain/providers"
	"github.com/restaurant-guide/dashboard/internal/infrastructure/observability"
)

// CacheConfig holds cache configuration for specific routes
type CacheConfig struct {
	TTLSeconds int
	Enabled    bool
}

// CacheMiddleware provides HTTP response caching
type CacheMiddleware struct {
	cache        providers.CacheProvider
	namespace    string
	routeConfigs map[string]CacheConfig
	metrics      *observability.Metrics
}

// NewCacheMiddleware caches the dashboard read endpoints for ttlSeconds.
// namespace is part of every key; responses stored under one namespace are
// never served under another.
func NewCacheMiddleware(cache providers.CacheProvider, ttlSeconds int, namespace string) *CacheMiddleware {
	searchTTL := min(ttlSeconds, 120)
	return &CacheMiddleware{
		cache:     cache,
		namespace: namespace,
		routeConfigs: map[string]CacheConfig{
			"/api/filters":            {TTLSeconds: ttlSeconds, Enabled: true},
			"/api/restaurants":        {TTLSeconds: ttlSeconds, Enabled: true},
			"/api/restaurants/map":    {TTLSeconds: ttlSeconds, Enabled: true},
			"/api/restaurants/search": {TTLSeconds: searchTTL, Enabled: true},
		},
	}
}

// SetMetrics enables cache hit and miss counters
func (m *CacheMiddleware) SetMetrics(metrics *observability.Metrics) {
	m.metrics = metrics
}

// Middleware returns the cache middleware handler
func (m *CacheMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || m.cache == nil {
			next.ServeHTTP(w, r)
			return
		}

		config := m.getRouteConfig(r.URL.Path)
		if !config.Enabled || config.TTLSeconds <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		cacheKey := m.generateCacheKey(r)

		if cached, err := m.cache.Get(r.Context(), cacheKey); err == nil {
			if contentType, body, ok := decodeEntry(cached); ok {
				m.recordHit(r)
				w.Header().Set("X-Cache", "HIT")
				w.Header().Set("Content-Type", contentType)
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write(body)
				return
			}
		}

		m.recordMiss(r)
		w.Header().Set("X-Cache", "MISS")

		recorder := &responseRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
			body:           &bytes.Buffer{},
		}
		next.ServeHTTP(recorder, r)

		if recorder.statusCode == http.StatusOK && recorder.body.Len() > 0 {
			entry := encodeEntry(w.Header().Get("Content-Type"), recorder.body.Bytes())
			if err := m.cache.Set(r.Context(), cacheKey, entry, config.TTLSeconds); err != nil {
				log.Warn().Err(err).Str("path", r.URL.Path).Msg("Failed to cache response")
			}
		}
	})
}

func (m *CacheMiddleware) recordHit(r *http.Request) {
	if m.metrics != nil {
		observability.RecordCacheHit(r.Context(), m.metrics, r.URL.Path)
	}
}

func (m *CacheMiddleware) recordMiss(r *http.Request) {
	if m.metrics != nil {
		observability.RecordCacheMiss(r.Context(), m.metrics, r.URL.Path)
	}
}

func (m *CacheMiddleware) getRouteConfig(path string) CacheConfig {
	if config, exists := m.routeConfigs[path]; exists {
		return config
	}
	return CacheConfig{Enabled: false}
}

// generateCacheKey hashes the namespace, method, path and query. Query keys
// are sorted so parameter order does not split the cache.
func (m *CacheMiddleware) generateCacheKey(r *http.Request) string {
	key := fmt.Sprintf("%s:%s:%s", m.namespace, r.Method, r.URL.Path)
	if query := r.URL.Query().Encode(); query != "" {
		key += "?" + query
	}

	hash := sha256.Sum256([]byte(key))
	return "http:cache:" + hex.EncodeToString(hash[:])
}

// Entries are stored as the content type, a newline, then the body.
func encodeEntry(contentType string, body []byte) []byte {
	entry := make([]byte, 0, len(contentType)+1+len(body))
	entry = append(entry, contentType...)
	entry = append(entry, '\n')
	return append(entry, body...)
}

func decodeEntry(entry []byte) (string, []byte, bool) {
	i := bytes.IndexByte(entry, '\n')
	if i <= 0 {
		return "", nil, false
	}
	return string(entry[:i]), entry[i+1:], true
}

// responseRecorder captures the response for caching
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
	written    bool
}

// WriteHeader captures the status code
func (r *responseRecorder) WriteHeader(statusCode int) {
	if !r.written {
		r.statusCode = statusCode
		r.ResponseWriter.WriteHeader(statusCode)
		r.written = true
	}
}

// Write captures the response body and writes to the client
func (r *responseRecorder) Write(data []byte) (int, error) {
	if !r.written {
		r.WriteHeader(http.StatusOK)
	}
	r.body.Write(data)
	return r.ResponseWriter.Write(data)
}
