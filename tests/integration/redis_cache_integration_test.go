//go:build integration

package integration

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restaurant-guide/dashboard/internal/adapters/cache"
	"github.com/restaurant-guide/dashboard/internal/api/middleware"
	"github.com/restaurant-guide/dashboard/internal/domain/providers"
)

func newTestCache(t *testing.T) *cache.RedisAdapter {
	t.Helper()

	client := newTestRedisClient(t)
	t.Cleanup(func() { _ = client.Close() })

	// A per-test prefix keeps parallel runs apart.
	return cache.NewRedisAdapterWithPrefix(client, "restaurant-guide-test:"+uuid.NewString()+":")
}

func TestRedisAdapter_SetGetDelete(t *testing.T) {
	ctx := testContext(t)
	adapter := newTestCache(t)

	_, err := adapter.Get(ctx, "filters")
	assert.True(t, errors.Is(err, providers.ErrCacheMiss))

	require.NoError(t, adapter.Set(ctx, "filters", []byte(`{"states":["Nevada"]}`), 30))

	value, err := adapter.Get(ctx, "filters")
	require.NoError(t, err)
	assert.JSONEq(t, `{"states":["Nevada"]}`, string(value))

	exists, err := adapter.Exists(ctx, "filters")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, adapter.Delete(ctx, "filters"))
	exists, err = adapter.Exists(ctx, "filters")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCacheMiddleware_WithRedis(t *testing.T) {
	adapter := newTestCache(t)

	calls := 0
	handler := middleware.NewCacheMiddleware(adapter, 30, uuid.NewString()).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/geo+json")
		_, _ = w.Write([]byte(`{"type":"FeatureCollection"}`))
	}))

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/restaurants/map?state=Nevada", nil))
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "application/geo+json", rr.Header().Get("Content-Type"))
	}

	assert.Equal(t, 1, calls)
}
