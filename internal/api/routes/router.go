package routes

import (
	"net/http"

	"github.com/restaurant-guide/dashboard/internal/api/handlers"
	"github.com/restaurant-guide/dashboard/internal/api/middleware"
	"github.com/restaurant-guide/dashboard/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	restaurantHandler *handlers.RestaurantHandler

	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
	allowedOrigins  []string
}

// NewRouter creates a new router. cacheMiddleware and metrics may be nil.
func NewRouter(
	restaurantHandler *handlers.RestaurantHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	metrics *observability.Metrics,
	allowedOrigins []string,
) *Router {
	return &Router{
		mux:               http.NewServeMux(),
		restaurantHandler: restaurantHandler,
		cacheMiddleware:   cacheMiddleware,
		metrics:           metrics,
		allowedOrigins:    allowedOrigins,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.mux.HandleFunc("GET /api/filters", r.restaurantHandler.GetFilterOptions)
	r.mux.HandleFunc("GET /api/restaurants", r.restaurantHandler.ListRestaurants)
	r.mux.HandleFunc("GET /api/restaurants/map", r.restaurantHandler.GetRestaurantMap)
	r.mux.HandleFunc("GET /api/restaurants/search", r.restaurantHandler.SearchRestaurants)

	// Apply middleware in reverse order (last middleware wraps first).
	// CORS is outermost so cached responses also get CORS headers.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.ResponseOptimization(handler)
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
