package main

import (
	"log/slog"
	"net/http"

	"github.com/onnwee/kitrank/internal/api"
	"github.com/onnwee/kitrank/internal/middleware"
)

const serviceName = "kitrank-api"

// routerDeps carries everything newRouter wires into the HTTP surface.
type routerDeps struct {
	Logger      *slog.Logger
	Leaderboard api.LeaderboardBuilder
	Health      *api.HealthHandlers
	Tokens      middleware.TokenValidator
	Limiter     middleware.RateLimitStore
	LimitConfig middleware.RateLimitConfig
	TrustProxy  bool
	Metrics     *middleware.Metrics
	CORS        middleware.CORSConfig
	Profiling   middleware.ProfilingConfig
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
}

// newRouter builds the routes and the middleware chain:
// RequestID -> Logging -> Tracing -> HTTPMetrics -> CORS -> Profiling -> mux.
// The leaderboard route adds OptionalAuth -> RateLimiter so limits apply
// per user when a valid token is presented.
func newRouter(d routerDeps) http.Handler {
	mux := http.NewServeMux()

	leaderboard := api.NewLeaderboardHandlers(d.Leaderboard)
	limited := middleware.RateLimiter(d.Limiter, d.LimitConfig, middleware.UserKeyFunc(d.TrustProxy), d.Metrics)(
		http.HandlerFunc(leaderboard.GetLeaderboard),
	)
	mux.Handle("/api/leaderboard", middleware.OptionalAuth(d.Tokens)(limited))

	mux.HandleFunc("/health", d.Health.Health)
	mux.HandleFunc("/ready", d.Health.Ready)
	if d.MetricsHandler != nil {
		mux.Handle("/metrics", d.MetricsHandler)
	}

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		api.WriteError(w, r.Context(), http.StatusNotFound, api.ErrCodeNotFound, "The requested resource was not found")
	})

	var handler http.Handler = mux
	handler = middleware.Profiling(d.Profiling)(handler)
	handler = middleware.CORS(d.CORS)(handler)
	handler = middleware.HTTPMetrics(d.Metrics)(handler)
	handler = middleware.Tracing(serviceName)(handler)
	handler = middleware.Logging(d.Logger)(handler)
	return middleware.RequestID(handler)
}
