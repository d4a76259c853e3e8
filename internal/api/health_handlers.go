package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// HealthChecker defines the interface for components that can be health checked.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// readinessTimeout bounds all dependency checks of one /ready call.
const readinessTimeout = 5 * time.Second

// HealthHandlers provides liveness and readiness probes.
type HealthHandlers struct {
	checkers map[string]HealthChecker
	timeNow  func() time.Time
}

// HealthHandlersConfig configures the health check handlers. Nil checkers
// are reported as "not_configured" and do not fail readiness.
type HealthHandlersConfig struct {
	DBChecker    HealthChecker
	RedisChecker HealthChecker
}

// NewHealthHandlers creates a new health check handler.
func NewHealthHandlers(config HealthHandlersConfig) *HealthHandlers {
	h := &HealthHandlers{
		checkers: make(map[string]HealthChecker),
		timeNow:  time.Now,
	}
	if config.DBChecker != nil {
		h.checkers["database"] = config.DBChecker
	}
	if config.RedisChecker != nil {
		h.checkers["redis"] = config.RedisChecker
	}
	return h
}

// HealthResponse represents the JSON response for health checks.
type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp string            `json:"timestamp"`
}

// Health handles GET /health (liveness probe). It never touches dependencies.
func (h *HealthHandlers) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, r.Context(), http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed")
		return
	}

	writeJSON(w, r.Context(), http.StatusOK, HealthResponse{
		Status:    "healthy",
		Checks:    map[string]string{"runtime": "ok"},
		Timestamp: h.timeNow().UTC().Format(time.RFC3339),
	})
}

// Ready handles GET /ready (readiness probe). Returns 503 when any
// configured dependency fails its check.
func (h *HealthHandlers) Ready(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, r.Context(), http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks := map[string]string{
		"database": "not_configured",
		"redis":    "not_configured",
	}
	healthy := true
	for name, checker := range h.checkers {
		if err := checker.HealthCheck(ctx); err != nil {
			checks[name] = "error"
			healthy = false
			slog.WarnContext(ctx, "readiness check failed", "dependency", name, "error", err)
			continue
		}
		checks[name] = "ok"
	}

	status, statusCode := "healthy", http.StatusOK
	if !healthy {
		status, statusCode = "unhealthy", http.StatusServiceUnavailable
	}

	writeJSON(w, r.Context(), statusCode, HealthResponse{
		Status:    status,
		Checks:    checks,
		Timestamp: h.timeNow().UTC().Format(time.RFC3339),
	})
}
