package middleware

import (
	"log/slog"
	"net/http"
	"net/http/pprof"
	"strings"
)

const pprofPrefix = "/debug/pprof"

// ProfilingConfig configures the profiling middleware.
type ProfilingConfig struct {
	// Enabled exposes /debug/pprof/*. Development only: profiles leak memory
	// contents and code structure.
	Enabled bool
	// Environment is checked again here; production never serves profiles.
	Environment string
}

// profilingAllowed reports whether cfg may expose pprof.
func profilingAllowed(cfg ProfilingConfig) bool {
	if !cfg.Enabled {
		return false
	}
	switch cfg.Environment {
	case "production", "prod":
		slog.Error("profiling cannot be enabled in production", "environment", cfg.Environment)
		return false
	}
	return true
}

// Profiling serves the net/http/pprof handlers under /debug/pprof and passes
// every other path to next. It is a pass-through unless profiling is allowed.
func Profiling(cfg ProfilingConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !profilingAllowed(cfg) {
			return next
		}

		slog.Warn("profiling endpoints enabled", "environment", cfg.Environment, "endpoints", pprofPrefix+"/*")

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, pprofPrefix) {
				next.ServeHTTP(w, r)
				return
			}
			switch r.URL.Path {
			case pprofPrefix + "/cmdline":
				pprof.Cmdline(w, r)
			case pprofPrefix + "/profile":
				pprof.Profile(w, r)
			case pprofPrefix + "/symbol":
				pprof.Symbol(w, r)
			case pprofPrefix + "/trace":
				pprof.Trace(w, r)
			default:
				// Index also serves named profiles such as heap and goroutine.
				pprof.Index(w, r)
			}
		})
	}
}
