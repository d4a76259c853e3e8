package middleware

import (
	"net/http"
	"strconv"
	"time"
)

// knownRoutes are the paths recorded under their own label. Everything else
// is folded into unmatchedRoute so scanners cannot blow up label cardinality.
var knownRoutes = map[string]bool{
	"/api/leaderboard": true,
	"/health":          true,
	"/ready":           true,
	"/metrics":         true,
}

const unmatchedRoute = "unmatched"

// normalizePath maps a request path to a bounded metric label.
func normalizePath(path string) string {
	if len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}
	if knownRoutes[path] {
		return path
	}
	return unmatchedRoute
}

// metricsResponseWriter wraps http.ResponseWriter to capture status code and response size.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode  int
	size        int64
	wroteHeader bool
}

// WriteHeader captures the status code before writing it.
func (mrw *metricsResponseWriter) WriteHeader(code int) {
	if mrw.wroteHeader {
		return
	}
	mrw.statusCode = code
	mrw.wroteHeader = true
	mrw.ResponseWriter.WriteHeader(code)
}

// Write captures the response size and writes the data.
func (mrw *metricsResponseWriter) Write(b []byte) (int, error) {
	n, err := mrw.ResponseWriter.Write(b)
	mrw.size += int64(n)
	return n, err
}

func (mrw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return mrw.ResponseWriter
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// skipHTTPMetrics lists probe and scrape endpoints that are not recorded.
var skipHTTPMetrics = map[string]bool{
	"/health":  true,
	"/ready":   true,
	"/metrics": true,
}

// HTTPMetrics is a middleware that records request duration, request and
// response sizes, and request counts labelled by method, route and status.
func HTTPMetrics(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipHTTPMetrics[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			mrw := newMetricsResponseWriter(w)

			requestSize := int64(0)
			if r.ContentLength > 0 {
				requestSize = r.ContentLength
			}

			next.ServeHTTP(mrw, r)

			metrics.ObserveHTTPRequest(
				r.Method,
				normalizePath(r.URL.Path),
				strconv.Itoa(mrw.statusCode),
				time.Since(start).Seconds(),
				requestSize,
				mrw.size,
			)
		})
	}
}
