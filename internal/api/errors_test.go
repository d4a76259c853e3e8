package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/onnwee/kitrank/internal/middleware"
)

func TestWriteError_Envelope(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		code    string
		message string
	}{
		{name: "validation", status: http.StatusBadRequest, code: ErrCodeValidation, message: "Unknown category"},
		{name: "internal", status: http.StatusInternalServerError, code: ErrCodeInternal, message: "Failed to build leaderboard"},
		{name: "method", status: http.StatusMethodNotAllowed, code: ErrCodeMethodNotAllowed, message: "Method not allowed"},
		{name: "empty message", status: http.StatusBadRequest, code: ErrCodeValidation, message: ""},
		{name: "special characters", status: http.StatusBadRequest, code: ErrCodeValidation, message: `bad "period" <month?> & more`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, context.Background(), tt.status, tt.code, tt.message)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}

			var resp ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to parse response body: %v, body: %s", err, w.Body.String())
			}
			if resp.Error.Code != tt.code {
				t.Errorf("error.code = %q, want %q", resp.Error.Code, tt.code)
			}
			if resp.Error.Message != tt.message {
				t.Errorf("error.message = %q, want %q", resp.Error.Message, tt.message)
			}

			var raw map[string]map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
				t.Fatalf("body is not an object of objects: %v", err)
			}
			if len(raw) != 1 || len(raw["error"]) != 2 {
				t.Errorf("unexpected envelope shape: %s", w.Body.String())
			}
		})
	}
}

func TestWriteError_ReportsCodeToRequestLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := middleware.Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "Unknown period")
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/leaderboard?period=year", nil))

	var entry struct {
		Level     string `json:"level"`
		Status    int    `json:"status"`
		ErrorCode string `json:"error_code"`
	}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log: %v, log: %s", err, buf.String())
	}
	if entry.ErrorCode != ErrCodeValidation {
		t.Errorf("error_code = %q, want %q", entry.ErrorCode, ErrCodeValidation)
	}
	if entry.Status != http.StatusBadRequest || entry.Level != "WARN" {
		t.Errorf("status/level = %d/%s, want 400/WARN", entry.Status, entry.Level)
	}
}

func TestStatusCodeMapping(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeMethodNotAllowed, http.StatusMethodNotAllowed},
		{ErrCodeInternal, http.StatusInternalServerError},
		{"unknown_code", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := StatusCodeMapping(tt.code); got != tt.want {
				t.Errorf("StatusCodeMapping(%q) = %d, want %d", tt.code, got, tt.want)
			}
		})
	}
}
