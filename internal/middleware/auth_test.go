package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/onnwee/kitrank/internal/auth"
)

func TestOptionalAuth(t *testing.T) {
	svc := auth.NewJWTService("test-secret-for-middleware", "")
	other := auth.NewJWTService("some-other-secret", "")

	good, err := svc.GenerateAccessToken("ckz9qq01")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	forged, err := other.GenerateAccessToken("ckz9qq01")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	tests := []struct {
		name       string
		header     string
		wantUserID string
	}{
		{name: "no header", header: ""},
		{name: "valid bearer", header: "Bearer " + good, wantUserID: "ckz9qq01"},
		{name: "lower-case scheme", header: "bearer " + good, wantUserID: "ckz9qq01"},
		{name: "forged token", header: "Bearer " + forged},
		{name: "basic scheme", header: "Basic dXNlcjpwYXNz"},
		{name: "empty bearer", header: "Bearer "},
		{name: "token without scheme", header: good},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached := false
			var gotUserID string
			handler := OptionalAuth(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached = true
				gotUserID = GetUserID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/leaderboard", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if !reached {
				t.Fatal("request should always reach the handler")
			}
			if rr.Code != http.StatusOK {
				t.Errorf("status = %d, want 200", rr.Code)
			}
			if gotUserID != tt.wantUserID {
				t.Errorf("user id = %q, want %q", gotUserID, tt.wantUserID)
			}
		})
	}
}
