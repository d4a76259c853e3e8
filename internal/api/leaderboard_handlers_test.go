package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/onnwee/kitrank/internal/auth"
	"github.com/onnwee/kitrank/internal/leaderboard"
	"github.com/onnwee/kitrank/internal/middleware"
)

type stubSigner struct{}

func (stubSigner) SignAvatar(_ context.Context, key string, _ time.Duration) (string, error) {
	if strings.HasPrefix(key, "broken/") {
		return "", errors.New("signing backend down")
	}
	return "https://cdn.example.test/" + key + "?sig=1", nil
}

type stubBuilder struct {
	err       error
	requester string
	calls     int
}

func (s *stubBuilder) Build(_ context.Context, category leaderboard.Category, period leaderboard.Period, requesterID string) (*leaderboard.Result, error) {
	s.calls++
	s.requester = requesterID
	if s.err != nil {
		return nil, s.err
	}
	return &leaderboard.Result{Category: category, Period: period, Entries: []leaderboard.Entry{}}, nil
}

func strPtr(s string) *string { return &s }

// seededStore holds three ranked collectors and one anonymous one.
func seededStore() *leaderboard.InMemoryStore {
	store := leaderboard.NewInMemoryStore()
	store.AddCollector(leaderboard.Collector{ID: "ckz9aa01", Username: strPtr("kitking"), Name: "Sam", AvatarRef: strPtr("avatars/a.jpg"),
		FavoriteClub: &leaderboard.ClubRef{ID: "club-1", Name: "Ajax"}})
	store.AddCollector(leaderboard.Collector{ID: "ckz9qq01", AvatarRef: strPtr("broken/b.jpg")})
	store.AddCollector(leaderboard.Collector{ID: "ckz9zz77", Username: strPtr("secret"), AvatarRef: strPtr("avatars/c.jpg"),
		FavoriteClub: &leaderboard.ClubRef{ID: "club-2", Name: "Porto"}, LeaderboardAnonymous: true})

	created := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	add := func(collector string, n int) {
		for i := 0; i < n; i++ {
			store.AddRecord(leaderboard.OwnershipRecord{
				CollectorID: collector,
				ItemID:      fmt.Sprintf("%s-%d", collector, i),
				CreatedAt:   created,
				ClubID:      fmt.Sprintf("club-%d", i),
				LeagueID:    "league-1",
				Season:      "1998-99",
			})
		}
	}
	add("ckz9aa01", 5)
	add("ckz9qq01", 3)
	add("ckz9zz77", 1)
	return store
}

var testJWT = auth.NewJWTService("api-test-secret", "")

func newLeaderboardServer(builder LeaderboardBuilder) http.Handler {
	return middleware.OptionalAuth(testJWT)(http.HandlerFunc(NewLeaderboardHandlers(builder).GetLeaderboard))
}

func bearerFor(t *testing.T, userID string) string {
	t.Helper()
	token, err := testJWT.GenerateAccessToken(userID)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	return "Bearer " + token
}

type responseEntry struct {
	Rank         int                  `json:"rank"`
	UserID       string               `json:"userId"`
	DisplayName  string               `json:"displayName"`
	Name         string               `json:"name"`
	AvatarURL    *string              `json:"avatarUrl"`
	FavoriteClub *leaderboard.ClubRef `json:"favoriteClub"`
	Score        int                  `json:"score"`
	IsAnonymous  bool                 `json:"isAnonymous"`
	HasBadge     bool                 `json:"hasBadge"`
}

type responseBody struct {
	Period          string          `json:"period"`
	Category        string          `json:"category"`
	Entries         []responseEntry `json:"entries"`
	CurrentUserRank *int            `json:"currentUserRank"`
	LastUpdated     string          `json:"lastUpdated"`
}

func TestGetLeaderboard_Success(t *testing.T) {
	store := seededStore()
	engine := leaderboard.NewEngine(leaderboard.EngineConfig{Source: store, Profiles: store, Signer: stubSigner{}})
	server := newLeaderboardServer(engine)

	req := httptest.NewRequest(http.MethodGet, "/api/leaderboard?category=collection_size&period=all_time", nil)
	req.Header.Set("Authorization", bearerFor(t, "ckz9qq01"))
	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}

	var body responseBody
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Category != "collection_size" || body.Period != "all_time" {
		t.Errorf("category/period = %s/%s", body.Category, body.Period)
	}
	if _, err := time.Parse(time.RFC3339, body.LastUpdated); err != nil {
		t.Errorf("lastUpdated %q is not RFC 3339: %v", body.LastUpdated, err)
	}
	if body.CurrentUserRank == nil || *body.CurrentUserRank != 2 {
		t.Errorf("currentUserRank = %v, want 2", body.CurrentUserRank)
	}
	if len(body.Entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(body.Entries))
	}

	first, second, third := body.Entries[0], body.Entries[1], body.Entries[2]
	if first.UserID != "ckz9aa01" || first.DisplayName != "kitking" || first.Score != 5 || !first.HasBadge {
		t.Errorf("first entry = %+v", first)
	}
	if first.AvatarURL == nil || *first.AvatarURL != "https://cdn.example.test/avatars/a.jpg?sig=1" {
		t.Errorf("first avatarUrl = %v", first.AvatarURL)
	}
	if first.FavoriteClub == nil || first.FavoriteClub.Name != "Ajax" {
		t.Errorf("first favoriteClub = %+v", first.FavoriteClub)
	}
	if second.DisplayName != "User #QQ01" {
		t.Errorf("collector without username displayName = %q, want User #QQ01", second.DisplayName)
	}
	if second.AvatarURL != nil {
		t.Errorf("failed signing should degrade to null avatarUrl, got %q", *second.AvatarURL)
	}
	if !third.IsAnonymous || third.DisplayName != "Collector #ZZ77" || third.Name != leaderboard.AnonymousName {
		t.Errorf("anonymous entry = %+v", third)
	}
	if third.AvatarURL != nil || third.FavoriteClub != nil {
		t.Errorf("anonymous entry leaked avatar/club: %+v", third)
	}
	if strings.Contains(rr.Body.String(), "secret") {
		t.Errorf("anonymous collector's username leaked: %s", rr.Body.String())
	}
}

func TestGetLeaderboard_RequesterOutsideWindow(t *testing.T) {
	store := seededStore()
	engine := leaderboard.NewEngine(leaderboard.EngineConfig{Source: store, Profiles: store})
	server := newLeaderboardServer(engine)

	req := httptest.NewRequest(http.MethodGet, "/api/leaderboard", nil)
	req.Header.Set("Authorization", bearerFor(t, "nobody"))
	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "currentUserRank") {
		t.Errorf("currentUserRank must be absent: %s", rr.Body.String())
	}
}

func TestGetLeaderboard_Defaults(t *testing.T) {
	builder := &stubBuilder{}
	server := newLeaderboardServer(builder)

	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/leaderboard", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var body responseBody
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Category != string(leaderboard.DefaultCategory) || body.Period != string(leaderboard.DefaultPeriod) {
		t.Errorf("defaults = %s/%s", body.Category, body.Period)
	}
	if body.Entries == nil {
		t.Error("entries should encode as [] not null")
	}
	if builder.requester != "" {
		t.Errorf("anonymous request passed requester %q", builder.requester)
	}
}

func TestGetLeaderboard_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{name: "unknown category", query: "?category=most_shirts"},
		{name: "unknown period", query: "?period=year"},
		{name: "case mismatch", query: "?category=Collection_Size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			builder := &stubBuilder{}
			rr := httptest.NewRecorder()
			newLeaderboardServer(builder).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/leaderboard"+tt.query, nil))

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rr.Code)
			}
			var resp ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Error.Code != ErrCodeValidation {
				t.Errorf("error.code = %q, want %q", resp.Error.Code, ErrCodeValidation)
			}
			if builder.calls != 0 {
				t.Error("builder must not run for invalid input")
			}
		})
	}
}

func TestGetLeaderboard_AggregationFailureIsOpaque(t *testing.T) {
	internal := errors.New(`pq: relation "ownership_records" does not exist`)
	builder := &stubBuilder{err: fmt.Errorf("%w: collection_size: %w", leaderboard.ErrAggregation, internal)}

	rr := httptest.NewRecorder()
	newLeaderboardServer(builder).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/leaderboard", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error.Code != ErrCodeInternal {
		t.Errorf("error.code = %q, want %q", resp.Error.Code, ErrCodeInternal)
	}
	if strings.Contains(resp.Error.Message, "ownership_records") || strings.Contains(resp.Error.Message, "pq:") {
		t.Errorf("internal detail leaked: %q", resp.Error.Message)
	}
}

func TestGetLeaderboard_MethodNotAllowed(t *testing.T) {
	rr := httptest.NewRecorder()
	newLeaderboardServer(&stubBuilder{}).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/leaderboard", nil))

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rr.Code)
	}
	if allow := rr.Header().Get("Allow"); allow != http.MethodGet {
		t.Errorf("Allow = %q, want GET", allow)
	}
}
