package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/onnwee/kitrank/internal/leaderboard"
	"github.com/onnwee/kitrank/internal/middleware"
)

// LeaderboardBuilder computes one leaderboard. *leaderboard.Engine implements it.
type LeaderboardBuilder interface {
	Build(ctx context.Context, category leaderboard.Category, period leaderboard.Period, requesterID string) (*leaderboard.Result, error)
}

// LeaderboardHandlers serves GET /api/leaderboard.
type LeaderboardHandlers struct {
	builder LeaderboardBuilder
}

// NewLeaderboardHandlers creates the leaderboard handlers.
func NewLeaderboardHandlers(builder LeaderboardBuilder) *LeaderboardHandlers {
	return &LeaderboardHandlers{builder: builder}
}

// GetLeaderboard handles GET /api/leaderboard?category=&period=.
// Both parameters are optional and default to collection_size and all_time.
// The requester is whoever OptionalAuth identified upstream.
func (h *LeaderboardHandlers) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed")
		return
	}

	query := r.URL.Query()
	category, err := leaderboard.ParseCategory(query.Get("category"))
	if err != nil {
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "Unknown category")
		return
	}
	period, err := leaderboard.ParsePeriod(query.Get("period"))
	if err != nil {
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "Unknown period")
		return
	}

	result, err := h.builder.Build(ctx, category, period, middleware.GetUserID(ctx))
	if err != nil {
		switch {
		case errors.Is(err, leaderboard.ErrInvalidCategory), errors.Is(err, leaderboard.ErrInvalidPeriod):
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, err.Error())
		default:
			slog.ErrorContext(ctx, "failed to build leaderboard",
				"category", category, "period", period, "error", err)
			WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to build leaderboard")
		}
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, ctx, http.StatusOK, result)
}
