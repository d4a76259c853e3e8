package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/onnwee/kitrank/internal/tracing"
)

// ErrAggregation wraps any storage or query failure while building a
// leaderboard. Callers should surface it as an opaque internal error.
var ErrAggregation = errors.New("leaderboard aggregation failed")

// DefaultAvatarTimeout bounds the avatar fan-out of a single build.
const DefaultAvatarTimeout = 5 * time.Second

// EngineConfig configures an Engine.
type EngineConfig struct {
	Source   Source
	Profiles ProfileStore
	// Signer is optional; without one every avatarUrl is null.
	Signer Signer
	// Location decides where the current month begins. Defaults to UTC.
	Location *time.Location
	// AvatarTimeout bounds avatar resolution. Defaults to DefaultAvatarTimeout.
	AvatarTimeout time.Duration
	Metrics       *Metrics
	Logger        *slog.Logger
}

// Engine assembles leaderboards. It holds no per-request state and is safe
// for concurrent use.
type Engine struct {
	source        Source
	profiles      ProfileStore
	signer        Signer
	location      *time.Location
	avatarTimeout time.Duration
	metrics       *Metrics
	logger        *slog.Logger
	timeNow       func() time.Time
}

// NewEngine creates an Engine.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.AvatarTimeout <= 0 {
		cfg.AvatarTimeout = DefaultAvatarTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Engine{
		source:        cfg.Source,
		profiles:      cfg.Profiles,
		signer:        cfg.Signer,
		location:      cfg.Location,
		avatarTimeout: cfg.AvatarTimeout,
		metrics:       cfg.Metrics,
		logger:        cfg.Logger,
		timeNow:       time.Now,
	}
}

// Build computes the leaderboard for category and period. requesterID may be
// empty; when it names a collector inside the returned window,
// CurrentUserRank is set.
func (e *Engine) Build(ctx context.Context, category Category, period Period, requesterID string) (result *Result, err error) {
	def, ok := dispatch[category]
	if !ok {
		return nil, ErrInvalidCategory
	}
	if period != PeriodAllTime && period != PeriodMonth {
		return nil, ErrInvalidPeriod
	}

	ctx, endSpan := tracing.StartSpan(ctx, "leaderboard.build")
	defer func() { endSpan(err) }()
	tracing.SetAttributes(ctx,
		attribute.String("leaderboard.category", string(category)),
		attribute.String("leaderboard.period", string(period)),
	)

	start := e.timeNow()

	var since time.Time
	if period == PeriodMonth && def.supportsMonth {
		since = MonthStart(start, e.location)
	}

	scores, err := def.aggregate(ctx, e.source, since)
	if err != nil {
		e.metrics.incBuildErrors(category)
		e.logger.ErrorContext(ctx, "leaderboard aggregation failed",
			"category", category, "period", period, "error", err)
		return nil, fmt.Errorf("%w: %s: %w", ErrAggregation, category, err)
	}
	scores = Top(scores, MaxEntries)

	ids := make([]string, len(scores))
	for i, s := range scores {
		ids[i] = s.UserID
	}
	profiles := map[string]Collector{}
	if len(ids) > 0 {
		profiles, err = e.profiles.Collectors(ctx, ids)
		if err != nil {
			e.metrics.incBuildErrors(category)
			e.logger.ErrorContext(ctx, "leaderboard profile lookup failed",
				"category", category, "period", period, "error", err)
			return nil, fmt.Errorf("%w: profiles: %w", ErrAggregation, err)
		}
	}

	entries := make([]Entry, len(scores))
	for i, s := range scores {
		rank := i + 1
		provisional := Entry{
			Rank:     rank,
			UserID:   s.UserID,
			Score:    s.Value,
			Metadata: s.Metadata,
			HasBadge: rank <= BadgeRanks,
		}
		c, ok := profiles[s.UserID]
		if !ok {
			c = Collector{ID: s.UserID}
		}
		entries[i] = Mask(provisional, c)
	}

	avatarCtx, cancel := context.WithTimeout(ctx, e.avatarTimeout)
	entries, failed := ResolveAvatars(avatarCtx, e.signer, entries)
	cancel()
	e.metrics.addSignFailures(failed)
	tracing.AddEvent(ctx, "avatars.resolved", attribute.Int("failed", failed))

	result = &Result{
		Period:      period,
		Category:    category,
		Entries:     entries,
		LastUpdated: e.timeNow().UTC(),
	}
	if rank, ok := RequesterRank(entries, requesterID); ok {
		result.CurrentUserRank = &rank
	}

	e.metrics.observeBuild(category, e.timeNow().Sub(start).Seconds(), len(entries))
	return result, nil
}

// RequesterRank finds requesterID inside entries. Collectors outside the
// window are never ranked.
func RequesterRank(entries []Entry, requesterID string) (int, bool) {
	if requesterID == "" {
		return 0, false
	}
	for _, e := range entries {
		if e.UserID == requesterID {
			return e.Rank, true
		}
	}
	return 0, false
}
