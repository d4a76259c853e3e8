package leaderboard

import (
	"context"
	"errors"
	"time"
)

// Category identifies one of the fixed scoring functions.
type Category string

// Supported categories. Adding one means adding a row to dispatch.
const (
	CategoryCollectionSize      Category = "collection_size"
	CategoryCollectionDiversity Category = "collection_diversity"
	CategoryLeagueDiversity     Category = "league_diversity"
	CategoryVintageSpecialist   Category = "vintage_specialist"
)

// Period restricts which acquisitions count toward a score.
type Period string

// Supported periods.
const (
	PeriodAllTime Period = "all_time"
	PeriodMonth   Period = "month"
)

// Defaults applied when a request leaves category or period empty.
const (
	DefaultCategory = CategoryCollectionSize
	DefaultPeriod   = PeriodAllTime
)

// VintageCutoffYear is the exclusive upper bound on a season's start year
// for an item to count as vintage.
const VintageCutoffYear = 2005

var (
	// ErrInvalidCategory is returned for a category outside the fixed set.
	ErrInvalidCategory = errors.New("invalid leaderboard category")
	// ErrInvalidPeriod is returned for a period other than all_time or month.
	ErrInvalidPeriod = errors.New("invalid leaderboard period")
)

// aggregateFunc runs one category's aggregation against a source. since is
// the zero time when no period filter applies.
type aggregateFunc func(ctx context.Context, src Source, since time.Time) ([]Score, error)

type definition struct {
	aggregate     aggregateFunc
	supportsMonth bool
}

var dispatch = map[Category]definition{
	CategoryCollectionSize: {
		aggregate: func(ctx context.Context, src Source, since time.Time) ([]Score, error) {
			return src.CollectionSize(ctx, since)
		},
		supportsMonth: true,
	},
	CategoryCollectionDiversity: {
		aggregate: func(ctx context.Context, src Source, _ time.Time) ([]Score, error) {
			return src.CollectionDiversity(ctx)
		},
	},
	CategoryLeagueDiversity: {
		aggregate: func(ctx context.Context, src Source, _ time.Time) ([]Score, error) {
			return src.LeagueDiversity(ctx)
		},
	},
	CategoryVintageSpecialist: {
		aggregate: func(ctx context.Context, src Source, _ time.Time) ([]Score, error) {
			return src.VintageSpecialist(ctx, VintageCutoffYear)
		},
	},
}

// Categories returns the supported categories in display order.
func Categories() []Category {
	return []Category{
		CategoryCollectionSize,
		CategoryCollectionDiversity,
		CategoryLeagueDiversity,
		CategoryVintageSpecialist,
	}
}

// ParseCategory validates s. An empty string yields DefaultCategory.
func ParseCategory(s string) (Category, error) {
	if s == "" {
		return DefaultCategory, nil
	}
	c := Category(s)
	if _, ok := dispatch[c]; !ok {
		return "", ErrInvalidCategory
	}
	return c, nil
}

// ParsePeriod validates s. An empty string yields DefaultPeriod.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "":
		return DefaultPeriod, nil
	case PeriodAllTime, PeriodMonth:
		return Period(s), nil
	default:
		return "", ErrInvalidPeriod
	}
}

// SupportsMonth reports whether the category honors PeriodMonth. Other
// categories always compute over all time.
func (c Category) SupportsMonth() bool {
	return dispatch[c].supportsMonth
}

// MonthStart returns the first instant of the calendar month containing now,
// evaluated in loc.
func MonthStart(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
}
