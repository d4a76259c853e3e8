package leaderboard

import (
	"context"
	"time"
)

// MaxEntries caps every ranked list. Masking and avatar signing scale with it.
const MaxEntries = 50

// BadgeRanks is the number of top ranks that carry a badge.
const BadgeRanks = 3

// ClubRef is a collector's favorite club as exposed on the leaderboard.
type ClubRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Collector is the profile data the engine reads for each ranked user.
type Collector struct {
	ID                   string
	Username             *string
	Name                 string
	AvatarRef            *string // opaque storage key
	FavoriteClub         *ClubRef
	LeaderboardAnonymous bool
}

// OwnershipRecord links one collector to one owned catalog item, with the
// item's category attributes denormalized onto it.
type OwnershipRecord struct {
	CollectorID   string
	ItemID        string
	CreatedAt     time.Time
	PurchasePrice *float64
	ClubID        string
	LeagueID      string
	Season        string // e.g. "1998-99"; first four characters are the start year
}

// Metadata carries category-specific figures alongside a score.
type Metadata struct {
	ItemCount     int      `json:"itemCount,omitempty"`
	TotalValue    *float64 `json:"totalValue,omitempty"`
	UniqueClubs   int      `json:"uniqueClubs,omitempty"`
	UniqueLeagues int      `json:"uniqueLeagues,omitempty"`
	VintageItems  int      `json:"vintageItems,omitempty"`
}

// Score is one aggregated row: a collector and their raw score.
type Score struct {
	UserID   string
	Value    int
	Metadata Metadata
}

// Entry is a ranked, masked, and resolved leaderboard row.
type Entry struct {
	Rank         int      `json:"rank"`
	UserID       string   `json:"userId"`
	DisplayName  string   `json:"displayName"`
	Name         string   `json:"name"`
	AvatarURL    *string  `json:"avatarUrl"`
	FavoriteClub *ClubRef `json:"favoriteClub"`
	Score        int      `json:"score"`
	Metadata     Metadata `json:"metadata"`
	IsAnonymous  bool     `json:"isAnonymous"`
	HasBadge     bool     `json:"hasBadge"`

	avatarRef *string
}

// Result is the full response for one (category, period) request.
type Result struct {
	Period          Period    `json:"period"`
	Category        Category  `json:"category"`
	Entries         []Entry   `json:"entries"`
	CurrentUserRank *int      `json:"currentUserRank,omitempty"`
	LastUpdated     time.Time `json:"lastUpdated"`
}

// Source aggregates ownership records into unsorted or sorted scores.
// Implementations must drop zero scores; the engine re-sorts and caps.
type Source interface {
	// CollectionSize counts records per collector acquired at or after since.
	// A zero since means no filter.
	CollectionSize(ctx context.Context, since time.Time) ([]Score, error)
	// CollectionDiversity counts distinct clubs per collector.
	CollectionDiversity(ctx context.Context) ([]Score, error)
	// LeagueDiversity counts distinct leagues per collector.
	LeagueDiversity(ctx context.Context) ([]Score, error)
	// VintageSpecialist counts records whose season starts before cutoffYear.
	VintageSpecialist(ctx context.Context, cutoffYear int) ([]Score, error)
}

// ProfileStore looks up collector profiles by id. Missing ids are omitted
// from the returned map.
type ProfileStore interface {
	Collectors(ctx context.Context, ids []string) (map[string]Collector, error)
}

// Signer issues a time-boxed URL for a stored object key.
type Signer interface {
	SignAvatar(ctx context.Context, key string, expiry time.Duration) (string, error)
}
