package leaderboard

import (
	"math"
	"sort"
	"time"
)

// Top drops non-positive scores, orders the rest by value descending with
// user id ascending on ties, and keeps at most limit rows. The input slice is
// not modified.
func Top(scores []Score, limit int) []Score {
	out := make([]Score, 0, len(scores))
	for _, s := range scores {
		if s.Value > 0 {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].UserID < out[j].UserID
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// CollectionSize scores each collector by the number of records acquired at
// or after since. The metadata total sums purchase prices in whole cents.
func CollectionSize(records []OwnershipRecord, since time.Time) []Score {
	type acc struct {
		count int
		cents int64
	}
	var order []string
	byUser := make(map[string]*acc)
	for _, r := range records {
		if !since.IsZero() && r.CreatedAt.Before(since) {
			continue
		}
		a, ok := byUser[r.CollectorID]
		if !ok {
			a = &acc{}
			byUser[r.CollectorID] = a
			order = append(order, r.CollectorID)
		}
		a.count++
		if r.PurchasePrice != nil {
			a.cents += toMinorUnits(*r.PurchasePrice)
		}
	}

	scores := make([]Score, 0, len(order))
	for _, id := range order {
		a := byUser[id]
		total := fromMinorUnits(a.cents)
		scores = append(scores, Score{
			UserID: id,
			Value:  a.count,
			Metadata: Metadata{
				ItemCount:  a.count,
				TotalValue: &total,
			},
		})
	}
	return Top(scores, MaxEntries)
}

// CollectionDiversity scores each collector by distinct club ids.
func CollectionDiversity(records []OwnershipRecord) []Score {
	scores := countDistinct(records, func(r OwnershipRecord) string { return r.ClubID })
	for i := range scores {
		scores[i].Metadata = Metadata{UniqueClubs: scores[i].Value}
	}
	return Top(scores, MaxEntries)
}

// LeagueDiversity scores each collector by distinct league ids reached
// through their items' clubs.
func LeagueDiversity(records []OwnershipRecord) []Score {
	scores := countDistinct(records, func(r OwnershipRecord) string { return r.LeagueID })
	for i := range scores {
		scores[i].Metadata = Metadata{UniqueLeagues: scores[i].Value}
	}
	return Top(scores, MaxEntries)
}

// VintageSpecialist scores each collector by records whose season starts
// strictly before cutoffYear. Records with an unparseable season are skipped.
func VintageSpecialist(records []OwnershipRecord, cutoffYear int) []Score {
	var order []string
	counts := make(map[string]int)
	for _, r := range records {
		year, ok := SeasonStartYear(r.Season)
		if !ok || year >= cutoffYear {
			continue
		}
		if _, seen := counts[r.CollectorID]; !seen {
			order = append(order, r.CollectorID)
		}
		counts[r.CollectorID]++
	}

	scores := make([]Score, 0, len(order))
	for _, id := range order {
		scores = append(scores, Score{
			UserID:   id,
			Value:    counts[id],
			Metadata: Metadata{VintageItems: counts[id]},
		})
	}
	return Top(scores, MaxEntries)
}

// SeasonStartYear parses the start year from the first four characters of
// a season string. They must all be ASCII digits and the year must be
// positive, matching the filter in vintageSpecialistQuery.
func SeasonStartYear(season string) (int, bool) {
	if len(season) < 4 {
		return 0, false
	}
	year := 0
	for i := 0; i < 4; i++ {
		c := season[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		year = year*10 + int(c-'0')
	}
	if year == 0 {
		return 0, false
	}
	return year, true
}

// countDistinct counts distinct non-empty keys per collector, preserving
// first-seen collector order.
func countDistinct(records []OwnershipRecord, key func(OwnershipRecord) string) []Score {
	var order []string
	sets := make(map[string]map[string]struct{})
	for _, r := range records {
		k := key(r)
		if k == "" {
			continue
		}
		set, ok := sets[r.CollectorID]
		if !ok {
			set = make(map[string]struct{})
			sets[r.CollectorID] = set
			order = append(order, r.CollectorID)
		}
		set[k] = struct{}{}
	}

	scores := make([]Score, 0, len(order))
	for _, id := range order {
		scores = append(scores, Score{UserID: id, Value: len(sets[id])})
	}
	return scores
}

// toMinorUnits rounds a price to whole cents, half away from zero like a
// NUMERIC(12,2) column.
func toMinorUnits(v float64) int64 {
	return int64(math.Round(v * 100))
}

func fromMinorUnits(cents int64) float64 {
	return float64(cents) / 100
}
