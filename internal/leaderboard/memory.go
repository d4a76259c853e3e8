package leaderboard

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore holds collectors and ownership records in memory. It
// implements Source and ProfileStore and is used in tests and local runs.
type InMemoryStore struct {
	mu         sync.RWMutex
	collectors map[string]Collector
	records    []OwnershipRecord
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		collectors: make(map[string]Collector),
	}
}

// AddCollector inserts or replaces a collector profile.
func (s *InMemoryStore) AddCollector(c Collector) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collectors[c.ID] = c
}

// AddRecord appends an ownership record.
func (s *InMemoryStore) AddRecord(r OwnershipRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
}

// snapshot returns a copy of the records so aggregation runs without the lock.
func (s *InMemoryStore) snapshot() []OwnershipRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]OwnershipRecord, len(s.records))
	copy(out, s.records)
	return out
}

// CollectionSize implements Source.
func (s *InMemoryStore) CollectionSize(ctx context.Context, since time.Time) ([]Score, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return CollectionSize(s.snapshot(), since), nil
}

// CollectionDiversity implements Source.
func (s *InMemoryStore) CollectionDiversity(ctx context.Context) ([]Score, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return CollectionDiversity(s.snapshot()), nil
}

// LeagueDiversity implements Source.
func (s *InMemoryStore) LeagueDiversity(ctx context.Context) ([]Score, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return LeagueDiversity(s.snapshot()), nil
}

// VintageSpecialist implements Source.
func (s *InMemoryStore) VintageSpecialist(ctx context.Context, cutoffYear int) ([]Score, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return VintageSpecialist(s.snapshot(), cutoffYear), nil
}

// Collectors implements ProfileStore.
func (s *InMemoryStore) Collectors(ctx context.Context, ids []string) (map[string]Collector, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Collector, len(ids))
	for _, id := range ids {
		if c, ok := s.collectors[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}
