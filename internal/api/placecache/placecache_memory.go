package placecache

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/FACorreiaa/go-trip-itinerary/internal/types"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is a process-local Store used when no durable backend is
// configured and in tests.
type MemoryStore struct {
	items *cache.Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewMemoryStore returns an empty store whose rows live for ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		// rows expire by ExpiresAt on read
		items: cache.New(cache.NoExpiration, time.Hour),
		ttl:   ttl,
		now:   time.Now,
	}
}

// WithClock replaces the store clock.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

// Get never fails; a missing or expired row is a miss.
func (s *MemoryStore) Get(ctx context.Context, query string) (*types.GooglePlace, *types.FoursquarePlace, error) {
	entry, _ := s.Entry(ctx, query)
	g, f := components(entry, s.now())
	return g, f, nil
}

func (s *MemoryStore) Entry(_ context.Context, query string) (*types.PlaceCacheEntry, error) {
	v, found := s.items.Get(NormalizeQuery(query))
	if !found {
		return nil, nil
	}
	entry := v.(*types.PlaceCacheEntry)
	if !entry.Valid(s.now()) {
		return nil, nil
	}
	return entry, nil
}

// Put replaces any previous row for the normalized query.
func (s *MemoryStore) Put(_ context.Context, query string, google *types.GooglePlace, foursquare *types.FoursquarePlace) error {
	entry := NewEntry(query, google, foursquare, s.now(), s.ttl)
	s.items.Set(entry.Query, entry, cache.NoExpiration)
	return nil
}

// Len returns the number of stored rows, including expired ones.
func (s *MemoryStore) Len() int {
	return s.items.ItemCount()
}
