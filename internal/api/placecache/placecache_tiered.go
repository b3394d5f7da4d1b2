package placecache

import (
	"context"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/FACorreiaa/go-trip-itinerary/internal/types"
)

var _ Store = (*TieredStore)(nil)

// TieredStore fronts a durable Store with an in-process cache. A memory
// entry never outlives the durable entry it mirrors.
type TieredStore struct {
	logger    *slog.Logger
	durable   Store
	memory    *cache.Cache
	memoryTTL time.Duration
	ttl       time.Duration
	now       func() time.Time
}

// NewTieredStore wraps durable. memoryTTL caps how long a row is served from
// memory; ttl is the expiry written by Put.
func NewTieredStore(durable Store, memoryTTL, ttl time.Duration, logger *slog.Logger) *TieredStore {
	if memoryTTL <= 0 {
		memoryTTL = 10 * time.Minute
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TieredStore{
		logger:    logger,
		durable:   durable,
		memory:    cache.New(memoryTTL, 2*memoryTTL),
		memoryTTL: memoryTTL,
		ttl:       ttl,
		now:       time.Now,
	}
}

func (s *TieredStore) Get(ctx context.Context, query string) (*types.GooglePlace, *types.FoursquarePlace, error) {
	entry, err := s.Entry(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	g, f := components(entry, s.now())
	return g, f, nil
}

// Entry checks memory first and falls back to the durable store, warming
// memory on a durable hit.
func (s *TieredStore) Entry(ctx context.Context, query string) (*types.PlaceCacheEntry, error) {
	key := NormalizeQuery(query)
	now := s.now()

	if v, found := s.memory.Get(key); found {
		if entry, ok := v.(*types.PlaceCacheEntry); ok && entry.Valid(now) {
			return entry, nil
		}
		s.memory.Delete(key)
	}

	entry, err := s.durable.Entry(ctx, key)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		s.remember(entry, now)
	}
	return entry, nil
}

// Put writes through to the durable store.
func (s *TieredStore) Put(ctx context.Context, query string, google *types.GooglePlace, foursquare *types.FoursquarePlace) error {
	now := s.now()
	s.remember(NewEntry(query, google, foursquare, now, s.ttl), now)

	if err := s.durable.Put(ctx, query, google, foursquare); err != nil {
		s.logger.WarnContext(ctx, "Durable place cache write failed, entry kept in memory only",
			slog.String("query", NormalizeQuery(query)), slog.Any("error", err))
		return err
	}
	return nil
}

// remember caches entry in memory for at most memoryTTL and never past its
// ExpiresAt.
func (s *TieredStore) remember(entry *types.PlaceCacheEntry, now time.Time) {
	ttl := s.memoryTTL
	if remaining := entry.ExpiresAt.Sub(now); remaining < ttl {
		ttl = remaining
	}
	if ttl <= 0 {
		return
	}
	s.memory.Set(entry.Query, entry, ttl)
}
