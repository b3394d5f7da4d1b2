package placecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/FACorreiaa/go-trip-itinerary/internal/types"
)

const redisKeyPrefix = "placecache:"

var _ Store = (*RedisStore)(nil)

// RedisStore keeps one JSON entry per normalized query. The Redis key TTL is
// the remaining lifetime of the entry; ExpiresAt is still checked on read.
type RedisStore struct {
	logger *slog.Logger
	rdb    redis.Cmdable
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisStore stores entries under placecache:<normalized query> with a
// Redis TTL matching ExpiresAt.
func NewRedisStore(rdb redis.Cmdable, ttl time.Duration, logger *slog.Logger) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{
		logger: logger,
		rdb:    rdb,
		ttl:    ttl,
		now:    time.Now,
	}
}

func redisKey(query string) string {
	return redisKeyPrefix + NormalizeQuery(query)
}

func (s *RedisStore) Get(ctx context.Context, query string) (*types.GooglePlace, *types.FoursquarePlace, error) {
	entry, err := s.Entry(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	g, f := components(entry, s.now())
	return g, f, nil
}

// Entry returns nil on redis.Nil or an expired row.
func (s *RedisStore) Entry(ctx context.Context, query string) (*types.PlaceCacheEntry, error) {
	data, err := s.rdb.Get(ctx, redisKey(query)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read place cache entry from redis: %w", err)
	}

	entry, err := decodeEntry(data)
	if err != nil {
		return nil, err
	}
	if !entry.Valid(s.now()) {
		return nil, nil
	}
	return entry, nil
}

// Put overwrites the key and resets its expiry.
func (s *RedisStore) Put(ctx context.Context, query string, google *types.GooglePlace, foursquare *types.FoursquarePlace) error {
	now := s.now()
	entry := NewEntry(query, google, foursquare, now, s.ttl)
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode place cache entry: %w", err)
	}
	if err := s.rdb.Set(ctx, redisKey(query), data, entry.ExpiresAt.Sub(now)).Err(); err != nil {
		return fmt.Errorf("failed to write place cache entry to redis: %w", err)
	}
	s.logger.DebugContext(ctx, "Place cache entry stored in redis", slog.String("query", entry.Query))
	return nil
}

func decodeEntry(data []byte) (*types.PlaceCacheEntry, error) {
	var entry types.PlaceCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode place cache entry: %w", err)
	}
	return &entry, nil
}
