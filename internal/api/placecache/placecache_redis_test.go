package placecache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-trip-itinerary/internal/types"
)

func TestRedisKey_Normalized(t *testing.T) {
	assert.Equal(t, "placecache:colosseum rome italy", redisKey("  Colosseum ROME Italy "))
	assert.Equal(t, redisKey("Trevi"), redisKey("trevi"))
}

func TestDecodeEntry(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	entry := NewEntry("pantheon", &types.GooglePlace{PlaceID: "g1", Name: "Pantheon"}, nil, now, DefaultTTL)
	data, err := json.Marshal(entry)
	require.NoError(t, err)

	got, err := decodeEntry(data)
	require.NoError(t, err)
	assert.Equal(t, "pantheon", got.Query)
	require.NotNil(t, got.Google)
	assert.Equal(t, "g1", got.Google.PlaceID)
	assert.True(t, got.ExpiresAt.Equal(now.Add(DefaultTTL)))

	_, err = decodeEntry([]byte("{not json"))
	assert.Error(t, err)
}

func TestRedisStore_UnreachableServer(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	store := NewRedisStore(rdb, DefaultTTL, testLogger())
	_, _, err := store.Get(context.Background(), "anything")
	assert.Error(t, err)
	assert.Error(t, store.Put(context.Background(), "anything", nil, nil))
}
