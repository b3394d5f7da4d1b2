package placecache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-trip-itinerary/internal/types"
)

func ptr[T any](v T) *T { return &v }

func TestNormalizeQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"mixed case", "Torre Eiffel", "torre eiffel"},
		{"padded", "  torre eiffel  ", "torre eiffel"},
		{"upper", "TORRE EIFFEL", "torre eiffel"},
		{"tabs and newlines", "\tTorre Eiffel\n", "torre eiffel"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeQuery(tt.query))
		})
	}
}

func TestNewEntry_MergePrefersGoogle(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	google := &types.GooglePlace{PlaceID: "g1", Name: "Eiffel Tower", Location: &types.Coordinates{Lat: 48.8584, Lng: 2.2945}}
	foursquare := &types.FoursquarePlace{FsqID: "f1", Name: "Tour Eiffel", Address: "Champ de Mars, 5 Av. Anatole France"}

	entry := NewEntry("  Torre Eiffel ", google, foursquare, now, 0)

	assert.Equal(t, "torre eiffel", entry.Query)
	require.NotNil(t, entry.Name)
	assert.Equal(t, "Eiffel Tower", *entry.Name)
	require.NotNil(t, entry.Address)
	assert.Equal(t, "Champ de Mars, 5 Av. Anatole France", *entry.Address, "address falls back to foursquare when google has none")
	assert.Equal(t, google.Location, entry.Coordinates)
	assert.Equal(t, now.Add(DefaultTTL), entry.ExpiresAt)
}

func TestNewEntry_BothNotFound(t *testing.T) {
	now := time.Now()
	entry := NewEntry("nowhere", nil, nil, now, time.Hour)
	assert.Nil(t, entry.Name)
	assert.Nil(t, entry.Address)
	assert.Nil(t, entry.Coordinates)
	assert.True(t, entry.Valid(now))
}

func TestMemoryStore_TTL(t *testing.T) {
	ctx := context.Background()
	written := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := written
	store := NewMemoryStore(DefaultTTL).WithClock(func() time.Time { return clock })

	require.NoError(t, store.Put(ctx, "Torre Eiffel", &types.GooglePlace{PlaceID: "g1", Name: "Eiffel Tower"}, nil))

	clock = written.Add(DefaultTTL - time.Second)
	g, f, err := store.Get(ctx, "torre eiffel")
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Equal(t, "g1", g.PlaceID)
	assert.Nil(t, f)

	clock = written.Add(DefaultTTL)
	g, f, err = store.Get(ctx, "torre eiffel")
	require.NoError(t, err)
	assert.Nil(t, g, "entry at exactly the expiry instant is a miss")
	assert.Nil(t, f)
	assert.Equal(t, 1, store.Len(), "expired row still physically exists")
}

func TestMemoryStore_KeyNormalization(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	require.NoError(t, store.Put(ctx, "Torre Eiffel", nil, &types.FoursquarePlace{FsqID: "f1"}))

	for _, q := range []string{"Torre Eiffel", "  torre eiffel  ", "TORRE EIFFEL"} {
		_, f, err := store.Get(ctx, q)
		require.NoError(t, err)
		require.NotNil(t, f, q)
		assert.Equal(t, "f1", f.FsqID)
	}
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_UpsertReplacesExpired(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemoryStore(time.Hour).WithClock(func() time.Time { return clock })

	require.NoError(t, store.Put(ctx, "Coliseu Roma Itália", &types.GooglePlace{PlaceID: "old"}, nil))
	clock = clock.Add(2 * time.Hour)
	require.NoError(t, store.Put(ctx, "coliseu roma itália", &types.GooglePlace{PlaceID: "new"}, nil))

	g, _, err := store.Get(ctx, "COLISEU ROMA ITÁLIA")
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Equal(t, "new", g.PlaceID)
	assert.Equal(t, 1, store.Len())
}
