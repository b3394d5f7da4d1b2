package placecache

import (
	"context"
	"strings"
	"time"

	"github.com/FACorreiaa/go-trip-itinerary/internal/types"
)

// DefaultTTL is how long a merged provider lookup stays servable.
const DefaultTTL = 30 * 24 * time.Hour

// Store is the durable place cache keyed by normalized query.
type Store interface {
	// Get returns the cached provider records for query. Both are nil on a miss
	// or when the stored entry has expired.
	Get(ctx context.Context, query string) (*types.GooglePlace, *types.FoursquarePlace, error)
	// Put upserts the merged entry for query with a fresh expiry.
	Put(ctx context.Context, query string, google *types.GooglePlace, foursquare *types.FoursquarePlace) error
	// Entry returns the full valid entry for query, or nil.
	Entry(ctx context.Context, query string) (*types.PlaceCacheEntry, error)
}

// NormalizeQuery case-folds and trims a search query. The result is the only
// identity of a cache entry.
func NormalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// NewEntry builds the merged cache row for query. Name, address and
// coordinates take the first non-nil value across providers, Google first.
func NewEntry(query string, google *types.GooglePlace, foursquare *types.FoursquarePlace, now time.Time, ttl time.Duration) *types.PlaceCacheEntry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	entry := &types.PlaceCacheEntry{
		Query:      NormalizeQuery(query),
		Google:     google,
		Foursquare: foursquare,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}
	entry.Name, entry.Address, entry.Coordinates = mergeVenue(google, foursquare)
	return entry
}

func mergeVenue(google *types.GooglePlace, foursquare *types.FoursquarePlace) (*string, *string, *types.Coordinates) {
	var name, address *string
	var coords *types.Coordinates

	if google != nil {
		name = nonEmpty(google.Name)
		address = nonEmpty(google.Address)
		coords = google.Location
	}
	if foursquare != nil {
		if name == nil {
			name = nonEmpty(foursquare.Name)
		}
		if address == nil {
			address = nonEmpty(foursquare.Address)
		}
		if coords == nil {
			coords = foursquare.Location
		}
	}
	return name, address, coords
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// components splits a valid entry into the two provider records.
func components(entry *types.PlaceCacheEntry, now time.Time) (*types.GooglePlace, *types.FoursquarePlace) {
	if !entry.Valid(now) {
		return nil, nil
	}
	return entry.Google, entry.Foursquare
}
