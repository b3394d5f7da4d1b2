package types

import "time"

// GooglePlace is the best Google Places text-search match for a query.
type GooglePlace struct {
	PlaceID          string       `json:"place_id"`
	Name             string       `json:"name"`
	Address          string       `json:"formatted_address,omitempty"`
	Location         *Coordinates `json:"location,omitempty"`
	Rating           *float64     `json:"rating,omitempty"`
	UserRatingsTotal *int         `json:"user_ratings_total,omitempty"`
	PhotoReference   string       `json:"photo_reference,omitempty"`
	MapsURL          string       `json:"maps_url,omitempty"`
}

// FoursquarePlace is the best Foursquare place-search match plus its popular tips.
type FoursquarePlace struct {
	FsqID      string          `json:"fsq_id"`
	Name       string          `json:"name"`
	Address    string          `json:"address,omitempty"`
	Location   *Coordinates    `json:"location,omitempty"`
	Rating     *float64        `json:"rating,omitempty"`
	Categories []string        `json:"categories,omitempty"`
	Tastes     []string        `json:"tastes,omitempty"`
	Tips       []FoursquareTip `json:"tips,omitempty"`
}

// FoursquareTip is a visitor tip excerpt.
type FoursquareTip struct {
	Text       string `json:"text"`
	AgreeCount int    `json:"agreeCount"`
}

// PlaceCacheEntry is one row of the place cache. Query is the normalized
// search string and the only identity of the entry.
type PlaceCacheEntry struct {
	Query       string           `json:"query"`
	Name        *string          `json:"name,omitempty"`
	Address     *string          `json:"address,omitempty"`
	Coordinates *Coordinates     `json:"coordinates,omitempty"`
	Google      *GooglePlace     `json:"google,omitempty"`
	Foursquare  *FoursquarePlace `json:"foursquare,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	ExpiresAt   time.Time        `json:"expires_at"`
}

// Valid reports whether the entry is still servable at now.
func (e *PlaceCacheEntry) Valid(now time.Time) bool {
	return e != nil && now.Before(e.ExpiresAt)
}
