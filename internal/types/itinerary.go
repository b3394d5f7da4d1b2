package types

import (
	"time"

	"github.com/google/uuid"
)

// ActivityCategory classifies an itinerary activity.
type ActivityCategory string

const (
	CategoryAttraction    ActivityCategory = "attraction"
	CategoryRestaurant    ActivityCategory = "restaurant"
	CategoryTransport     ActivityCategory = "transport"
	CategoryAccommodation ActivityCategory = "accommodation"
	CategoryActivity      ActivityCategory = "activity"
)

// Valid reports whether c is one of the known categories.
func (c ActivityCategory) Valid() bool {
	switch c {
	case CategoryAttraction, CategoryRestaurant, CategoryTransport, CategoryAccommodation, CategoryActivity:
		return true
	}
	return false
}

// PreferenceSummary is the structured quiz result the generator is driven by.
// It is produced outside this service and treated as read-only.
type PreferenceSummary struct {
	Destinations        []string `json:"destinations"`
	Duration            string   `json:"duration"`               // weekend, week, two-weeks, month or "N days"
	Budget              string   `json:"budget"`                 // economic, moderate, luxury
	TravelStyles        []string `json:"travelStyles,omitempty"` // culture, gastronomy, nature...
	Travelers           string   `json:"travelers,omitempty"`    // solo, couple, family, friends
	Interests           string   `json:"interests,omitempty"`
	ConversationContext string   `json:"conversationContext,omitempty"`
}

// Coordinates is a WGS84 coordinate pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Itinerary is the generated travel plan. Before ID and CreatedAt are stamped it
// is a draft as returned by the extractor.
type Itinerary struct {
	ID           uuid.UUID `json:"id"`
	CreatedAt    time.Time `json:"createdAt"`
	Title        string    `json:"title"`
	Summary      string    `json:"summary"`
	Duration     string    `json:"duration"`
	TotalBudget  string    `json:"totalBudget"`
	Destinations []string  `json:"destinations"`
	Days         []DayPlan `json:"days"`
}

// DayPlan is one day of an itinerary. Day is 1-based and contiguous.
type DayPlan struct {
	Day         int          `json:"day"`
	Date        string       `json:"date"`
	City        string       `json:"city"`
	Country     string       `json:"country"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	Highlights  []string     `json:"highlights"`
	Activities  []Activity   `json:"activities"`
}

// Activity is a single slot in a day plan. The Google* and Foursquare* groups
// are populated by enrichment and never overwrite each other.
type Activity struct {
	ID          string           `json:"id"`
	Time        string           `json:"time"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Location    string           `json:"location"`
	Coordinates *Coordinates     `json:"coordinates,omitempty"`
	Duration    string           `json:"duration"`
	Category    ActivityCategory `json:"category"`
	Tip         *string          `json:"tips,omitempty"`
	Cost        *string          `json:"cost,omitempty"`

	PlaceID          *string  `json:"placeId,omitempty"`
	PhotoReference   *string  `json:"photoReference,omitempty"`
	Rating           *float64 `json:"rating,omitempty"`
	UserRatingsTotal *int     `json:"userRatingsTotal,omitempty"`
	GoogleMapsURL    *string  `json:"googleMapsUrl,omitempty"`

	FoursquareID         *string         `json:"foursquareId,omitempty"`
	FoursquareRating     *float64        `json:"foursquareRating,omitempty"`
	FoursquareCategories []string        `json:"foursquareCategories,omitempty"`
	FoursquareTastes     []string        `json:"foursquareTastes,omitempty"`
	FoursquareTips       []FoursquareTip `json:"foursquareTips,omitempty"`
}

// Enriched reports whether any provider field has been populated.
func (a Activity) Enriched() bool {
	return a.PlaceID != nil || a.PhotoReference != nil || a.Rating != nil ||
		a.UserRatingsTotal != nil || a.GoogleMapsURL != nil ||
		a.FoursquareID != nil || a.FoursquareRating != nil ||
		len(a.FoursquareCategories) > 0 || len(a.FoursquareTastes) > 0 || len(a.FoursquareTips) > 0
}

// ActivityCount returns the number of activities across all days.
func (i *Itinerary) ActivityCount() int {
	n := 0
	for _, d := range i.Days {
		n += len(d.Activities)
	}
	return n
}

// GenerateItineraryRequest is the HTTP payload accepted by the generate endpoint.
type GenerateItineraryRequest struct {
	Preferences PreferenceSummary `json:"preferences"`
}
