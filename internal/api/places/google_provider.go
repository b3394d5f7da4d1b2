package places

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-itinerary/internal/types"
)

const (
	googleProviderName    = "google"
	defaultGoogleBaseURL  = "https://maps.googleapis.com/maps/api/place"
	googleMapsPlaceURL    = "https://www.google.com/maps/place/?q=place_id:"
	googleBiasRadiusMeter = 20000
)

// GoogleProvider looks up a venue with the Places Text Search API.
type GoogleProvider struct {
	logger   *slog.Logger
	http     *httpClient
	apiKey   string
	baseURL  string
	language string
}

func NewGoogleProvider(cfg ClientConfig, transport http.RoundTripper, logger *slog.Logger) *GoogleProvider {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultGoogleBaseURL
	}
	return &GoogleProvider{
		logger:   logger.With(slog.String("provider", googleProviderName)),
		http:     newHTTPClient(cfg, transport),
		apiKey:   cfg.APIKey,
		baseURL:  baseURL,
		language: cfg.Language,
	}
}

// Enabled reports whether an API key is configured.
func (p *GoogleProvider) Enabled() bool {
	return p.apiKey != ""
}

type googleTextSearchResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		PlaceID          string `json:"place_id"`
		Name             string `json:"name"`
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location *types.Coordinates `json:"location"`
		} `json:"geometry"`
		Rating           *float64 `json:"rating"`
		UserRatingsTotal *int     `json:"user_ratings_total"`
		Photos           []struct {
			PhotoReference string `json:"photo_reference"`
		} `json:"photos"`
	} `json:"results"`
}

// Search returns the best match for query, optionally biased towards bias.
func (p *GoogleProvider) Search(ctx context.Context, query string, bias *types.Coordinates) Result[types.GooglePlace] {
	if !p.Enabled() {
		return NotFound[types.GooglePlace]()
	}

	ctx, span := otel.Tracer("PlaceProviders").Start(ctx, "GoogleProvider.Search", trace.WithAttributes(
		attribute.String("place.query", query),
	))
	defer span.End()

	params := url.Values{}
	params.Set("query", query)
	params.Set("key", p.apiKey)
	if p.language != "" {
		params.Set("language", p.language)
	}
	if bias != nil {
		params.Set("location", fmt.Sprintf("%f,%f", bias.Lat, bias.Lng))
		params.Set("radius", fmt.Sprintf("%d", googleBiasRadiusMeter))
	}

	var body googleTextSearchResponse
	status, err := p.http.getJSON(ctx, p.baseURL+"/textsearch/json?"+params.Encode(), nil, &body)
	if err != nil {
		switch {
		case errors.Is(err, errCallTimeout):
			p.logger.WarnContext(ctx, "Google text search timed out", slog.String("query", query))
			span.SetStatus(codes.Error, "timeout")
			return NotFound[types.GooglePlace]()
		case status != 0 && !isAuthStatus(status):
			p.logger.WarnContext(ctx, "Google text search returned non-success status",
				slog.String("query", query), slog.Int("status", status))
			return NotFound[types.GooglePlace]()
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return Failed[types.GooglePlace](googleProviderName, err)
	}

	switch body.Status {
	case "OK":
	case "REQUEST_DENIED", "INVALID_REQUEST":
		err := fmt.Errorf("%s: %s", strings.ToLower(body.Status), body.ErrorMessage)
		span.RecordError(err)
		span.SetStatus(codes.Error, "request denied")
		return Failed[types.GooglePlace](googleProviderName, err)
	default:
		p.logger.DebugContext(ctx, "Google text search found nothing",
			slog.String("query", query), slog.String("status", body.Status))
		return NotFound[types.GooglePlace]()
	}
	if len(body.Results) == 0 {
		return NotFound[types.GooglePlace]()
	}

	top := body.Results[0]
	place := &types.GooglePlace{
		PlaceID:          top.PlaceID,
		Name:             top.Name,
		Address:          top.FormattedAddress,
		Location:         top.Geometry.Location,
		Rating:           top.Rating,
		UserRatingsTotal: top.UserRatingsTotal,
	}
	if len(top.Photos) > 0 {
		place.PhotoReference = top.Photos[0].PhotoReference
	}
	if top.PlaceID != "" {
		place.MapsURL = googleMapsPlaceURL + top.PlaceID
	}

	span.SetAttributes(attribute.String("place.id", place.PlaceID))
	span.SetStatus(codes.Ok, "place found")
	return Found(place)
}
