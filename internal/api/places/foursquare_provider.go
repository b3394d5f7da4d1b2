package places

import (
	"context"
	"errors"
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
	foursquareProviderName   = "foursquare"
	defaultFoursquareBaseURL = "https://api.foursquare.com/v3"
	foursquareSearchFields   = "fsq_id,name,location,geocodes,rating,categories,tastes"
	foursquareTipLimit       = "3"
)

// FoursquareProvider looks up a venue near a locality and fetches its most
// popular tips.
type FoursquareProvider struct {
	logger   *slog.Logger
	http     *httpClient
	apiKey   string
	baseURL  string
	language string
}

func NewFoursquareProvider(cfg ClientConfig, transport http.RoundTripper, logger *slog.Logger) *FoursquareProvider {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultFoursquareBaseURL
	}
	return &FoursquareProvider{
		logger:   logger.With(slog.String("provider", foursquareProviderName)),
		http:     newHTTPClient(cfg, transport),
		apiKey:   cfg.APIKey,
		baseURL:  baseURL,
		language: cfg.Language,
	}
}

func (p *FoursquareProvider) Enabled() bool {
	return p.apiKey != ""
}

type foursquareSearchResponse struct {
	Results []struct {
		FsqID    string `json:"fsq_id"`
		Name     string `json:"name"`
		Location struct {
			FormattedAddress string `json:"formatted_address"`
		} `json:"location"`
		Geocodes struct {
			Main *struct {
				Latitude  float64 `json:"latitude"`
				Longitude float64 `json:"longitude"`
			} `json:"main"`
		} `json:"geocodes"`
		Rating     *float64 `json:"rating"`
		Categories []struct {
			Name string `json:"name"`
		} `json:"categories"`
		Tastes []string `json:"tastes"`
	} `json:"results"`
}

type foursquareTip struct {
	Text       string `json:"text"`
	AgreeCount int    `json:"agree_count"`
}

func (p *FoursquareProvider) headers() map[string]string {
	h := map[string]string{"Authorization": p.apiKey}
	if p.language != "" {
		h["Accept-Language"] = p.language
	}
	return h
}

// Search returns the best match for query near the given locality.
func (p *FoursquareProvider) Search(ctx context.Context, query, near string) Result[types.FoursquarePlace] {
	if !p.Enabled() {
		return NotFound[types.FoursquarePlace]()
	}

	ctx, span := otel.Tracer("PlaceProviders").Start(ctx, "FoursquareProvider.Search", trace.WithAttributes(
		attribute.String("place.query", query),
		attribute.String("place.near", near),
	))
	defer span.End()

	params := url.Values{}
	params.Set("query", query)
	if near != "" {
		params.Set("near", near)
	}
	params.Set("limit", "1")
	params.Set("fields", foursquareSearchFields)

	var body foursquareSearchResponse
	status, err := p.http.getJSON(ctx, p.baseURL+"/places/search?"+params.Encode(), p.headers(), &body)
	if err != nil {
		switch {
		case errors.Is(err, errCallTimeout):
			p.logger.WarnContext(ctx, "Foursquare search timed out", slog.String("query", query))
			span.SetStatus(codes.Error, "timeout")
			return NotFound[types.FoursquarePlace]()
		case status != 0 && !isAuthStatus(status):
			p.logger.WarnContext(ctx, "Foursquare search returned non-success status",
				slog.String("query", query), slog.Int("status", status))
			return NotFound[types.FoursquarePlace]()
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return Failed[types.FoursquarePlace](foursquareProviderName, err)
	}
	if len(body.Results) == 0 {
		return NotFound[types.FoursquarePlace]()
	}

	top := body.Results[0]
	place := &types.FoursquarePlace{
		FsqID:   top.FsqID,
		Name:    top.Name,
		Address: top.Location.FormattedAddress,
		Rating:  top.Rating,
		Tastes:  top.Tastes,
	}
	if top.Geocodes.Main != nil {
		place.Location = &types.Coordinates{Lat: top.Geocodes.Main.Latitude, Lng: top.Geocodes.Main.Longitude}
	}
	for _, c := range top.Categories {
		if c.Name != "" {
			place.Categories = append(place.Categories, c.Name)
		}
	}
	place.Tips = p.tips(ctx, top.FsqID)

	span.SetAttributes(attribute.String("place.id", place.FsqID), attribute.Int("place.tips", len(place.Tips)))
	span.SetStatus(codes.Ok, "place found")
	return Found(place)
}

// tips is best effort, any failure yields an empty list.
func (p *FoursquareProvider) tips(ctx context.Context, fsqID string) []types.FoursquareTip {
	if fsqID == "" {
		return []types.FoursquareTip{}
	}

	params := url.Values{}
	params.Set("limit", foursquareTipLimit)
	params.Set("sort", "POPULAR")
	params.Set("fields", "text,agree_count")

	var raw []foursquareTip
	endpoint := p.baseURL + "/places/" + url.PathEscape(fsqID) + "/tips?" + params.Encode()
	if _, err := p.http.getJSON(ctx, endpoint, p.headers(), &raw); err != nil {
		p.logger.DebugContext(ctx, "Foursquare tips unavailable", slog.String("fsq_id", fsqID), slog.Any("error", err))
		return []types.FoursquareTip{}
	}

	tips := make([]types.FoursquareTip, 0, len(raw))
	for _, t := range raw {
		if t.Text == "" {
			continue
		}
		tips = append(tips, types.FoursquareTip{Text: t.Text, AgreeCount: t.AgreeCount})
		if len(tips) == 3 {
			break
		}
	}
	return tips
}
