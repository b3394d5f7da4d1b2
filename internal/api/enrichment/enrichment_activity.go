package enrichment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/FACorreiaa/go-trip-itinerary/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-itinerary/internal/api/placecache"
	"github.com/FACorreiaa/go-trip-itinerary/internal/api/places"
	"github.com/FACorreiaa/go-trip-itinerary/internal/types"
)

// GoogleSearcher is satisfied by *places.GoogleProvider.
type GoogleSearcher interface {
	Search(ctx context.Context, query string, bias *types.Coordinates) places.Result[types.GooglePlace]
}

// FoursquareSearcher is satisfied by *places.FoursquareProvider.
type FoursquareSearcher interface {
	Search(ctx context.Context, query, near string) places.Result[types.FoursquarePlace]
}

// Locality is the day context an activity is searched in.
type Locality struct {
	City        string
	Country     string
	Coordinates *types.Coordinates
}

func (l Locality) near() string {
	switch {
	case l.City == "":
		return l.Country
	case l.Country == "":
		return l.City
	}
	return l.City + ", " + l.Country
}

// Enricher enriches a single activity.
type Enricher interface {
	Enrich(ctx context.Context, activity types.Activity, loc Locality) (types.Activity, error)
}

var _ Enricher = (*ActivityEnricher)(nil)

// ActivityEnricher enriches one activity from the place cache or, on a miss,
// from Google and Foursquare. Concurrent misses for the same normalized query
// share a single provider fetch.
type ActivityEnricher struct {
	logger     *slog.Logger
	cache      placecache.Store
	google     GoogleSearcher
	foursquare FoursquareSearcher
	inflight   singleflight.Group
}

// NewActivityEnricher wires the cache and both providers. Disabled providers
// are fine, they simply never find anything.
func NewActivityEnricher(cache placecache.Store, google GoogleSearcher, foursquare FoursquareSearcher, logger *slog.Logger) *ActivityEnricher {
	return &ActivityEnricher{
		logger:     logger.With(slog.String("component", "ActivityEnricher")),
		cache:      cache,
		google:     google,
		foursquare: foursquare,
	}
}

type venues struct {
	google     *types.GooglePlace
	foursquare *types.FoursquarePlace
}

// Query builds the cache and Google search string for an activity.
func Query(activity types.Activity, loc Locality) string {
	return fmt.Sprintf("%s %s %s", activity.Title, loc.City, loc.Country)
}

// Enrich returns a copy of activity carrying provider metadata. Transport
// activities are returned untouched without any cache or network access.
func (e *ActivityEnricher) Enrich(ctx context.Context, activity types.Activity, loc Locality) (types.Activity, error) {
	if activity.Category == types.CategoryTransport {
		return activity, nil
	}

	query := Query(activity, loc)
	ctx, span := otel.Tracer("EnrichmentService").Start(ctx, "ActivityEnricher.Enrich", trace.WithAttributes(
		attribute.String("activity.id", activity.ID),
		attribute.String("place.query", query),
	))
	defer span.End()

	m := metrics.Get()

	// A broken cache must not block enrichment, fall through to the providers
	g, f, err := e.cache.Get(ctx, query)
	if err != nil {
		e.logger.WarnContext(ctx, "Place cache read failed, treating as miss", slog.String("query", query), slog.Any("error", err))
	}
	if g != nil || f != nil {
		m.PlaceCacheHitsTotal.Add(ctx, 1)
		span.SetAttributes(attribute.Bool("place.cache_hit", true))
		span.SetStatus(codes.Ok, "cache hit")
		return merge(activity, g, f), nil
	}
	m.PlaceCacheMissesTotal.Add(ctx, 1)
	span.SetAttributes(attribute.Bool("place.cache_hit", false))

	// the shared fetch outlives any single caller; provider timeouts bound it
	key := placecache.NormalizeQuery(query)
	ch := e.inflight.DoChan(key, func() (any, error) {
		return e.fetch(context.WithoutCancel(ctx), query, activity.Title, loc)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		span.SetStatus(codes.Error, "cancelled")
		return activity, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, "providers unavailable")
		return activity, fmt.Errorf("failed to enrich activity %s: %w", activity.ID, res.Err)
	}
	if res.Shared {
		e.logger.DebugContext(ctx, "Shared in-flight place lookup", slog.String("query", query))
	}

	found := res.Val.(venues)
	span.SetStatus(codes.Ok, "enriched")
	return merge(activity, found.google, found.foursquare), nil
}

// fetch queries both providers concurrently and caches the pair. Unlike a
// plain downgrade-then-put flow, nothing is cached when either provider
// Failed, so a transient outage is retried by the next request instead of
// being stored for the whole TTL. The failed side is still returned as nil.
func (e *ActivityEnricher) fetch(ctx context.Context, query, title string, loc Locality) (venues, error) {
	var (
		gRes places.Result[types.GooglePlace]
		fRes places.Result[types.FoursquarePlace]
		eg   errgroup.Group
	)
	eg.Go(func() error {
		gRes = e.google.Search(ctx, query, loc.Coordinates)
		return nil
	})
	eg.Go(func() error {
		fRes = e.foursquare.Search(ctx, title, loc.near())
		return nil
	})
	_ = eg.Wait()

	m := metrics.Get()
	gFailed := gRes.Status == places.StatusFailed
	fFailed := fRes.Status == places.StatusFailed
	if gFailed {
		m.ProviderFailuresTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("provider", "google")))
	}
	if fFailed {
		m.ProviderFailuresTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("provider", "foursquare")))
	}
	// Nothing usable from either side, the orchestrator leaves the activity as is
	if gFailed && fFailed {
		return venues{}, errors.Join(gRes.Err, fRes.Err)
	}

	found := venues{google: gRes.OrNil(), foursquare: fRes.OrNil()}
	if gFailed || fFailed {
		e.logger.WarnContext(ctx, "One place provider failed, continuing with the other",
			slog.String("query", query), slog.Any("error", errors.Join(gRes.Err, fRes.Err)))
		return found, nil
	}

	if err := e.cache.Put(ctx, query, found.google, found.foursquare); err != nil {
		m.PlaceCacheWriteErrors.Add(ctx, 1)
		e.logger.WarnContext(ctx, "Place cache write failed", slog.String("query", query), slog.Any("error", err))
	}
	return found, nil
}

// merge writes Google and Foursquare data onto disjoint sets of fields.
func merge(a types.Activity, g *types.GooglePlace, f *types.FoursquarePlace) types.Activity {
	if g != nil {
		a.PlaceID = nonEmpty(g.PlaceID)
		a.PhotoReference = nonEmpty(g.PhotoReference)
		a.GoogleMapsURL = nonEmpty(g.MapsURL)
		if g.Rating != nil {
			r := *g.Rating
			a.Rating = &r
		}
		if g.UserRatingsTotal != nil {
			n := *g.UserRatingsTotal
			a.UserRatingsTotal = &n
		}
		if g.Address != "" {
			a.Location = g.Address
		}
		if g.Location != nil {
			c := *g.Location
			a.Coordinates = &c
		}
	}
	if f != nil {
		a.FoursquareID = nonEmpty(f.FsqID)
		if f.Rating != nil {
			r := *f.Rating
			a.FoursquareRating = &r
		}
		a.FoursquareCategories = slices.Clone(f.Categories)
		a.FoursquareTastes = slices.Clone(f.Tastes)
		a.FoursquareTips = slices.Clone(f.Tips)
	}
	return a
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
