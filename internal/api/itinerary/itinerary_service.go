package itinerary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-itinerary/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-itinerary/internal/api/enrichment"
	"github.com/FACorreiaa/go-trip-itinerary/internal/api/llm"
	"github.com/FACorreiaa/go-trip-itinerary/internal/types"
)

var ErrInvalidPreferences = errors.New("invalid preferences")

// Service generates enriched itineraries from a preference summary.
type Service interface {
	GenerateItinerary(ctx context.Context, prefs types.PreferenceSummary) (*types.Itinerary, error)
}

// ItineraryEnricher enriches a whole itinerary in place.
type ItineraryEnricher interface {
	Enrich(ctx context.Context, itinerary *types.Itinerary) (enrichment.Report, error)
}

var _ Service = (*ServiceImpl)(nil)

// ServiceImpl chains the model invoker, the extractor and enrichment.
type ServiceImpl struct {
	logger   *slog.Logger
	invoker  llm.Invoker
	enricher ItineraryEnricher
	now      func() time.Time
}

// NewService builds the generation service.
func NewService(invoker llm.Invoker, enricher ItineraryEnricher, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:   logger.With(slog.String("component", "ItineraryService")),
		invoker:  invoker,
		enricher: enricher,
		now:      time.Now,
	}
}

// GenerateItinerary asks the model for an itinerary, stamps it and enriches it.
// Invoker errors are returned as they are so callers can tell rate limiting,
// missing credits and generation failure apart.
func (s *ServiceImpl) GenerateItinerary(ctx context.Context, prefs types.PreferenceSummary) (*types.Itinerary, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "GenerateItinerary", trace.WithAttributes(
		attribute.StringSlice("itinerary.destinations", prefs.Destinations),
		attribute.String("itinerary.duration", prefs.Duration),
	))
	defer span.End()

	m := metrics.Get()
	start := s.now()
	outcome := "error"
	defer func() {
		m.GenerationRequestsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
		m.GenerationDurationSeconds.Record(ctx, time.Since(start).Seconds())
	}()

	if err := validate(prefs); err != nil {
		span.SetStatus(codes.Error, err.Error())
		outcome = "invalid"
		return nil, err
	}

	system, user := buildRequest(prefs)
	resp, err := s.invoker.Invoke(ctx, llm.ToolRequest{
		SystemPrompt: system,
		UserPrompt:   user,
		Tool:         Tool(),
	}, Validate)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "model invocation failed")
		outcome = outcomeOf(err)
		return nil, err
	}

	it := Extract(resp)
	if it == nil {
		err := fmt.Errorf("%w: %w", llm.ErrGenerationFailed, errNoItinerary)
		span.RecordError(err)
		span.SetStatus(codes.Error, "extraction failed")
		return nil, err
	}

	it.ID = uuid.New()
	it.CreatedAt = s.now().UTC()
	span.SetAttributes(
		attribute.String("itinerary.id", it.ID.String()),
		attribute.String("llm.model", resp.Model),
		attribute.Int("itinerary.days", len(it.Days)),
	)
	s.logger.InfoContext(ctx, "Itinerary drafted",
		slog.String("itinerary_id", it.ID.String()),
		slog.String("model", resp.Model),
		slog.Int("days", len(it.Days)),
		slog.Int("activities", it.ActivityCount()))

	report, err := s.enricher.Enrich(ctx, it)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "enrichment interrupted")
		return it, err
	}

	outcome = "success"
	span.SetStatus(codes.Ok, "itinerary generated")
	s.logger.InfoContext(ctx, "Itinerary generated",
		slog.String("itinerary_id", it.ID.String()),
		slog.Int("enriched", report.Enriched),
		slog.Int("enrichment_failures", report.Failed))
	return it, nil
}

func validate(p types.PreferenceSummary) error {
	for _, d := range p.Destinations {
		if strings.TrimSpace(d) != "" {
			return nil
		}
	}
	return fmt.Errorf("%w: at least one destination is required", ErrInvalidPreferences)
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, llm.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, llm.ErrInsufficientCredits):
		return "insufficient_credits"
	case errors.Is(err, llm.ErrGenerationFailed):
		return "generation_failed"
	}
	return "error"
}
