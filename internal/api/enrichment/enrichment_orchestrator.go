package enrichment

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-itinerary/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-itinerary/internal/types"
)

// DefaultDelay is awaited before every activity, cache hits included.
const DefaultDelay = 100 * time.Millisecond

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Report summarizes one enrichment pass.
type Report struct {
	Enriched int
	Skipped  int
	Failed   int
}

// Orchestrator enriches every activity of an itinerary, one at a time.
type Orchestrator struct {
	logger   *slog.Logger
	enricher Enricher
	delay    time.Duration
	sleep    SleepFunc
}

// NewOrchestrator paces activities by delay. A negative delay selects
// DefaultDelay, zero disables pacing.
func NewOrchestrator(enricher Enricher, delay time.Duration, logger *slog.Logger) *Orchestrator {
	if delay < 0 {
		delay = DefaultDelay
	}
	return &Orchestrator{
		logger:   logger.With(slog.String("component", "EnrichmentOrchestrator")),
		enricher: enricher,
		delay:    delay,
		sleep:    Sleep,
	}
}

// WithSleep replaces the delay primitive.
func (o *Orchestrator) WithSleep(fn SleepFunc) *Orchestrator {
	o.sleep = fn
	return o
}

// Enrich walks days and activities in document order and enriches each
// activity in place. A failing activity is logged and left as it was. The only
// error returned is ctx's, together with whatever was enriched so far.
func (o *Orchestrator) Enrich(ctx context.Context, itinerary *types.Itinerary) (Report, error) {
	var report Report
	if itinerary == nil {
		return report, nil
	}

	ctx, span := otel.Tracer("EnrichmentService").Start(ctx, "Orchestrator.Enrich", trace.WithAttributes(
		attribute.Int("itinerary.days", len(itinerary.Days)),
		attribute.Int("itinerary.activities", itinerary.ActivityCount()),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.Get().EnrichmentDurationSeconds.Record(ctx, time.Since(start).Seconds())
	}()

	for d := range itinerary.Days {
		day := &itinerary.Days[d]
		loc := Locality{City: day.City, Country: day.Country, Coordinates: day.Coordinates}

		for i := range day.Activities {
			if err := o.sleep(ctx, o.delay); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "enrichment interrupted")
				o.logger.WarnContext(ctx, "Enrichment interrupted",
					slog.Int("day", day.Day), slog.Int("enriched", report.Enriched), slog.Any("error", err))
				return report, err
			}

			activity := day.Activities[i]
			if activity.Category == types.CategoryTransport {
				report.Skipped++
			}

			enriched, err := o.enricher.Enrich(ctx, activity, loc)
			if err != nil {
				report.Failed++
				metrics.Get().EnrichmentErrorsTotal.Add(ctx, 1)
				o.logger.ErrorContext(ctx, "Activity enrichment failed, leaving it unenriched",
					slog.String("activity_id", activity.ID),
					slog.String("title", activity.Title),
					slog.Any("error", err))
				continue
			}
			day.Activities[i] = enriched
			if enriched.Enriched() {
				report.Enriched++
			}
		}
	}

	span.SetAttributes(
		attribute.Int("enrichment.enriched", report.Enriched),
		attribute.Int("enrichment.failed", report.Failed),
	)
	span.SetStatus(codes.Ok, "itinerary enriched")
	o.logger.InfoContext(ctx, "Itinerary enrichment finished",
		slog.Int("enriched", report.Enriched),
		slog.Int("skipped", report.Skipped),
		slog.Int("failed", report.Failed))
	return report, nil
}
