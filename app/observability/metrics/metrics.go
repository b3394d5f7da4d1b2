package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	GenerationRequestsTotal   metric.Int64Counter
	GenerationDurationSeconds metric.Float64Histogram
	ModelAttemptsTotal        metric.Int64Counter
	EnrichmentDurationSeconds metric.Float64Histogram
	EnrichmentErrorsTotal     metric.Int64Counter
	PlaceCacheHitsTotal       metric.Int64Counter
	PlaceCacheMissesTotal     metric.Int64Counter
	PlaceCacheWriteErrors     metric.Int64Counter
	ProviderFailuresTotal     metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics creates the instruments once from the global MeterProvider.
// Call it after the provider is installed so the Prometheus exporter sees them.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("TripItinerary")
		m := &AppMetrics{}

		m.GenerationRequestsTotal = counter(meter, "itinerary_generation_requests_total",
			"Itinerary generation requests by outcome", "{request}")
		m.GenerationDurationSeconds = histogram(meter, "itinerary_generation_duration_seconds",
			"End to end itinerary generation duration")
		m.ModelAttemptsTotal = counter(meter, "llm_model_attempts_total",
			"Model invocation attempts by model and outcome", "{attempt}")
		m.EnrichmentDurationSeconds = histogram(meter, "itinerary_enrichment_duration_seconds",
			"Duration of the enrichment pass over one itinerary")
		m.EnrichmentErrorsTotal = counter(meter, "activity_enrichment_errors_total",
			"Activities left unenriched because every provider failed", "{activity}")
		m.PlaceCacheHitsTotal = counter(meter, "place_cache_hits_total",
			"Place cache lookups served from cache", "{lookup}")
		m.PlaceCacheMissesTotal = counter(meter, "place_cache_misses_total",
			"Place cache lookups that required provider calls", "{lookup}")
		m.PlaceCacheWriteErrors = counter(meter, "place_cache_write_errors_total",
			"Place cache upserts that failed", "{error}")
		m.ProviderFailuresTotal = counter(meter, "place_provider_failures_total",
			"Place provider calls that failed outright", "{error}")

		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

func counter(meter metric.Meter, name, desc, unit string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	if err != nil {
		log.Fatalf("Metrics: Failed to create %s: %v", name, err)
	}
	return c
}

func histogram(meter metric.Meter, name, desc string) metric.Float64Histogram {
	h, err := meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
	if err != nil {
		log.Fatalf("Metrics: Failed to create %s: %v", name, err)
	}
	return h
}

// Get returns the instruments, creating them on first use. Instruments created
// before a MeterProvider is installed are bound to the no-op provider.
func Get() *AppMetrics {
	InitAppMetrics()
	return appMetrics
}
