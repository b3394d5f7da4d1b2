package router

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	appLogger "github.com/FACorreiaa/go-trip-itinerary/app/logger"
	_ "github.com/FACorreiaa/go-trip-itinerary/docs"
	"github.com/FACorreiaa/go-trip-itinerary/internal/api"
)

const defaultRequestTimeout = 180 * time.Second

type ItineraryHandler interface {
	GenerateItinerary(w http.ResponseWriter, r *http.Request)
}

type PlaceCacheHandler interface {
	GetEntry(w http.ResponseWriter, r *http.Request)
}

// Config contains dependencies needed for the router setup
type Config struct {
	Logger            *slog.Logger
	ItineraryHandler  ItineraryHandler
	PlaceCacheHandler PlaceCacheHandler
	// Health is called by /health. Nil means always healthy.
	Health         func(ctx context.Context) error
	AllowedOrigins []string
	// GenerateRateLimit caps generate requests per client IP per minute.
	// Zero disables the limit.
	GenerateRateLimit int
	RequestTimeout    time.Duration
}

// SetupRouter initializes and configures the main application router.
func SetupRouter(cfg *Config) chi.Router {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appLogger.StructuredLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(middleware.Timeout(timeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})
	r.Get("/health", healthHandler(cfg))
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if cfg.GenerateRateLimit > 0 {
				r.Use(httprate.Limit(
					cfg.GenerateRateLimit,
					time.Minute,
					httprate.WithKeyFuncs(httprate.KeyByIP),
					httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
						api.ErrorResponse(w, r, http.StatusTooManyRequests, "too many generation requests, try again later")
					}),
				))
			}
			r.Post("/itineraries/generate", cfg.ItineraryHandler.GenerateItinerary)
		})
		r.Get("/places/cache", cfg.PlaceCacheHandler.GetEntry)
	})

	return r
}

func healthHandler(cfg *Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Health != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := cfg.Health(ctx); err != nil {
				cfg.Logger.WarnContext(ctx, "Health check failed", slog.Any("error", err))
				api.ErrorResponse(w, r, http.StatusServiceUnavailable, "storage unavailable")
				return
			}
		}
		api.WriteJSONResponse(w, r, http.StatusOK, map[string]string{"status": "ok"})
	}
}
