package container

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	database "github.com/FACorreiaa/go-trip-itinerary/app/db"
	"github.com/FACorreiaa/go-trip-itinerary/config"
	"github.com/FACorreiaa/go-trip-itinerary/internal/api/enrichment"
	"github.com/FACorreiaa/go-trip-itinerary/internal/api/itinerary"
	"github.com/FACorreiaa/go-trip-itinerary/internal/api/llm"
	"github.com/FACorreiaa/go-trip-itinerary/internal/api/placecache"
	"github.com/FACorreiaa/go-trip-itinerary/internal/api/places"
)

const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"

	ProviderGateway = "gateway"
	ProviderGemini  = "gemini"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *slog.Logger
	Pool        *pgxpool.Pool
	Redis       *redis.Client
	DatabaseURL string

	PlaceCache        placecache.Store
	ItineraryService  itinerary.Service
	ItineraryHandler  *itinerary.HandlerImpl
	PlaceCacheHandler *placecache.HandlerImpl
}

// NewContainer initializes and returns a new dependency container
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger}

	store, err := c.newPlaceCache(ctx)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.PlaceCache = store

	completer, err := newCompleter(ctx, cfg, logger)
	if err != nil {
		c.Close()
		return nil, err
	}

	google := places.NewGoogleProvider(clientConfig(cfg.Providers.Google), nil, logger)
	foursquare := places.NewFoursquareProvider(clientConfig(cfg.Providers.Foursquare), nil, logger)
	if !google.Enabled() {
		logger.Warn("Google Places API key not configured, skipping Google enrichment")
	}
	if !foursquare.Enabled() {
		logger.Warn("Foursquare API key not configured, skipping Foursquare enrichment")
	}

	enricher := enrichment.NewActivityEnricher(store, google, foursquare, logger)
	orchestrator := enrichment.NewOrchestrator(enricher, cfg.Enrichment.Delay, logger)
	invoker := llm.NewModelFallbackInvoker(completer, cfg.LLM.Models, cfg.LLM.AttemptTimeout, logger)

	c.ItineraryService = itinerary.NewService(invoker, orchestrator, logger)
	c.ItineraryHandler = itinerary.NewHandler(c.ItineraryService, logger)
	c.PlaceCacheHandler = placecache.NewHandler(store, logger)
	return c, nil
}

func (c *Container) newPlaceCache(ctx context.Context) (placecache.Store, error) {
	cfg := c.Config
	switch cfg.Cache.Backend {
	case BackendPostgres, "":
		dbConfig, err := database.NewDatabaseConfig(cfg, c.Logger)
		if err != nil {
			c.Logger.Error("Failed to generate database config", slog.Any("error", err))
			return nil, err
		}
		pool, err := database.Init(ctx, dbConfig.ConnectionURL, c.Logger)
		if err != nil {
			c.Logger.Error("Failed to initialize database pool", slog.Any("error", err))
			return nil, err
		}
		c.Pool = pool
		c.DatabaseURL = dbConfig.ConnectionURL
		durable := placecache.NewPostgresStore(pool, cfg.Cache.TTL, c.Logger)
		return placecache.NewTieredStore(durable, cfg.Cache.MemoryTTL, cfg.Cache.TTL, c.Logger), nil

	case BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Repositories.Redis.Addr,
			Password: cfg.Repositories.Redis.Password,
			DB:       cfg.Repositories.Redis.DB,
		})
		c.Redis = rdb
		durable := placecache.NewRedisStore(rdb, cfg.Cache.TTL, c.Logger)
		return placecache.NewTieredStore(durable, cfg.Cache.MemoryTTL, cfg.Cache.TTL, c.Logger), nil

	case BackendMemory:
		c.Logger.Warn("Using in-process place cache; entries are lost on restart")
		return placecache.NewMemoryStore(cfg.Cache.TTL), nil
	}
	return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
}

func newCompleter(ctx context.Context, cfg *config.Config, logger *slog.Logger) (llm.ChatCompleter, error) {
	switch cfg.LLM.Provider {
	case ProviderGateway, "":
		return llm.NewGatewayClient(llm.GatewayConfig{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Temperature: cfg.LLM.Temperature,
		}, logger), nil
	case ProviderGemini:
		return llm.NewGeminiClient(ctx, llm.GeminiConfig{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Temperature: cfg.LLM.Temperature,
		}, logger)
	}
	return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
}

func clientConfig(p config.ProviderConfig) places.ClientConfig {
	return places.ClientConfig{
		APIKey:            p.APIKey,
		BaseURL:           p.BaseURL,
		Timeout:           p.Timeout,
		MaxConcurrent:     p.MaxConcurrent,
		RequestsPerSecond: p.RequestsPerSecond,
		Language:          p.Language,
	}
}

// Ping reports whether the configured cache backend answers.
func (c *Container) Ping(ctx context.Context) error {
	var errs []error
	if c.Pool != nil {
		if err := c.Pool.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("postgres: %w", err))
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Ping(ctx).Err(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.Warn("Error closing redis client", slog.Any("error", err))
		}
	}
}

// WaitForDB waits for the database to be ready. Backends without a pool
// are always ready.
func (c *Container) WaitForDB(ctx context.Context) bool {
	if c.Pool == nil {
		return true
	}
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}

// RunMigrations runs database migrations when the place cache is Postgres.
func (c *Container) RunMigrations() error {
	if c.DatabaseURL == "" {
		return nil
	}
	return database.RunMigrations(c.DatabaseURL, c.Logger)
}
