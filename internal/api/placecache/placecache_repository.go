package placecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-itinerary/internal/types"
)

const tableName = "place_cache"

var _ Store = (*PostgresStore)(nil)

// DBTX is the subset of *pgxpool.Pool the store needs.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresStore persists entries in the place_cache table, one row per
// normalized query.
type PostgresStore struct {
	logger *slog.Logger
	db     DBTX
	ttl    time.Duration
	now    func() time.Time
}

// NewPostgresStore returns a store over db. A non-positive ttl falls back to
// DefaultTTL.
func NewPostgresStore(db DBTX, ttl time.Duration, logger *slog.Logger) *PostgresStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &PostgresStore{
		logger: logger,
		db:     db,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Get returns the provider records of a valid row.
func (r *PostgresStore) Get(ctx context.Context, query string) (*types.GooglePlace, *types.FoursquarePlace, error) {
	entry, err := r.Entry(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	g, f := components(entry, r.now())
	return g, f, nil
}

// Entry reads the row for query. Expired rows are treated as missing and
// left for the next Put to overwrite.
func (r *PostgresStore) Entry(ctx context.Context, query string) (*types.PlaceCacheEntry, error) {
	key := NormalizeQuery(query)
	ctx, span := otel.Tracer("PlaceCacheRepository").Start(ctx, "Entry", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", tableName),
		attribute.String("place_cache.query", key),
	))
	defer span.End()

	stmt, args, err := psql.
		Select("google_data", "foursquare_data", "created_at", "expires_at").
		From(tableName).
		Where(sq.Eq{"query_key": key}).
		ToSql()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to build place cache select: %w", err)
	}

	var googleData, foursquareData []byte
	var createdAt, expiresAt time.Time
	err = r.db.QueryRow(ctx, stmt, args...).Scan(&googleData, &foursquareData, &createdAt, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetAttributes(attribute.Bool("place_cache.hit", false))
			return nil, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, fmt.Errorf("failed to read place cache entry: %w", err)
	}

	if !r.now().Before(expiresAt) {
		r.logger.DebugContext(ctx, "Place cache entry expired", slog.String("query", key), slog.Time("expires_at", expiresAt))
		span.SetAttributes(attribute.Bool("place_cache.hit", false), attribute.Bool("place_cache.expired", true))
		return nil, nil
	}

	var google *types.GooglePlace
	var foursquare *types.FoursquarePlace
	if err := decodeNullable(googleData, &google); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to decode cached google data: %w", err)
	}
	if err := decodeNullable(foursquareData, &foursquare); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to decode cached foursquare data: %w", err)
	}

	entry := &types.PlaceCacheEntry{
		Query:      key,
		Google:     google,
		Foursquare: foursquare,
		CreatedAt:  createdAt,
		ExpiresAt:  expiresAt,
	}
	entry.Name, entry.Address, entry.Coordinates = mergeVenue(google, foursquare)

	span.SetAttributes(attribute.Bool("place_cache.hit", true))
	span.SetStatus(codes.Ok, "entry found")
	return entry, nil
}

// Put upserts the row for query with a fresh CreatedAt and ExpiresAt.
func (r *PostgresStore) Put(ctx context.Context, query string, google *types.GooglePlace, foursquare *types.FoursquarePlace) error {
	entry := NewEntry(query, google, foursquare, r.now(), r.ttl)
	ctx, span := otel.Tracer("PlaceCacheRepository").Start(ctx, "Put", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPSERT"),
		attribute.String("db.sql.table", tableName),
		attribute.String("place_cache.query", entry.Query),
	))
	defer span.End()

	googleData, err := encodeNullable(google)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to encode google data: %w", err)
	}
	foursquareData, err := encodeNullable(foursquare)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to encode foursquare data: %w", err)
	}

	var lat, lng *float64
	if entry.Coordinates != nil {
		lat, lng = &entry.Coordinates.Lat, &entry.Coordinates.Lng
	}

	stmt, args, err := psql.
		Insert(tableName).
		Columns("query_key", "name", "address", "latitude", "longitude",
			"google_data", "foursquare_data", "created_at", "expires_at").
		Values(entry.Query, entry.Name, entry.Address, lat, lng,
			googleData, foursquareData, entry.CreatedAt, entry.ExpiresAt).
		Suffix(`ON CONFLICT (query_key) DO UPDATE SET
			name = EXCLUDED.name,
			address = EXCLUDED.address,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			google_data = EXCLUDED.google_data,
			foursquare_data = EXCLUDED.foursquare_data,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at`).
		ToSql()
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to build place cache upsert: %w", err)
	}

	if _, err := r.db.Exec(ctx, stmt, args...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upsert failed")
		return fmt.Errorf("failed to upsert place cache entry: %w", err)
	}

	r.logger.DebugContext(ctx, "Place cache entry stored",
		slog.String("query", entry.Query),
		slog.Bool("google", google != nil),
		slog.Bool("foursquare", foursquare != nil),
		slog.Time("expires_at", entry.ExpiresAt))
	span.SetStatus(codes.Ok, "entry stored")
	return nil
}

// encodeNullable marshals v into JSONB, mapping a nil pointer to SQL NULL.
func encodeNullable[T any](v *T) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func decodeNullable[T any](data []byte, dst **T) error {
	if len(data) == 0 || string(data) == "null" {
		*dst = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*dst = &v
	return nil
}
