package placecache

import (
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-itinerary/internal/api"
)

// HandlerImpl serves the read-only place cache inspection endpoint.
type HandlerImpl struct {
	store  Store
	logger *slog.Logger
}

// NewHandler returns a handler reading from store.
func NewHandler(store Store, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{store: store, logger: logger}
}

// GetEntry godoc
// @Summary      Inspect a place cache entry
// @Description  Returns the cached, unexpired provider data for a search query.
// @Tags         Places
// @Produce      json
// @Param        query query string true "Search query, normalized before lookup"
// @Success      200 {object} types.PlaceCacheEntry
// @Failure      400 {object} map[string]any
// @Failure      404 {object} map[string]any
// @Router       /places/cache [get]
func (h *HandlerImpl) GetEntry(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PlaceCacheHandler").Start(r.Context(), "GetEntry", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/places/cache"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "GetPlaceCacheEntry"))

	query := r.URL.Query().Get("query")
	if strings.TrimSpace(query) == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "query parameter is required")
		return
	}

	entry, err := h.store.Entry(ctx, query)
	if err != nil {
		span.RecordError(err)
		l.ErrorContext(ctx, "Failed to read place cache entry", slog.String("query", query), slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to read place cache")
		return
	}
	if entry == nil {
		api.ErrorResponse(w, r, http.StatusNotFound, "No cached entry for query")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, entry)
}
