package itinerary

import (
	"errors"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-itinerary/internal/api"
	"github.com/FACorreiaa/go-trip-itinerary/internal/api/llm"
	"github.com/FACorreiaa/go-trip-itinerary/internal/types"
)

// HandlerImpl exposes itinerary generation over HTTP.
type HandlerImpl struct {
	service Service
	logger  *slog.Logger
}

// NewHandler returns a handler backed by service.
func NewHandler(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{service: service, logger: logger}
}

// GenerateItinerary godoc
// @Summary      Generate an itinerary
// @Description  Builds a day by day itinerary from a preference summary and enriches its venues.
// @Tags         Itineraries
// @Accept       json
// @Produce      json
// @Param        request body types.GenerateItineraryRequest true "Preference summary"
// @Success      200 {object} types.Itinerary
// @Failure      400 {object} map[string]any "Invalid request or preferences"
// @Failure      402 {object} map[string]any "Insufficient credits"
// @Failure      429 {object} map[string]any "Rate limited"
// @Failure      502 {object} map[string]any "Generation failed"
// @Router       /itineraries/generate [post]
func (h *HandlerImpl) GenerateItinerary(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "GenerateItinerary", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/itineraries/generate"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "GenerateItinerary"))
	l.DebugContext(ctx, "Generate itinerary handler invoked")

	var req types.GenerateItineraryRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Invalid request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	it, err := h.service.GenerateItinerary(ctx, req.Preferences)
	if err != nil {
		status, msg := errorStatus(err)
		span.RecordError(err)
		l.ErrorContext(ctx, "Failed to generate itinerary", slog.Any("error", err), slog.Int("status", status))
		api.ErrorResponse(w, r, status, msg)
		return
	}

	l.InfoContext(ctx, "Itinerary generated", slog.String("itinerary_id", it.ID.String()))
	api.WriteJSONResponse(w, r, http.StatusOK, it)
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidPreferences):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, llm.ErrRateLimited):
		return http.StatusTooManyRequests, "Too many requests, try again in a few moments"
	case errors.Is(err, llm.ErrInsufficientCredits):
		return http.StatusPaymentRequired, "The itinerary generator is out of credits"
	case errors.Is(err, llm.ErrGenerationFailed):
		return http.StatusBadGateway, "Could not generate an itinerary, please try again"
	}
	return http.StatusInternalServerError, "Failed to generate itinerary"
}
