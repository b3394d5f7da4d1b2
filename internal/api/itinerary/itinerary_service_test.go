package itinerary

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-trip-itinerary/internal/api/enrichment"
	"github.com/FACorreiaa/go-trip-itinerary/internal/api/llm"
	"github.com/FACorreiaa/go-trip-itinerary/internal/api/placecache"
	"github.com/FACorreiaa/go-trip-itinerary/internal/api/places"
	"github.com/FACorreiaa/go-trip-itinerary/internal/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// scriptedCompleter answers each model from a fixed table.
type scriptedCompleter struct {
	answers map[string]llm.ModelResponse
	errs    map[string]error
	calls   []string
	last    llm.ToolRequest
}

func (s *scriptedCompleter) Complete(_ context.Context, model string, req llm.ToolRequest) (llm.ModelResponse, error) {
	s.calls = append(s.calls, model)
	s.last = req
	if err := s.errs[model]; err != nil {
		return llm.ModelResponse{}, err
	}
	return s.answers[model], nil
}

type notFoundGoogle struct{ calls int }

func (g *notFoundGoogle) Search(context.Context, string, *types.Coordinates) places.Result[types.GooglePlace] {
	g.calls++
	return places.NotFound[types.GooglePlace]()
}

type notFoundFoursquare struct{ calls int }

func (f *notFoundFoursquare) Search(context.Context, string, string) places.Result[types.FoursquarePlace] {
	f.calls++
	return places.NotFound[types.FoursquarePlace]()
}

var weekCategories = []types.ActivityCategory{
	types.CategoryAttraction,
	types.CategoryRestaurant,
	types.CategoryTransport,
	types.CategoryActivity,
	types.CategoryAccommodation,
}

func sevenDayPayload(t *testing.T) string {
	t.Helper()
	cities := []string{"Rome", "Rome", "Florence", "Florence", "Venice", "Venice", "Milan"}
	days := make([]map[string]any, 0, len(cities))
	for d, city := range cities {
		acts := make([]map[string]any, 0, len(weekCategories))
		for a, cat := range weekCategories {
			acts = append(acts, map[string]any{
				"id":          fmt.Sprintf("%d-%d", d+1, a+1),
				"time":        fmt.Sprintf("%02d:00", 9+a*2),
				"title":       fmt.Sprintf("%s stop %d", city, a+1),
				"description": "Something nice",
				"location":    city,
				"duration":    "1h",
				"category":    string(cat),
			})
		}
		days = append(days, map[string]any{
			"day":         d + 1,
			"date":        fmt.Sprintf("Day %d", d+1),
			"city":        city,
			"country":     "Italy",
			"coordinates": map[string]float64{"lat": 43, "lng": 11},
			"highlights":  []string{city},
			"activities":  acts,
		})
	}
	raw, err := json.Marshal(map[string]any{
		"title":        "Italia in una settimana",
		"summary":      "A week across Italy",
		"duration":     "7 days",
		"totalBudget":  "moderate",
		"destinations": []string{"Rome", "Florence", "Venice", "Milan"},
		"days":         days,
	})
	require.NoError(t, err)
	return string(raw)
}

func newPipeline(completer llm.ChatCompleter, models []string) (*ServiceImpl, *notFoundGoogle, *notFoundFoursquare) {
	g := &notFoundGoogle{}
	f := &notFoundFoursquare{}
	enricher := enrichment.NewActivityEnricher(placecache.NewMemoryStore(0), g, f, testLogger())
	orchestrator := enrichment.NewOrchestrator(enricher, 0, testLogger()).
		WithSleep(func(context.Context, time.Duration) error { return nil })
	invoker := llm.NewModelFallbackInvoker(completer, models, time.Second, testLogger())
	return NewService(invoker, orchestrator, testLogger()), g, f
}

func TestGenerateItinerary_EndToEndWeekInItaly(t *testing.T) {
	completer := &scriptedCompleter{answers: map[string]llm.ModelResponse{
		"primary": llm.ToolCallResponse(ToolName, sevenDayPayload(t), ""),
	}}
	svc, g, f := newPipeline(completer, []string{"primary", "backup"})
	createdAt := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return createdAt }

	it, err := svc.GenerateItinerary(context.Background(), types.PreferenceSummary{
		Destinations: []string{"Itália"},
		Duration:     "week",
		Budget:       "moderate",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"primary"}, completer.calls)
	assert.Equal(t, ToolName, completer.last.Tool.Name)
	assert.Contains(t, completer.last.UserPrompt, "Create a 7-day itinerary")
	assert.Contains(t, completer.last.UserPrompt, "Itália")

	assert.NotEqual(t, uuid.Nil, it.ID)
	assert.Equal(t, createdAt, it.CreatedAt)
	require.Len(t, it.Days, 7)
	for d, day := range it.Days {
		assert.Equal(t, d+1, day.Day)
		require.Len(t, day.Activities, len(weekCategories))
		for a, act := range day.Activities {
			assert.Equal(t, weekCategories[a], act.Category)
			assert.False(t, act.Enriched(), act.ID)
			assert.Nil(t, act.PlaceID)
			assert.Nil(t, act.FoursquareID)
			assert.Empty(t, act.FoursquareTips)
		}
	}

	// one lookup per non-transport activity
	nonTransport := 7 * (len(weekCategories) - 1)
	assert.Equal(t, nonTransport, g.calls)
	assert.Equal(t, nonTransport, f.calls)
}

func TestGenerateItinerary_FallsBackWhenExtractionFails(t *testing.T) {
	completer := &scriptedCompleter{answers: map[string]llm.ModelResponse{
		"m1": llm.TextResponse("I would love to help, but I need more details."),
		"m2": llm.TextResponse("Here you go:\n```json\n{\"title\":\"X\",\"days\":[]}\n```"),
	}}
	svc, _, _ := newPipeline(completer, []string{"m1", "m2", "m3"})

	it, err := svc.GenerateItinerary(context.Background(), types.PreferenceSummary{Destinations: []string{"Lisbon"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2"}, completer.calls)
	assert.Equal(t, "X", it.Title)
	assert.Empty(t, it.Days)
}

func TestGenerateItinerary_ErrorKindsPreserved(t *testing.T) {
	tests := []struct {
		name string
		errs map[string]error
		want error
	}{
		{name: "rate limited", errs: map[string]error{"m1": &llm.StatusError{StatusCode: http.StatusTooManyRequests}}, want: llm.ErrRateLimited},
		{name: "credits", errs: map[string]error{"m1": &llm.StatusError{StatusCode: http.StatusPaymentRequired}}, want: llm.ErrInsufficientCredits},
		{name: "exhausted", errs: map[string]error{
			"m1": &llm.StatusError{StatusCode: http.StatusServiceUnavailable},
			"m2": &llm.StatusError{StatusCode: http.StatusBadRequest},
		}, want: llm.ErrGenerationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, g, _ := newPipeline(&scriptedCompleter{errs: tt.errs}, []string{"m1", "m2"})
			it, err := svc.GenerateItinerary(context.Background(), types.PreferenceSummary{Destinations: []string{"Porto"}})
			require.ErrorIs(t, err, tt.want)
			assert.Nil(t, it)
			assert.Zero(t, g.calls)
		})
	}
}

func TestGenerateItinerary_RequiresDestination(t *testing.T) {
	completer := &scriptedCompleter{}
	svc, _, _ := newPipeline(completer, []string{"m1"})
	_, err := svc.GenerateItinerary(context.Background(), types.PreferenceSummary{Destinations: []string{"  "}})
	require.ErrorIs(t, err, ErrInvalidPreferences)
	assert.Empty(t, completer.calls)
}

type MockService struct {
	mock.Mock
}

func (m *MockService) GenerateItinerary(ctx context.Context, prefs types.PreferenceSummary) (*types.Itinerary, error) {
	args := m.Called(ctx, prefs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Itinerary), args.Error(1)
}

func TestHandler_GenerateItinerary(t *testing.T) {
	prefs := types.PreferenceSummary{Destinations: []string{"Itália"}, Duration: "week", Budget: "moderate"}
	body := `{"preferences":{"destinations":["Itália"],"duration":"week","budget":"moderate"}}`

	tests := []struct {
		name       string
		body       string
		result     *types.Itinerary
		err        error
		callsSvc   bool
		wantStatus int
	}{
		{name: "ok", body: body, result: &types.Itinerary{ID: uuid.New(), Title: "Italia"}, callsSvc: true, wantStatus: http.StatusOK},
		{name: "bad json", body: `{"preferences":`, wantStatus: http.StatusBadRequest},
		{name: "unknown field", body: `{"prefs":{}}`, wantStatus: http.StatusBadRequest},
		{name: "invalid preferences", body: body, err: fmt.Errorf("%w: no destination", ErrInvalidPreferences), callsSvc: true, wantStatus: http.StatusBadRequest},
		{name: "rate limited", body: body, err: fmt.Errorf("%w: 429", llm.ErrRateLimited), callsSvc: true, wantStatus: http.StatusTooManyRequests},
		{name: "credits", body: body, err: fmt.Errorf("%w: 402", llm.ErrInsufficientCredits), callsSvc: true, wantStatus: http.StatusPaymentRequired},
		{name: "generation failed", body: body, err: fmt.Errorf("%w: all models", llm.ErrGenerationFailed), callsSvc: true, wantStatus: http.StatusBadGateway},
		{name: "unexpected", body: body, err: context.DeadlineExceeded, callsSvc: true, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			if tt.callsSvc {
				svc.On("GenerateItinerary", mock.Anything, prefs).Return(tt.result, tt.err).Once()
			}
			h := NewHandler(svc, testLogger())

			req := httptest.NewRequest(http.MethodPost, "/api/v1/itineraries/generate", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			h.GenerateItinerary(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			if tt.wantStatus == http.StatusOK {
				var got types.Itinerary
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
				assert.Equal(t, tt.result.ID, got.ID)
			} else {
				var got map[string]any
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
				assert.Equal(t, false, got["success"])
			}
			svc.AssertExpectations(t)
		})
	}
}
