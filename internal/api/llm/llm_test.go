package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Complete(ctx context.Context, model string, req ToolRequest) (ModelResponse, error) {
	args := m.Called(ctx, model, req)
	return args.Get(0).(ModelResponse), args.Error(1)
}

var testTool = Tool{
	Name:        "create_itinerary",
	Description: "Create an itinerary",
	Parameters: jsonschema.Definition{
		Type:     jsonschema.Object,
		Required: []string{"title"},
		Properties: map[string]jsonschema.Definition{
			"title": {Type: jsonschema.String},
			"days":  {Type: jsonschema.Array, Items: &jsonschema.Definition{Type: jsonschema.Object}},
		},
	},
}

func testRequest() ToolRequest {
	return ToolRequest{SystemPrompt: "system", UserPrompt: "user", Tool: testTool}
}

func TestInvoker_FallsBackInOrder(t *testing.T) {
	client := new(MockCompleter)
	var order []string
	record := func(args mock.Arguments) { order = append(order, args.String(1)) }

	client.On("Complete", mock.Anything, "m1", mock.Anything).Run(record).
		Return(ModelResponse{}, &StatusError{StatusCode: http.StatusInternalServerError}).Once()
	client.On("Complete", mock.Anything, "m2", mock.Anything).Run(record).
		Return(EmptyResponse(), nil).Once()
	client.On("Complete", mock.Anything, "m3", mock.Anything).Run(record).
		Return(ToolCallResponse("create_itinerary", `{"title":"ok"}`, ""), nil).Once()

	inv := NewModelFallbackInvoker(client, []string{"m1", "m2", "m3"}, time.Second, testLogger())
	resp, err := inv.Invoke(context.Background(), testRequest(), nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2", "m3"}, order)
	assert.Equal(t, KindToolCall, resp.Kind)
	assert.Equal(t, `{"title":"ok"}`, resp.ToolCall.Arguments)
	assert.Equal(t, "m3", resp.Model)
	client.AssertNumberOfCalls(t, "Complete", 3)
}

func TestInvoker_FatalShortCircuit(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, want: ErrRateLimited},
		{name: "insufficient credits", status: http.StatusPaymentRequired, want: ErrInsufficientCredits},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(MockCompleter)
			client.On("Complete", mock.Anything, "m1", mock.Anything).
				Return(ModelResponse{}, &StatusError{StatusCode: tt.status}).Once()

			inv := NewModelFallbackInvoker(client, []string{"m1", "m2", "m3"}, time.Second, testLogger())
			_, err := inv.Invoke(context.Background(), testRequest(), nil)

			require.ErrorIs(t, err, tt.want)
			assert.NotErrorIs(t, err, ErrGenerationFailed)
			client.AssertNumberOfCalls(t, "Complete", 1)
			client.AssertNotCalled(t, "Complete", mock.Anything, "m2", mock.Anything)
		})
	}
}

func TestInvoker_ExhaustionCarriesLastDetail(t *testing.T) {
	client := new(MockCompleter)
	client.On("Complete", mock.Anything, "m1", mock.Anything).Return(EmptyResponse(), nil)
	client.On("Complete", mock.Anything, "m2", mock.Anything).
		Return(ModelResponse{}, &StatusError{StatusCode: http.StatusBadGateway, Body: "upstream down"})

	inv := NewModelFallbackInvoker(client, []string{"m1", "m2"}, time.Second, testLogger())
	_, err := inv.Invoke(context.Background(), testRequest(), nil)

	require.ErrorIs(t, err, ErrGenerationFailed)
	assert.Contains(t, err.Error(), "upstream down")
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadGateway, se.StatusCode)
}

func TestInvoker_ValidateRejectionAdvances(t *testing.T) {
	client := new(MockCompleter)
	client.On("Complete", mock.Anything, "m1", mock.Anything).Return(TextResponse("sorry, no"), nil).Once()
	client.On("Complete", mock.Anything, "m2", mock.Anything).Return(TextResponse(`{"title":"t","days":[]}`), nil).Once()

	validate := func(r ModelResponse) error {
		if r.Text == "sorry, no" {
			return errors.New("no itinerary in response")
		}
		return nil
	}
	inv := NewModelFallbackInvoker(client, []string{"m1", "m2"}, time.Second, testLogger())
	resp, err := inv.Invoke(context.Background(), testRequest(), validate)

	require.NoError(t, err)
	assert.Equal(t, "m2", resp.Model)
	client.AssertExpectations(t)
}

func TestInvoker_NoModels(t *testing.T) {
	inv := NewModelFallbackInvoker(new(MockCompleter), nil, time.Second, testLogger())
	_, err := inv.Invoke(context.Background(), testRequest(), nil)
	assert.ErrorIs(t, err, ErrGenerationFailed)
}

func TestInvoker_CancelledContextStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client := new(MockCompleter)
	client.On("Complete", mock.Anything, "m1", mock.Anything).Run(func(mock.Arguments) { cancel() }).
		Return(ModelResponse{}, context.Canceled).Once()

	inv := NewModelFallbackInvoker(client, []string{"m1", "m2"}, time.Second, testLogger())
	_, err := inv.Invoke(ctx, testRequest(), nil)

	assert.ErrorIs(t, err, context.Canceled)
	client.AssertNumberOfCalls(t, "Complete", 1)
}

func newGatewayServer(t *testing.T, status int, body string) (*httptest.Server, chan map[string]any) {
	t.Helper()
	captured := make(chan map[string]any, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		req := map[string]any{}
		_ = json.Unmarshal(raw, &req)
		select {
		case captured <- req:
		default:
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func TestGatewayClient_ToolCall(t *testing.T) {
	srv, captured := newGatewayServer(t, http.StatusOK, `{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"created": 1,
		"model": "m1",
		"choices": [{
			"index": 0,
			"finish_reason": "tool_calls",
			"message": {
				"role": "assistant",
				"content": "",
				"tool_calls": [{
					"id": "call_1",
					"type": "function",
					"function": {"name": "create_itinerary", "arguments": "{\"title\":\"Roma\",\"days\":[]}"}
				}]
			}
		}]
	}`)

	c := NewGatewayClient(GatewayConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1"}, testLogger())
	resp, err := c.Complete(context.Background(), "m1", testRequest())

	require.NoError(t, err)
	assert.Equal(t, KindToolCall, resp.Kind)
	assert.Equal(t, "create_itinerary", resp.ToolCall.Name)
	assert.JSONEq(t, `{"title":"Roma","days":[]}`, resp.ToolCall.Arguments)

	req := <-captured
	assert.Equal(t, "m1", req["model"])
	tools, ok := req["tools"].([]any)
	require.True(t, ok)
	require.Len(t, tools, 1)
	choice, ok := req["tool_choice"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "function", choice["type"])
}

func TestGatewayClient_TextAndEmpty(t *testing.T) {
	srv, _ := newGatewayServer(t, http.StatusOK, `{"choices":[{"index":0,"message":{"role":"assistant","content":"Here you go"}}]}`)
	c := NewGatewayClient(GatewayConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1"}, testLogger())
	resp, err := c.Complete(context.Background(), "m1", testRequest())
	require.NoError(t, err)
	assert.Equal(t, KindText, resp.Kind)
	assert.Equal(t, "Here you go", resp.Text)

	empty, _ := newGatewayServer(t, http.StatusOK, `{"choices":[]}`)
	c = NewGatewayClient(GatewayConfig{APIKey: "test-key", BaseURL: empty.URL + "/v1"}, testLogger())
	resp, err = c.Complete(context.Background(), "m1", testRequest())
	require.NoError(t, err)
	assert.Equal(t, KindEmpty, resp.Kind)
}

func TestGatewayClient_StatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{"error":{"message":"slow down","type":"rate_limit"}}`},
		{name: "payment required", status: http.StatusPaymentRequired, body: `{"error":{"message":"add credits","type":"billing"}}`},
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":{"message":"boom","type":"server"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newGatewayServer(t, tt.status, tt.body)
			c := NewGatewayClient(GatewayConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1"}, testLogger())
			_, err := c.Complete(context.Background(), "m1", testRequest())

			var se *StatusError
			require.True(t, errors.As(err, &se), "got %v", err)
			assert.Equal(t, tt.status, se.StatusCode)
		})
	}
}

func TestGatewayInvoker_RateLimitStopsFallback(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
	}))
	defer srv.Close()

	c := NewGatewayClient(GatewayConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1"}, testLogger())
	inv := NewModelFallbackInvoker(c, []string{"m1", "m2", "m3"}, time.Second, testLogger())
	_, err := inv.Invoke(context.Background(), testRequest(), nil)

	require.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, 1, calls)
}

func TestToGenaiSchema(t *testing.T) {
	s := toGenaiSchema(&testTool.Parameters)
	require.NotNil(t, s)
	assert.Equal(t, genai.TypeObject, s.Type)
	assert.Equal(t, []string{"title"}, s.Required)
	require.Contains(t, s.Properties, "days")
	assert.Equal(t, genai.TypeArray, s.Properties["days"].Type)
	require.NotNil(t, s.Properties["days"].Items)
	assert.Equal(t, genai.TypeObject, s.Properties["days"].Items.Type)
	assert.Nil(t, toGenaiSchema(nil))
}

func TestGeminiError(t *testing.T) {
	err := geminiError(genai.APIError{Code: http.StatusTooManyRequests, Message: "quota"})
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)

	plain := errors.New("dial tcp")
	assert.Equal(t, plain, geminiError(plain))
}
