package llm

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var _ ChatCompleter = (*GatewayClient)(nil)

type GatewayConfig struct {
	APIKey      string
	BaseURL     string
	Temperature float32
	Transport   http.RoundTripper
}

// GatewayClient talks to an OpenAI-compatible tool-calling endpoint.
type GatewayClient struct {
	logger      *slog.Logger
	client      *openai.Client
	temperature float32
}

func NewGatewayClient(cfg GatewayConfig, logger *slog.Logger) *GatewayClient {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	oc.HTTPClient = &http.Client{Transport: otelhttp.NewTransport(transport)}

	return &GatewayClient{
		logger:      logger.With(slog.String("backend", "gateway")),
		client:      openai.NewClientWithConfig(oc),
		temperature: cfg.Temperature,
	}
}

func (c *GatewayClient) Complete(ctx context.Context, model string, req ToolRequest) (ModelResponse, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.UserPrompt},
		},
		Tools: []openai.Tool{{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        req.Tool.Name,
				Description: req.Tool.Description,
				Parameters:  req.Tool.Parameters,
			},
		}},
		ToolChoice: openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: req.Tool.Name},
		},
		Temperature: c.temperature,
	})
	if err != nil {
		return ModelResponse{}, gatewayError(err)
	}
	if len(resp.Choices) == 0 {
		return EmptyResponse(), nil
	}

	msg := resp.Choices[0].Message
	for _, tc := range msg.ToolCalls {
		if tc.Function.Arguments != "" {
			return ToolCallResponse(tc.Function.Name, tc.Function.Arguments, msg.Content), nil
		}
	}
	return TextResponse(msg.Content), nil
}

func gatewayError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &StatusError{StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		body := ""
		if reqErr.Err != nil {
			body = reqErr.Err.Error()
		}
		return &StatusError{StatusCode: reqErr.HTTPStatusCode, Body: body}
	}
	return err
}
