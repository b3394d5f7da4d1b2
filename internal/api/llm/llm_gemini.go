package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sashabaranov/go-openai/jsonschema"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/genai"
)

var _ ChatCompleter = (*GeminiClient)(nil)

type GeminiConfig struct {
	APIKey      string
	BaseURL     string
	Temperature float32
	Transport   http.RoundTripper
}

// GeminiClient calls Gemini models with function declarations.
type GeminiClient struct {
	logger      *slog.Logger
	client      *genai.Client
	temperature float32
}

func NewGeminiClient(ctx context.Context, cfg GeminiConfig, logger *slog.Logger) (*GeminiClient, error) {
	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Transport: otelhttp.NewTransport(transport)},
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiClient{
		logger:      logger.With(slog.String("backend", "gemini")),
		client:      client,
		temperature: cfg.Temperature,
	}, nil
}

func (c *GeminiClient) Complete(ctx context.Context, model string, req ToolRequest) (ModelResponse, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.SystemPrompt, ""),
		Temperature:       genai.Ptr(c.temperature),
		Tools: []*genai.Tool{{
			FunctionDeclarations: []*genai.FunctionDeclaration{{
				Name:        req.Tool.Name,
				Description: req.Tool.Description,
				Parameters:  toGenaiSchema(&req.Tool.Parameters),
			}},
		}},
		ToolConfig: &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode:                 genai.FunctionCallingConfigModeAny,
				AllowedFunctionNames: []string{req.Tool.Name},
			},
		},
	}

	resp, err := c.client.Models.GenerateContent(ctx, model, genai.Text(req.UserPrompt), config)
	if err != nil {
		return ModelResponse{}, geminiError(err)
	}

	for _, call := range resp.FunctionCalls() {
		if call == nil || len(call.Args) == 0 {
			continue
		}
		args, err := json.Marshal(call.Args)
		if err != nil {
			c.logger.WarnContext(ctx, "Could not encode function call arguments", slog.Any("error", err))
			continue
		}
		return ToolCallResponse(call.Name, string(args), resp.Text()), nil
	}
	return TextResponse(resp.Text()), nil
}

func geminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code != 0 {
		return &StatusError{StatusCode: apiErr.Code, Body: apiErr.Message}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr.Code != 0 {
		return &StatusError{StatusCode: apiErrPtr.Code, Body: apiErrPtr.Message}
	}
	return err
}

var genaiTypes = map[jsonschema.DataType]genai.Type{
	jsonschema.Object:  genai.TypeObject,
	jsonschema.Array:   genai.TypeArray,
	jsonschema.String:  genai.TypeString,
	jsonschema.Number:  genai.TypeNumber,
	jsonschema.Integer: genai.TypeInteger,
	jsonschema.Boolean: genai.TypeBoolean,
}

func toGenaiSchema(def *jsonschema.Definition) *genai.Schema {
	if def == nil {
		return nil
	}
	s := &genai.Schema{
		Type:        genaiTypes[def.Type],
		Description: def.Description,
		Enum:        def.Enum,
		Required:    def.Required,
		Items:       toGenaiSchema(def.Items),
	}
	if len(def.Properties) > 0 {
		s.Properties = make(map[string]*genai.Schema, len(def.Properties))
		for name, prop := range def.Properties {
			s.Properties[name] = toGenaiSchema(&prop)
		}
	}
	return s
}
