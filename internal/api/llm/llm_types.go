package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"
)

var (
	// ErrRateLimited is returned when the gateway answers 429. No further
	// models are tried.
	ErrRateLimited = errors.New("model gateway rate limited the request")
	// ErrInsufficientCredits is returned when the gateway answers 402.
	ErrInsufficientCredits = errors.New("model gateway reports insufficient credits")
	// ErrGenerationFailed is returned when every candidate model failed softly.
	ErrGenerationFailed = errors.New("could not generate a usable response")
)

// StatusError carries a non-success HTTP status from a model backend.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("model gateway returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("model gateway returned status %d: %s", e.StatusCode, e.Body)
}

// ResponseKind tags the variant held by a ModelResponse.
type ResponseKind int

const (
	KindEmpty ResponseKind = iota
	KindToolCall
	KindText
)

func (k ResponseKind) String() string {
	switch k {
	case KindToolCall:
		return "tool_call"
	case KindText:
		return "text"
	default:
		return "empty"
	}
}

// ToolCall is a function invocation returned by the model.
type ToolCall struct {
	Name      string
	Arguments string
}

// ModelResponse is either a tool call, free text, or empty. Text may also
// accompany a tool call when the model sent both.
type ModelResponse struct {
	Kind     ResponseKind
	ToolCall *ToolCall
	Text     string
	Model    string
}

func ToolCallResponse(name, arguments, text string) ModelResponse {
	return ModelResponse{Kind: KindToolCall, ToolCall: &ToolCall{Name: name, Arguments: arguments}, Text: text}
}

func TextResponse(text string) ModelResponse {
	if strings.TrimSpace(text) == "" {
		return ModelResponse{Kind: KindEmpty}
	}
	return ModelResponse{Kind: KindText, Text: text}
}

func EmptyResponse() ModelResponse {
	return ModelResponse{Kind: KindEmpty}
}

// Tool declares the single function the model is asked to call.
type Tool struct {
	Name        string
	Description string
	Parameters  jsonschema.Definition
}

type ToolRequest struct {
	SystemPrompt string
	UserPrompt   string
	Tool         Tool
}

// ChatCompleter issues one tool-calling request against one model.
type ChatCompleter interface {
	Complete(ctx context.Context, model string, req ToolRequest) (ModelResponse, error)
}
