package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-itinerary/app/observability/metrics"
)

const defaultAttemptTimeout = 90 * time.Second

// ValidateFunc rejects a response the caller cannot use, which makes the
// invoker move on to the next model.
type ValidateFunc func(ModelResponse) error

type Invoker interface {
	Invoke(ctx context.Context, req ToolRequest, validate ValidateFunc) (ModelResponse, error)
}

var _ Invoker = (*ModelFallbackInvoker)(nil)

// ModelFallbackInvoker tries candidate models strictly in order.
type ModelFallbackInvoker struct {
	logger         *slog.Logger
	client         ChatCompleter
	models         []string
	attemptTimeout time.Duration
}

func NewModelFallbackInvoker(client ChatCompleter, models []string, attemptTimeout time.Duration, logger *slog.Logger) *ModelFallbackInvoker {
	if attemptTimeout <= 0 {
		attemptTimeout = defaultAttemptTimeout
	}
	return &ModelFallbackInvoker{
		logger:         logger.With(slog.String("component", "ModelFallbackInvoker")),
		client:         client,
		models:         models,
		attemptTimeout: attemptTimeout,
	}
}

// Invoke returns the first usable response. 429 and 402 abort immediately;
// anything else falls through to the next model.
func (i *ModelFallbackInvoker) Invoke(ctx context.Context, req ToolRequest, validate ValidateFunc) (ModelResponse, error) {
	ctx, span := otel.Tracer("LLMService").Start(ctx, "ModelFallbackInvoker.Invoke", trace.WithAttributes(
		attribute.String("llm.tool", req.Tool.Name),
		attribute.Int("llm.candidates", len(i.models)),
	))
	defer span.End()

	lastErr := errors.New("no candidate models configured")
	for n, model := range i.models {
		l := i.logger.With(slog.String("model", model), slog.Int("attempt", n+1))

		resp, err := i.attempt(ctx, model, req)
		if err != nil {
			if fatal := classify(err); fatal != nil {
				i.record(ctx, model, "fatal")
				l.ErrorContext(ctx, "Model attempt failed fatally", slog.Any("error", err))
				span.RecordError(fatal)
				span.SetStatus(codes.Error, fatal.Error())
				return ModelResponse{}, fatal
			}
			if ctx.Err() != nil {
				span.SetStatus(codes.Error, "cancelled")
				return ModelResponse{}, ctx.Err()
			}
			i.record(ctx, model, "error")
			l.WarnContext(ctx, "Model attempt failed, trying next candidate", slog.Any("error", err))
			lastErr = fmt.Errorf("model %s: %w", model, err)
			continue
		}

		if resp.Kind == KindEmpty {
			i.record(ctx, model, "empty")
			l.WarnContext(ctx, "Model returned neither tool call nor content, trying next candidate")
			lastErr = fmt.Errorf("model %s: empty response", model)
			continue
		}
		if validate != nil {
			if err := validate(resp); err != nil {
				i.record(ctx, model, "unusable")
				l.WarnContext(ctx, "Model response unusable, trying next candidate",
					slog.String("kind", resp.Kind.String()), slog.Any("error", err))
				lastErr = fmt.Errorf("model %s: %w", model, err)
				continue
			}
		}

		i.record(ctx, model, "success")
		resp.Model = model
		span.SetAttributes(attribute.String("llm.model", model), attribute.Int("llm.attempts", n+1))
		span.SetStatus(codes.Ok, "response received")
		l.InfoContext(ctx, "Model response accepted", slog.String("kind", resp.Kind.String()))
		return resp, nil
	}

	err := fmt.Errorf("%w: %w", ErrGenerationFailed, lastErr)
	span.RecordError(err)
	span.SetStatus(codes.Error, "all candidates failed")
	return ModelResponse{}, err
}

func (i *ModelFallbackInvoker) attempt(ctx context.Context, model string, req ToolRequest) (ModelResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, i.attemptTimeout)
	defer cancel()
	return i.client.Complete(ctx, model, req)
}

func (i *ModelFallbackInvoker) record(ctx context.Context, model, outcome string) {
	metrics.Get().ModelAttemptsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("model", model),
		attribute.String("outcome", outcome),
	))
}

// classify returns the fatal error for err, or nil when err is soft.
func classify(err error) error {
	var se *StatusError
	if !errors.As(err, &se) {
		return nil
	}
	switch se.StatusCode {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", ErrRateLimited, err)
	case http.StatusPaymentRequired:
		return fmt.Errorf("%w: %w", ErrInsufficientCredits, err)
	}
	return nil
}
