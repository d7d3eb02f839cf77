package provider

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"muhabbet/model"
)

// Gateway performs the single model call per chat round and normalizes every
// outcome into a model.Reply. It never returns an error: failures become
// localized fallback texts tagged with their kind.
type Gateway struct {
	text   model.Provider
	vision model.Provider
	logger zerolog.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// NewGateway creates a gateway. vision may be nil, in which case image
// requests are acknowledged without a network call.
func NewGateway(text, vision model.Provider, logger zerolog.Logger) *Gateway {
	return &Gateway{
		text:   text,
		vision: vision,
		logger: logger.With().Str("component", "gateway").Logger(),
		tracer: otel.Tracer("muhabbet/provider"),
		now:    time.Now,
	}
}

// WithTracer replaces the tracer used for gateway spans.
func (g *Gateway) WithTracer(t trace.Tracer) *Gateway {
	g.tracer = t
	return g
}

// VisionAvailable reports whether a vision backend is configured.
func (g *Gateway) VisionAvailable() bool {
	return g.vision != nil
}

// Model returns the model name of the text backend.
func (g *Gateway) Model() string {
	if g.text == nil {
		return ""
	}
	return g.text.GetModel()
}

// Ping checks that the text backend is reachable.
func (g *Gateway) Ping(ctx context.Context) error {
	return g.text.Ping(ctx)
}

// Complete sends req to the vision backend when visionRequested is set and to
// the text backend otherwise.
func (g *Gateway) Complete(ctx context.Context, req model.Request, visionRequested bool) model.Reply {
	ctx, span := g.tracer.Start(ctx, "gateway.complete",
		trace.WithAttributes(
			attribute.Bool("vision", visionRequested),
			attribute.Int("messages", len(req.Messages)),
		),
	)
	defer span.End()

	backend := g.text
	if visionRequested {
		if g.vision == nil {
			span.SetAttributes(attribute.String("reply.kind", string(model.ReplyVisionDisabled)))
			return g.reply(model.ReplyVisionDisabled, TextVisionDisabled)
		}
		backend = g.vision
	}
	span.SetAttributes(attribute.String("model", backend.GetModel()))

	start := g.now()
	text, err := backend.Complete(ctx, req)
	elapsed := g.now().Sub(start)

	if err != nil {
		kind := Classify(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(kind))
		span.SetAttributes(attribute.String("reply.kind", string(kind)))

		event := g.logger.Error()
		if kind == model.ReplyCanceled {
			event = g.logger.Debug()
		}
		event.Err(err).
			Str("kind", string(kind)).
			Int("status", StatusCode(err)).
			Bool("vision", visionRequested).
			Dur("elapsed", elapsed).
			Msg("model call failed")

		return g.reply(kind, FallbackText(kind, visionRequested))
	}

	if strings.TrimSpace(text) == "" {
		g.logger.Warn().Bool("vision", visionRequested).Msg("model returned empty completion")
		span.SetAttributes(attribute.String("reply.kind", string(model.ReplyEmptyCompletion)))
		return g.reply(model.ReplyEmptyCompletion, FallbackText(model.ReplyEmptyCompletion, visionRequested))
	}

	g.logger.Debug().
		Str("model", backend.GetModel()).
		Bool("vision", visionRequested).
		Dur("elapsed", elapsed).
		Int("chars", len(text)).
		Msg("model call succeeded")
	span.SetAttributes(attribute.String("reply.kind", string(model.ReplyOK)))

	return g.reply(model.ReplyOK, text)
}

func (g *Gateway) reply(kind model.ReplyKind, text string) model.Reply {
	return model.Reply{
		Text:        text,
		GeneratedAt: g.now(),
		Kind:        kind,
	}
}
