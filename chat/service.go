// Package chat runs one conversation round: window the history, assemble the
// request, call the gateway and persist the result.
package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"muhabbet/conversation"
	"muhabbet/model"
	"muhabbet/storage"
)

// ErrNothingToRegenerate is returned when a session has no user turn to ask
// again.
var ErrNothingToRegenerate = errors.New("no user message to regenerate")

// Store is the slice of storage.Store the service needs.
type Store interface {
	CreateSession(ctx context.Context, name string) (storage.Session, error)
	GetSession(ctx context.Context, id string) (storage.Session, error)
	ListSessions(ctx context.Context) ([]storage.Session, error)
	RenameSession(ctx context.Context, id, name string) (storage.Session, error)
	DeleteSession(ctx context.Context, id string) error
	AppendTurns(ctx context.Context, sessionID string, turns ...model.Turn) error
	Turns(ctx context.Context, sessionID string) ([]model.Turn, error)
	DeleteTurn(ctx context.Context, sessionID, turnID string) error
	ReplaceAfter(ctx context.Context, sessionID, turnID string, turns ...model.Turn) (int, error)
	ClearTurns(ctx context.Context, sessionID string) error
}

// Gateway is implemented by provider.Gateway.
type Gateway interface {
	Complete(ctx context.Context, req model.Request, visionRequested bool) model.Reply
	VisionAvailable() bool
}

// Service drives chat rounds for both the stateless proxy route and stored
// sessions.
type Service struct {
	store    Store
	gateway  Gateway
	windower conversation.Windower
	prompt   conversation.PromptBuilder
	logger   zerolog.Logger
	tracer   trace.Tracer
}

// NewService creates a service using the default sliding window.
func NewService(store Store, gateway Gateway, prompt conversation.PromptBuilder, logger zerolog.Logger) *Service {
	return &Service{
		store:    store,
		gateway:  gateway,
		windower: conversation.NewSlidingWindow(),
		prompt:   prompt,
		logger:   logger.With().Str("component", "chat").Logger(),
		tracer:   otel.Tracer("muhabbet/chat"),
	}
}

// WithWindower replaces the context windower.
func (s *Service) WithWindower(w conversation.Windower) *Service {
	s.windower = w
	return s
}

func (s *Service) WithTracer(t trace.Tracer) *Service {
	s.tracer = t
	return s
}

// VisionAvailable reports whether image questions reach a vision model.
func (s *Service) VisionAvailable() bool {
	return s.gateway.VisionAvailable()
}

// Exchange is the outcome of one stored round. Assistant is nil when the
// call was canceled and nothing was persisted for it.
type Exchange struct {
	User      model.Turn
	Assistant *model.Turn
	Kind      model.ReplyKind
}

// SessionView is a session with its turns.
type SessionView struct {
	Session storage.Session `json:"session"`
	Turns   []model.Turn    `json:"turns"`
}

// ask windows prior, assembles the request around user and calls the
// gateway. Ids and timestamps stay behind; the system prompt is rebuilt on
// every call.
func (s *Service) ask(ctx context.Context, prior []model.Turn, user model.Turn) model.Reply {
	vision := false
	if mc, ok := user.Content.(model.MultimodalContent); ok {
		vision = len(mc.Images()) > 0
	}
	windowed := s.windower.Window(model.StripMetadata(prior))
	req := conversation.AssembleTurn(s.prompt.Build(vision), windowed, model.StripMetadata([]model.Turn{user})[0])

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int("history.turns", len(prior)),
		attribute.Int("window.turns", len(windowed)),
		attribute.Bool("vision", vision),
	)
	return s.gateway.Complete(ctx, req, vision)
}

func assistantTurn(reply model.Reply) model.Turn {
	return model.NewTextTurn(model.RoleAssistant, reply.Text, reply.GeneratedAt)
}

// Respond answers a question against a caller-held history without touching
// the store.
func (s *Service) Respond(ctx context.Context, history []model.Turn, text string, attachment *model.ImageAttachment) (model.Turn, model.ReplyKind) {
	ctx, span := s.tracer.Start(ctx, "chat.respond")
	defer span.End()

	user := model.NewTurn(model.RoleUser, conversation.UserContent(text, attachment), time.Now())
	reply := s.ask(ctx, history, user)
	span.SetAttributes(attribute.String("reply.kind", string(reply.Kind)))

	return assistantTurn(reply), reply.Kind
}

// StartSession creates a session opened with the welcome turn.
func (s *Service) StartSession(ctx context.Context, name string) (SessionView, error) {
	session, err := s.store.CreateSession(ctx, name)
	if err != nil {
		return SessionView{}, err
	}

	welcome := model.NewTextTurn(model.RoleAssistant, s.prompt.Welcome(), time.Now())
	if err := s.store.AppendTurns(ctx, session.ID, welcome); err != nil {
		return SessionView{}, fmt.Errorf("failed to seed welcome turn: %w", err)
	}

	s.logger.Info().Str("session", session.ID).Msg("session started")
	return s.Session(ctx, session.ID)
}

// Session returns a session and its turns.
func (s *Service) Session(ctx context.Context, id string) (SessionView, error) {
	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return SessionView{}, err
	}
	turns, err := s.store.Turns(ctx, id)
	if err != nil {
		return SessionView{}, err
	}
	return SessionView{Session: session, Turns: turns}, nil
}

// Sessions lists sessions, newest first.
func (s *Service) Sessions(ctx context.Context) ([]storage.Session, error) {
	return s.store.ListSessions(ctx)
}

// Rename changes a session's display name.
func (s *Service) Rename(ctx context.Context, id, name string) (storage.Session, error) {
	return s.store.RenameSession(ctx, id, name)
}

// DeleteSession removes a session and its history.
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	return s.store.DeleteSession(ctx, id)
}

// Send appends the user turn, asks the model and appends its reply. The user
// turn is stored before the call so it survives a failed round. A canceled
// call stores no assistant turn.
func (s *Service) Send(ctx context.Context, sessionID, text string, attachment *model.ImageAttachment) (Exchange, error) {
	ctx, span := s.tracer.Start(ctx, "chat.send", trace.WithAttributes(
		attribute.String("session", sessionID),
	))
	defer span.End()

	prior, err := s.store.Turns(ctx, sessionID)
	if err != nil {
		span.RecordError(err)
		return Exchange{}, err
	}

	user := model.NewTurn(model.RoleUser, conversation.UserContent(text, attachment), time.Now())
	if err := s.store.AppendTurns(ctx, sessionID, user); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "append user turn")
		return Exchange{}, fmt.Errorf("failed to store user turn: %w", err)
	}

	reply := s.ask(ctx, prior, user)
	return s.finish(ctx, span, sessionID, user, reply, func(ctx context.Context, assistant model.Turn) error {
		return s.store.AppendTurns(ctx, sessionID, assistant)
	})
}

// Regenerate asks the last user turn again and replaces every turn after it
// with the new reply. A canceled round leaves the session untouched.
func (s *Service) Regenerate(ctx context.Context, sessionID string) (Exchange, error) {
	ctx, span := s.tracer.Start(ctx, "chat.regenerate", trace.WithAttributes(
		attribute.String("session", sessionID),
	))
	defer span.End()

	turns, err := s.store.Turns(ctx, sessionID)
	if err != nil {
		span.RecordError(err)
		return Exchange{}, err
	}

	last := -1
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == model.RoleUser {
			last = i
			break
		}
	}
	if last < 0 {
		return Exchange{}, ErrNothingToRegenerate
	}

	user := turns[last]
	reply := s.ask(ctx, turns[:last], user)
	return s.finish(ctx, span, sessionID, user, reply, func(ctx context.Context, assistant model.Turn) error {
		removed, err := s.store.ReplaceAfter(ctx, sessionID, user.ID, assistant)
		if err != nil {
			return err
		}
		s.logger.Debug().Str("session", sessionID).Int("removed", removed).Msg("regenerated reply")
		return nil
	})
}

func (s *Service) finish(ctx context.Context, span trace.Span, sessionID string, user model.Turn, reply model.Reply,
	store func(ctx context.Context, assistant model.Turn) error) (Exchange, error) {
	span.SetAttributes(attribute.String("reply.kind", string(reply.Kind)))
	ex := Exchange{User: user, Kind: reply.Kind}

	if reply.Kind == model.ReplyCanceled {
		s.logger.Debug().Str("session", sessionID).Msg("round canceled, reply not stored")
		return ex, nil
	}

	if reply.Kind.IsFailure() {
		s.logger.Warn().Str("session", sessionID).Str("kind", string(reply.Kind)).Msg("storing fallback reply")
	}

	// The round's deadline may already have passed; the fallback text for a
	// timeout is still stored.
	assistant := assistantTurn(reply)
	if err := store(context.WithoutCancel(ctx), assistant); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "append assistant turn")
		return Exchange{}, fmt.Errorf("failed to store assistant turn: %w", err)
	}
	ex.Assistant = &assistant
	return ex, nil
}

// DeleteTurn removes a single turn.
func (s *Service) DeleteTurn(ctx context.Context, sessionID, turnID string) error {
	return s.store.DeleteTurn(ctx, sessionID, turnID)
}

// Clear wipes a session's turns and opens it again with a fresh welcome turn.
func (s *Service) Clear(ctx context.Context, sessionID string) (SessionView, error) {
	if err := s.store.ClearTurns(ctx, sessionID); err != nil {
		return SessionView{}, err
	}
	welcome := model.NewTextTurn(model.RoleAssistant, s.prompt.Welcome(), time.Now())
	if err := s.store.AppendTurns(ctx, sessionID, welcome); err != nil {
		return SessionView{}, fmt.Errorf("failed to seed welcome turn: %w", err)
	}
	return s.Session(ctx, sessionID)
}

// Export renders a session transcript in the persona's time zone.
func (s *Service) Export(ctx context.Context, sessionID string, format storage.ExportFormat) ([]byte, error) {
	turns, err := s.store.Turns(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return storage.Export(format, turns, s.prompt.Location)
}
