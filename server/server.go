// Package server exposes the chat service over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"muhabbet/chat"
	"muhabbet/model"
	"muhabbet/storage"
)

// DefaultMaxBodyBytes leaves room for a 10 MiB image in base64 plus history.
const DefaultMaxBodyBytes = 32 << 20

const shutdownTimeout = 10 * time.Second

// Chat is the service the handlers drive; *chat.Service implements it.
type Chat interface {
	VisionAvailable() bool
	Respond(ctx context.Context, history []model.Turn, text string, attachment *model.ImageAttachment) (model.Turn, model.ReplyKind)
	StartSession(ctx context.Context, name string) (chat.SessionView, error)
	Session(ctx context.Context, id string) (chat.SessionView, error)
	Sessions(ctx context.Context) ([]storage.Session, error)
	Rename(ctx context.Context, id, name string) (storage.Session, error)
	DeleteSession(ctx context.Context, id string) error
	Send(ctx context.Context, sessionID, text string, attachment *model.ImageAttachment) (chat.Exchange, error)
	Regenerate(ctx context.Context, sessionID string) (chat.Exchange, error)
	DeleteTurn(ctx context.Context, sessionID, turnID string) error
	Clear(ctx context.Context, sessionID string) (chat.SessionView, error)
	Export(ctx context.Context, sessionID string, format storage.ExportFormat) ([]byte, error)
}

// Options configures the HTTP server.
type Options struct {
	Addr           string
	ChatTimeout    time.Duration
	AllowedOrigins []string
	MaxBodyBytes   int64
}

type Server struct {
	chat    Chat
	opts    Options
	logger  zerolog.Logger
	handler http.Handler
}

func New(svc Chat, opts Options, logger zerolog.Logger) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	s := &Server{
		chat:   svc,
		opts:   opts,
		logger: logger.With().Str("component", "http").Logger(),
	}
	s.handler = chain(s.routes(),
		withRequestLogger(s.logger),
		withRecover,
		withCORS(opts.AllowedOrigins),
	)
	return s
}

// Handler returns the root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves on opts.Addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	// The write timeout must outlast a full model round.
	writeTimeout := s.opts.ChatTimeout + 30*time.Second
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", ln.Addr().String()).Msg("listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
