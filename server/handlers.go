package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"muhabbet/chat"
	"muhabbet/model"
	"muhabbet/storage"
)

const (
	msgBadRequest          = "Mesaj formatı hatalı, tekrar dener misin?"
	msgEmptyMessage        = "Boş mesaj gönderilemez. Bir şeyler yaz ya da görsel ekle."
	msgInternal            = "Bir sıkıntı çıktı, sonra tekrar dene."
	msgNotFound            = "Sohbet bulunamadı."
	msgImageTooLarge       = "Görsel 10MB'dan küçük olmalı"
	msgImageType           = "Sadece JPEG, PNG, GIF ve WebP görseller destekleniyor."
	msgBodyTooLarge        = "İstek çok büyük."
	msgNothingToRegenerate = "Yeniden oluşturulacak bir mesaj yok."
)

// replyStatusHeader carries the reply kind next to the message body so the
// client can style fallbacks.
const replyStatusHeader = "X-Reply-Status"

type chatRequest struct {
	Content     string       `json:"content"`
	History     []model.Turn `json:"history"`
	ImageURL    string       `json:"imageUrl"`
	ImageBase64 string       `json:"imageBase64"`
}

type sendMessageRequest struct {
	Content     string `json:"content"`
	ImageURL    string `json:"imageUrl"`
	ImageBase64 string `json:"imageBase64"`
}

type sessionNameRequest struct {
	Name string `json:"name"`
}

type exchangeResponse struct {
	UserTurn      *model.Turn `json:"userTurn,omitempty"`
	AssistantTurn *model.Turn `json:"assistantTurn"`
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)

	// Stateless proxy; the browser keeps the history.
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/vision/available", s.handleVisionAvailable)
	mux.HandleFunc("GET /api/chat/history", s.handleChatHistory)
	mux.HandleFunc("POST /api/chat/clear", s.handleChatClear)

	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/sessions", s.handleListSessions)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("PATCH /api/sessions/{id}", s.handleRenameSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDeleteSession)
	mux.HandleFunc("POST /api/sessions/{id}/messages", s.handleSendMessage)
	mux.HandleFunc("POST /api/sessions/{id}/regenerate", s.handleRegenerate)
	mux.HandleFunc("DELETE /api/sessions/{id}/turns/{turnID}", s.handleDeleteTurn)
	mux.HandleFunc("POST /api/sessions/{id}/clear", s.handleClearSession)
	mux.HandleFunc("GET /api/sessions/{id}/export", s.handleExport)

	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVisionAvailable(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"available": s.chat.VisionAvailable()})
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, []model.Turn{})
}

func (s *Server) handleChatClear(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !s.decode(w, r, chatRequestValidator, false, &req) {
		return
	}

	att, ok := s.attachment(w, r, req.Content, req.ImageURL, req.ImageBase64)
	if !ok {
		return
	}

	ctx, cancel := s.chatContext(r)
	defer cancel()

	turn, kind := s.chat.Respond(ctx, nonEmpty(req.History), req.Content, att)
	w.Header().Set(replyStatusHeader, string(kind))
	writeJSON(w, http.StatusOK, turn)
}

// nonEmpty drops history entries without content; clients send placeholder
// entries while a reply is pending.
func nonEmpty(history []model.Turn) []model.Turn {
	out := make([]model.Turn, 0, len(history))
	for _, t := range history {
		if t.Content == nil {
			continue
		}
		if _, multimodal := t.Content.(model.MultimodalContent); !multimodal && t.Content.Text() == "" {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req sessionNameRequest
	if !s.decode(w, r, createSessionValidator, true, &req) {
		return
	}

	view, err := s.chat.StartSession(r.Context(), req.Name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.chat.Sessions(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	view, err := s.chat.Session(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleRenameSession(w http.ResponseWriter, r *http.Request) {
	var req sessionNameRequest
	if !s.decode(w, r, renameSessionValidator, false, &req) {
		return
	}

	session, err := s.chat.Rename(r.Context(), r.PathValue("id"), req.Name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.chat.DeleteSession(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if !s.decode(w, r, sendMessageValidator, false, &req) {
		return
	}

	att, ok := s.attachment(w, r, req.Content, req.ImageURL, req.ImageBase64)
	if !ok {
		return
	}

	ctx, cancel := s.chatContext(r)
	defer cancel()

	ex, err := s.chat.Send(ctx, r.PathValue("id"), req.Content, att)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeExchange(w, ex, true)
}

func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.chatContext(r)
	defer cancel()

	ex, err := s.chat.Regenerate(ctx, r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeExchange(w, ex, false)
}

func (s *Server) writeExchange(w http.ResponseWriter, ex chat.Exchange, withUser bool) {
	w.Header().Set(replyStatusHeader, string(ex.Kind))
	resp := exchangeResponse{AssistantTurn: ex.Assistant}
	if withUser {
		user := ex.User
		resp.UserTurn = &user
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteTurn(w http.ResponseWriter, r *http.Request) {
	if err := s.chat.DeleteTurn(r.Context(), r.PathValue("id"), r.PathValue("turnID")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearSession(w http.ResponseWriter, r *http.Request) {
	view, err := s.chat.Clear(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := storage.ParseExportFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, msgBadRequest)
		return
	}

	data, err := s.chat.Export(r.Context(), r.PathValue("id"), format)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s"`, storage.ExportFilename(format, time.Now())))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// chatContext bounds one model round by the configured chat timeout.
func (s *Server) chatContext(r *http.Request) (context.Context, context.CancelFunc) {
	if s.opts.ChatTimeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), s.opts.ChatTimeout)
}

// decode reads, schema-validates and unmarshals a JSON body. It writes the
// error response itself and reports whether the handler should continue.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v validator, allowEmpty bool, dst any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeMessage(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
			return false
		}
		s.badRequest(w, r, err)
		return false
	}

	if len(strings.TrimSpace(string(body))) == 0 {
		if !allowEmpty {
			s.badRequest(w, r, errInvalidBody)
			return false
		}
		body = []byte("{}")
	}

	if err := v.Validate(body); err != nil {
		s.badRequest(w, r, err)
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		s.badRequest(w, r, fmt.Errorf("%w: %v", errInvalidBody, err))
		return false
	}
	return true
}

// attachment validates the image fields and rejects rounds with neither text
// nor image.
func (s *Server) attachment(w http.ResponseWriter, r *http.Request, content, imageURL, imageBase64 string) (*model.ImageAttachment, bool) {
	att, err := parseAttachment(imageURL, imageBase64)
	switch {
	case errors.Is(err, errImageTooLarge):
		writeMessage(w, http.StatusBadRequest, msgImageTooLarge)
		return nil, false
	case errors.Is(err, errImageType):
		writeMessage(w, http.StatusBadRequest, msgImageType)
		return nil, false
	case err != nil:
		s.badRequest(w, r, err)
		return nil, false
	}

	if att == nil && strings.TrimSpace(content) == "" {
		writeMessage(w, http.StatusBadRequest, msgEmptyMessage)
		return nil, false
	}
	return att, true
}

func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	zerolog.Ctx(r.Context()).Debug().Err(err).Msg("rejected request")
	writeMessage(w, http.StatusBadRequest, msgBadRequest)
}

// fail maps service errors to responses. Internal details are only logged.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeMessage(w, http.StatusNotFound, msgNotFound)
	case errors.Is(err, chat.ErrNothingToRegenerate):
		writeMessage(w, http.StatusConflict, msgNothingToRegenerate)
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeMessage(w, http.StatusInternalServerError, msgInternal)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
