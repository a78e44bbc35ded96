/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */

// Package server exposes chat turns as server-sent event streams and the
// chat history and search quota as JSON resources.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mikeb26/chorus/internal/composer"
	"github.com/mikeb26/chorus/internal/quota"
	"github.com/mikeb26/chorus/internal/store"
	"github.com/mikeb26/chorus/internal/stream"
	"github.com/mikeb26/chorus/internal/types"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
)

const ChatIDHeader = "X-Chat-ID"

const maxRequestBytes = 4 << 20

type Server struct {
	agents  composer.Agents
	cfg     composer.Config
	store   store.ChatStore
	counter *quota.Counter
	now     func() time.Time
}

// New returns a server that runs every turn on agents. cfg.Counter is
// shared by all turns and reported by the quota endpoints.
func New(agents composer.Agents, cfg composer.Config,
	chats store.ChatStore) *Server {

	if cfg.Counter == nil {
		cfg.Counter = quota.NewCounter(quota.DefaultMonthlyLimit)
	}
	if chats == nil {
		chats = store.NewMemoryStore()
	}
	return &Server{
		agents:  agents,
		cfg:     cfg,
		store:   chats,
		counter: cfg.Counter,
		now:     time.Now,
	}
}

// Handler returns the router with logging and recovery middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(hlog.NewHandler(log.Logger))
	r.Use(hlog.RequestIDHandler("req_id", "X-Request-ID"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int,
		duration time.Duration) {

		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(middleware.Recoverer)

	r.Get("/api/health", s.health)
	r.Post("/api/chat", s.chat)
	r.Route("/api/chats", func(r chi.Router) {
		r.Get("/", s.listChats)
		r.Get("/{id}", s.getChat)
		r.Delete("/{id}", s.deleteChat)
	})
	r.Get("/api/quota", s.quota)
	r.Post("/api/quota/reset", s.resetQuota)

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// chat handles POST /api/chat. The response is the turn's event stream;
// once it ends the conversation including the new assistant turn is
// stored.
func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req types.ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages are required")
		return
	}
	if last := req.Messages[len(req.Messages)-1]; last.Role != types.LlmRoleUser {
		writeError(w, http.StatusBadRequest, "last message must be from the user")
		return
	}
	if req.ID == "" {
		req.ID = store.NewChatID()
	}

	w.Header().Set(ChatIDHeader, req.ID)
	sse, err := stream.NewSSEWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger := hlog.FromRequest(r).With().Str("chat", req.ID).Logger()
	ctx := logger.WithContext(r.Context())

	comp := composer.New(ctx, s.agents, s.cfg, sse)
	res, err := comp.Run(ctx, req.Messages)
	if err != nil {
		return
	}

	s.persist(context.WithoutCancel(ctx), logger, &types.ChatHistory{
		ID:        req.ID,
		Messages:  append(req.Messages, res.Message()),
		Timestamp: s.now(),
	})
}

func (s *Server) persist(ctx context.Context, logger zerolog.Logger,
	h *types.ChatHistory) {

	if err := s.store.Put(ctx, h); err != nil {
		logger.Warn().Err(err).Msg("failed to store chat")
	}
}

func (s *Server) listChats(w http.ResponseWriter, r *http.Request) {
	chats, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if chats == nil {
		chats = []*types.ChatHistory{}
	}
	writeJSON(w, http.StatusOK, chats)
}

func (s *Server) getChat(w http.ResponseWriter, r *http.Request) {
	h, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "chat not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) deleteChat(w http.ResponseWriter, r *http.Request) {
	err := s.store.Delete(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "chat not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) quota(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.counter.Snapshot())
}

func (s *Server) resetQuota(w http.ResponseWriter, r *http.Request) {
	s.counter.Reset()
	hlog.FromRequest(r).Info().Msg("search quota reset")
	writeJSON(w, http.StatusOK, s.counter.Snapshot())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
