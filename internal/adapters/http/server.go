// Package http is the web frontend: a chi-routed JSON API plus an embedded
// single-page chat UI. Each browser session drives the shared research
// loop one step per request; the server never blocks more than one
// invocation per session at a time.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/fathom/internal/config"
	"github.com/aretw0/fathom/internal/metrics"
	"github.com/aretw0/fathom/pkg/domain"
	"github.com/aretw0/fathom/pkg/ports"
)

// Server exposes the session API and UI.
type Server struct {
	manager *Manager
	logger  *slog.Logger
}

// NewHandler wires the full web surface: UI, session API, health and
// metrics endpoints.
func NewHandler(builder ports.Builder, cfg config.Config, logger *slog.Logger) http.Handler {
	registry := prometheus.NewRegistry()
	m := metrics.New().MustRegister(registry)

	s := &Server{
		manager: NewManager(builder, cfg, logger, m),
		logger:  logger,
	}

	r := chi.NewRouter()
	r.Get("/", s.serveUI)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", s.createSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Post("/query", s.postQuery)
			r.Post("/clarify", s.postClarify)
			r.Post("/cancel", s.postCancel)
			r.Post("/reset", s.postReset)
			r.Get("/report", s.downloadReport)
		})
	})

	return r
}

func (s *Server) serveUI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(uiHTML))
}

type createSessionRequest struct {
	ThreadID        string `json:"thread_id"`
	IterationBudget int    `json:"iteration_budget"`
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var body createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("create session: invalid body", "err", err)
		return
	}

	session, err := s.manager.Create(body.ThreadID, body.IterationBudget)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to create session: %v", err), http.StatusInternalServerError)
		s.logger.Error("create session failed", "err", err)
		return
	}
	s.writeSession(w, session)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	session, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeSession(w, session)
}

type queryRequest struct {
	Query string `json:"query"`
}

func (s *Server) postQuery(w http.ResponseWriter, r *http.Request) {
	session, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var body queryRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Query == "" {
		http.Error(w, "A non-empty query is required", http.StatusBadRequest)
		return
	}

	if err := s.manager.StartQuery(r.Context(), session, body.Query); err != nil {
		s.writeActionError(w, err)
		return
	}
	s.writeSession(w, session)
}

type clarifyRequest struct {
	Answer string `json:"answer"`
}

func (s *Server) postClarify(w http.ResponseWriter, r *http.Request) {
	session, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var body clarifyRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Empty answers are allowed: the driver substitutes the original query.
	if err := s.manager.Clarify(r.Context(), session, body.Answer); err != nil {
		s.writeActionError(w, err)
		return
	}
	s.writeSession(w, session)
}

func (s *Server) postCancel(w http.ResponseWriter, r *http.Request) {
	session, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if err := s.manager.Cancel(session); err != nil {
		s.writeActionError(w, err)
		return
	}
	s.writeSession(w, session)
}

func (s *Server) postReset(w http.ResponseWriter, r *http.Request) {
	session, ok := s.lookup(w, r)
	if !ok {
		return
	}
	session, err := s.manager.Reset(session.ID)
	if err != nil {
		http.Error(w, fmt.Sprintf("Reset failed: %v", err), http.StatusInternalServerError)
		return
	}
	s.writeSession(w, session)
}

func (s *Server) downloadReport(w http.ResponseWriter, r *http.Request) {
	session, ok := s.lookup(w, r)
	if !ok {
		return
	}
	view := session.View()
	if view.Report == "" {
		http.Error(w, "No report available", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/markdown")
	w.Header().Set("Content-Disposition", `attachment; filename="research_report.md"`)
	_, _ = w.Write([]byte(view.Report))
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	id := chi.URLParam(r, "sessionID")
	session, err := s.manager.Get(id)
	if err != nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return session, true
}

func (s *Server) writeSession(w http.ResponseWriter, session *Session) {
	w.Header().Set("Content-Type", "application/json")
	view := session.View()
	if err := json.NewEncoder(w).Encode(&view); err != nil {
		s.logger.Error("session encode failed", "err", err)
	}
}

// writeActionError maps manager errors to HTTP status codes. Busy sessions
// are a conflict, not a failure: the client retries after the in-flight
// invocation finishes.
func (s *Server) writeActionError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	if errors.Is(err, domain.ErrSessionBusy) {
		status = http.StatusConflict
	}
	http.Error(w, err.Error(), status)
}
