// Package api provides the HTTP REST surface for launching and
// inspecting analysis runs.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/hugo-lorenzo-mato/omnidoc/internal/core"
	"github.com/hugo-lorenzo-mato/omnidoc/internal/logging"
)

// RunLauncher starts one analysis run and returns its archived record.
type RunLauncher interface {
	Launch(ctx context.Context, ref core.PRRef, enableDiagrams bool) (*core.RunRecord, error)
}

// Server exposes run launch and history endpoints.
type Server struct {
	router   chi.Router
	launcher RunLauncher
	store    core.RunStore
	logger   *logging.Logger

	defaultRepo    string
	allowedOrigins []string
}

// ServerOption configures the server.
type ServerOption func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *logging.Logger) ServerOption {
	return func(s *Server) { s.logger = logger }
}

// WithDefaultRepo sets the owner/repo used for bare PR numbers.
func WithDefaultRepo(repo string) ServerOption {
	return func(s *Server) { s.defaultRepo = repo }
}

// WithAllowedOrigins sets the CORS origin allowlist.
func WithAllowedOrigins(origins []string) ServerOption {
	return func(s *Server) { s.allowedOrigins = origins }
}

// NewServer creates the API server.
func NewServer(launcher RunLauncher, store core.RunStore, opts ...ServerOption) *Server {
	s := &Server{
		launcher: launcher,
		store:    store,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.setupRouter()
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	if len(s.allowedOrigins) > 0 {
		corsHandler := cors.New(cors.Options{
			AllowedOrigins:   s.allowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
			AllowCredentials: false,
			MaxAge:           300,
		})
		r.Use(corsHandler.Handler)
	}

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/runs", func(r chi.Router) {
			r.Get("/", s.handleListRuns)
			r.Post("/", s.handleCreateRun)
			r.Route("/{runID}", func(r chi.Router) {
				r.Get("/", s.handleGetRun)
				r.Delete("/", s.handleDeleteRun)
			})
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// runRequest is the POST /runs payload.
type runRequest struct {
	// PR accepts owner/repo#number, a GitHub PR URL, or a bare number
	// when a default repository is configured.
	PR             string `json:"pr"`
	EnableDiagrams bool   `json:"enable_diagrams"`
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.PR == "" {
		writeError(w, http.StatusBadRequest, "pr is required")
		return
	}

	ref, err := s.parseRef(req.PR)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	rec, err := s.launcher.Launch(r.Context(), ref, req.EnableDiagrams)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if q := r.URL.Query().Get("limit"); q != "" {
		if _, err := parsePositive(q, &limit); err != nil {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
	}

	recs, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if recs == nil {
		recs = []*core.RunRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": recs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(r.Context(), core.RunID(chi.URLParam(r, "runID")))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), core.RunID(chi.URLParam(r, "runID"))); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
