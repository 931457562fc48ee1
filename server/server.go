// Package server exposes the HTTP surface described in spec.md §6: health
// and experiment-catalogue endpoints, and a synchronous stand-in for the
// bidirectional session channel (see DESIGN.md for why polling over plain
// net/http replaces a websocket here).
package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"daemonfield/config"
	"daemonfield/session"
	"daemonfield/storage"
)

const apiVersion = "0.1.0"

// Server is the daemonfield HTTP API: health/experiments catalogue plus
// per-session action dispatch and autoplay frame polling.
type Server struct {
	appCfg     *config.AppConfig
	sessions   *sessionStore
	experiment map[string]experimentDescriptor
	httpServer *http.Server
}

// NewServer builds a Server bound to addr, with sessions seeded from
// appCfg's process-global PRNG and, if appCfg.Cli.DbPath is set, telemetry
// logged to a SessionLogger at that path.
func NewServer(appCfg *config.AppConfig) (*Server, error) {
	var logger *storage.SessionLogger
	if appCfg.Cli.DbPath != "" {
		l, err := storage.NewSessionLogger(appCfg.Cli.DbPath)
		if err != nil {
			return nil, err
		}
		logger = l
	}

	s := &Server{
		appCfg:     appCfg,
		experiment: experimentRegistry(),
	}
	s.sessions = newSessionStore(func() *session.Controller {
		return session.NewController(appCfg.Rand())
	}, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/experiments", s.handleExperimentsList)
	mux.HandleFunc("/api/experiments/", s.handleExperimentsGet)
	mux.HandleFunc("/api/sessions", s.handleSessionsCreate)
	mux.HandleFunc("/api/sessions/", s.handleSessionsSub)

	s.httpServer = &http.Server{
		Addr:              appCfg.Cli.ServeAddr,
		Handler:           corsMiddleware(appCfg.Cli.AllowedOrigins, withLogging(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Start runs the HTTP server until it's shut down or fails to bind.
func (s *Server) Start() error {
	log.Printf("daemonfield serving on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts the server down, closing the SQLite logger if one
// is configured.
func (s *Server) Stop(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.sessions.logger != nil {
		if closeErr := s.sessions.logger.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %v", r.Method, r.URL.Path, time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("server: failed to encode JSON response: %v", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": apiVersion})
}

func (s *Server) handleExperimentsList(w http.ResponseWriter, r *http.Request) {
	list := make([]experimentDescriptor, 0, len(s.experiment))
	for _, id := range []string{"von_neumann", "kohonen"} {
		list = append(list, s.experiment[id])
	}
	writeJSON(w, http.StatusOK, list)
}

// handleExperimentsGet never fails with a non-2xx for an unknown id, per
// spec.md §6's "contract preserved from source".
func (s *Server) handleExperimentsGet(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/experiments/")
	descriptor, ok := s.experiment[id]
	if !ok {
		writeJSON(w, http.StatusOK, map[string]string{"error": "unknown experiment id: " + id})
		return
	}
	writeJSON(w, http.StatusOK, descriptor)
}

func (s *Server) handleSessionsCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, newErrorMessage(errMethodNotAllowed))
		return
	}
	entry := s.sessions.create()
	writeJSON(w, http.StatusCreated, map[string]string{"id": entry.ctrl.ID.String()})
}

// handleSessionsSub routes /api/sessions/{id}, /api/sessions/{id}/actions,
// and /api/sessions/{id}/frames.
func (s *Server) handleSessionsSub(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	parts := strings.SplitN(strings.Trim(rest, "/"), "/", 2)
	if len(parts) == 0 || parts[0] == "" {
		writeJSON(w, http.StatusNotFound, newErrorMessage(errUnknownSession))
		return
	}

	id, err := parseSessionID(parts[0])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, newErrorMessage(err))
		return
	}
	entry, ok := s.sessions.get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, newErrorMessage(errUnknownSession))
		return
	}

	sub := ""
	if len(parts) == 2 {
		sub = parts[1]
	}

	switch {
	case sub == "actions" && r.Method == http.MethodPost:
		s.handleAction(w, r, entry, id)
	case sub == "frames" && r.Method == http.MethodGet:
		s.handleFrames(w, r, entry)
	case sub == "" && r.Method == http.MethodDelete:
		s.sessions.remove(id)
		writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
	default:
		writeJSON(w, http.StatusNotFound, newErrorMessage(errUnknownSession))
	}
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request, entry *sessionEntry, id uuid.UUID) {
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusOK, []any{newErrorMessage(errMalformedAction)})
		return
	}
	hook := &loggerHook{logger: s.sessions.logger}
	msgs := dispatch(entry, id.String(), req, hook)
	writeJSON(w, http.StatusOK, msgs)
}

func (s *Server) handleFrames(w http.ResponseWriter, r *http.Request, entry *sessionEntry) {
	waitMs := 1000
	if v := r.URL.Query().Get("wait_ms"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			waitMs = parsed
		}
	}

	var out []any
	timer := time.NewTimer(time.Duration(waitMs) * time.Millisecond)
	defer timer.Stop()

	select {
	case msg := <-entry.events:
		out = append(out, msg)
	case <-timer.C:
		writeJSON(w, http.StatusOK, []any{})
		return
	}

	for {
		select {
		case msg := <-entry.events:
			out = append(out, msg)
		default:
			writeJSON(w, http.StatusOK, out)
			return
		}
	}
}
