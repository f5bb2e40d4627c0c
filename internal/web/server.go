// Package web serves a browser view of a running canvas: an HTML page that
// draws the cells, a websocket streaming projection frames and a small JSON
// API for state, counters and spawning.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"cello/internal/core"
	"cello/internal/sim"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"
)

//go:embed templates/index.html
var templates embed.FS

const shutdownGrace = 5 * time.Second

// Canvas is the part of a running canvas the server drives.
type Canvas interface {
	Spawn(ctx context.Context, name string) (uuid.UUID, error)
	Stats() sim.Stats
	Parameters() core.ParameterSnapshot
}

// Server serves the page, the frame websocket and the JSON API.
type Server struct {
	canvas   Canvas
	frames   FrameSource
	interval time.Duration
	view     int
	log      *slog.Logger
	index    *template.Template
	router   *mux.Router
}

// NewServer builds the routes. interval paces websocket publishing and view
// is the width in pixels of the drawing in the page.
func NewServer(canvas Canvas, frames FrameSource, interval time.Duration, view int, log *slog.Logger) (*Server, error) {
	index, err := template.ParseFS(templates, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse index: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		canvas:   canvas,
		frames:   frames,
		interval: interval,
		view:     view,
		log:      log,
		index:    index,
	}

	r := mux.NewRouter()
	r.HandleFunc("/", s.serveIndex).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.serveWebsocket).Methods(http.MethodGet)
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/state", s.serveState).Methods(http.MethodGet)
	api.HandleFunc("/stats", s.serveStats).Methods(http.MethodGet)
	api.HandleFunc("/spawn", s.serveSpawn).Methods(http.MethodPost)
	s.router = r
	return s, nil
}

// Handler exposes the router.
func (s *Server) Handler() http.Handler { return s.router }

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
// Open websockets are torn down through their request context.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:        addr,
		Handler:     s.router,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		s.log.Info("web viewer listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return group.Wait()
}

type indexData struct {
	Title  string
	View   int
	Width  float64
	Height float64
}

func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	frame := s.frames.Frame()
	data := indexData{Title: "Cell-O!", View: s.view, Width: frame.Width, Height: frame.Height}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.index.Execute(w, data); err != nil {
		s.log.Error("render index", "err", err)
	}
}

func (s *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	cli, err := newClient(s.frames, s.interval, w, r)
	if err != nil {
		// The upgrader has already written the HTTP error.
		s.log.Warn("websocket upgrade", "err", err)
		return
	}
	s.log.Debug("viewer connected", "remote", r.RemoteAddr)
	if err := cli.Sync(r.Context()); err != nil {
		s.log.Debug("viewer dropped", "remote", r.RemoteAddr, "err", err)
		return
	}
	s.log.Debug("viewer left", "remote", r.RemoteAddr)
}

func (s *Server) serveState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, NewFrameDTO(s.frames.Frame()))
}

func (s *Server) serveStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, NewStatsDTO(s.canvas.Stats(), s.canvas.Parameters()))
}

func (s *Server) serveSpawn(w http.ResponseWriter, r *http.Request) {
	var req SpawnRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageSize))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("decode body: %v", err)})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "name is required"})
		return
	}

	id, err := s.canvas.Spawn(r.Context(), req.Name)
	if err != nil {
		writeJSON(w, spawnStatus(err), ErrorResponse{Error: err.Error()})
		return
	}
	s.log.Info("spawned from web", "name", req.Name, "id", id)
	writeJSON(w, http.StatusCreated, SpawnResponse{ID: id.String(), Name: req.Name})
}

func spawnStatus(err error) int {
	switch {
	case errors.Is(err, sim.ErrAllocation):
		return http.StatusConflict
	case errors.Is(err, sim.ErrInvalidState):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
