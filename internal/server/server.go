// Package server exposes a read-only HTTP API over a collection output
// directory.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/places-collector/internal/collector"
	"github.com/sells-group/places-collector/internal/dedup"
	"github.com/sells-group/places-collector/internal/model"
)

const (
	defaultLimit    = 100
	maxLimit        = 1000
	shutdownTimeout = 10 * time.Second
)

// Server serves progress, entities and stats read from checkpoint files on
// every request, so it reflects a run that is still writing.
type Server struct {
	ckpt   *collector.Checkpoint
	router chi.Router
	log    *zap.Logger
}

// New creates a Server over the output directory dir.
func New(dir string) *Server {
	s := &Server{
		ckpt: collector.NewCheckpoint(dir),
		log:  zap.L().With(zap.String("component", "server")),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/progress", s.handleProgress)
	r.Get("/entities", s.handleEntities)
	r.Get("/entities/*", s.handleEntity)
	r.Get("/stats", s.handleStats)
	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("starting server", zap.String("addr", addr), zap.String("dir", s.ckpt.Dir()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server: listen")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return eris.Wrap(srv.Shutdown(shutdownCtx), "server: shutdown")
	})
	return g.Wait()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type progressResponse struct {
	collector.Progress
	Percent float64 `json:"percent"`
}

func (s *Server) handleProgress(w http.ResponseWriter, _ *http.Request) {
	p, err := s.ckpt.LoadProgress()
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progressResponse{Progress: p, Percent: p.Percent()})
}

type entitiesResponse struct {
	Total    int            `json:"total"`
	Offset   int            `json:"offset"`
	Count    int            `json:"count"`
	Entities []model.Entity `json:"entities"`
}

// handleEntities lists entities, optionally filtered by state and source.
func (s *Server) handleEntities(w http.ResponseWriter, r *http.Request) {
	snap, err := s.ckpt.LoadSnapshot()
	if err != nil {
		s.fail(w, err)
		return
	}

	q := r.URL.Query()
	limit, err := intParam(q.Get("limit"), defaultLimit)
	if err != nil || limit <= 0 {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	limit = min(limit, maxLimit)
	offset, err := intParam(q.Get("offset"), 0)
	if err != nil || offset < 0 {
		writeError(w, http.StatusBadRequest, "invalid offset")
		return
	}

	state := strings.ToUpper(strings.TrimSpace(q.Get("state")))
	source := strings.TrimSpace(q.Get("source"))
	filtered := make([]model.Entity, 0, len(snap.Entities))
	for _, e := range snap.Entities {
		if state != "" && !strings.EqualFold(e.State, state) {
			continue
		}
		if source != "" && !e.HasSource(source) {
			continue
		}
		filtered = append(filtered, e)
	}

	page := []model.Entity{}
	if offset < len(filtered) {
		page = filtered[offset:min(offset+limit, len(filtered))]
	}
	writeJSON(w, http.StatusOK, entitiesResponse{
		Total:    len(filtered),
		Offset:   offset,
		Count:    len(page),
		Entities: page,
	})
}

// handleEntity matches the rest of the path so OSM ids such as
// "osm_node/9" resolve.
func (s *Server) handleEntity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "*")
	snap, err := s.ckpt.LoadSnapshot()
	if err != nil {
		s.fail(w, err)
		return
	}
	for _, e := range snap.Entities {
		if e.ID == id {
			writeJSON(w, http.StatusOK, e)
			return
		}
	}
	writeError(w, http.StatusNotFound, "entity not found")
}

type statsResponse struct {
	dedup.Stats
	CollectionDate time.Time `json:"collection_date"`
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	snap, err := s.ckpt.LoadSnapshot()
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		Stats:          dedup.ComputeStats(snap.Entities),
		CollectionDate: snap.CollectionDate,
	})
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	if eris.Is(err, collector.ErrNoCheckpoint) {
		writeError(w, http.StatusNotFound, "no checkpoint in output directory")
		return
	}
	s.log.Error("read checkpoint", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "failed to read checkpoint")
}

func intParam(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck,gosec
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
