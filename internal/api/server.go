// Package api serves stored runs over HTTP: run metadata, evaluation
// metrics, occupancy tables and rendered occupancy charts.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/banshee-data/occupancy.report/internal/db"
	"github.com/banshee-data/occupancy.report/internal/eval"
	"github.com/banshee-data/occupancy.report/internal/report"
)

// Store is the read side of the run store. *db.DB implements it.
type Store interface {
	ListRuns(ctx context.Context, kind db.RunKind, limit int) ([]*db.Run, error)
	GetRun(ctx context.Context, runID string) (*db.Run, error)
	GetEvaluation(ctx context.Context, runID string) (*eval.Evaluation, error)
	GetTrackSummary(ctx context.Context, runID string) (*db.TrackSummary, error)
	PingContext(ctx context.Context) error
}

// Options configures a Server.
type Options struct {
	// AllowedOrigins is passed to the CORS handler. Empty allows localhost
	// on any port.
	AllowedOrigins []string
	// ChartCacheBytes bounds the rendered chart cache.
	ChartCacheBytes int64
	// Chart is applied to every rendered chart; Title is replaced per run.
	Chart report.ChartOptions
	// RequestTimeout bounds every request. Zero uses 30s.
	RequestTimeout time.Duration
}

// DefaultChartCacheBytes holds a few hundred rendered pages.
const DefaultChartCacheBytes = 64 << 20

// Server handles the report API.
type Server struct {
	store  Store
	opts   Options
	charts *ristretto.Cache
	router chi.Router
}

// NewServer builds a server over store. Close releases the chart cache.
func NewServer(store Store, opts Options) (*Server, error) {
	if opts.ChartCacheBytes <= 0 {
		opts.ChartCacheBytes = DefaultChartCacheBytes
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e4,
		MaxCost:     opts.ChartCacheBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chart cache: %w", err)
	}
	s := &Server{store: store, opts: opts, charts: cache}
	s.router = s.routes()
	return s, nil
}

// Close releases the chart cache.
func (s *Server) Close() {
	s.charts.Close()
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.opts.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	r.Route("/api/runs", func(r chi.Router) {
		r.Get("/", s.listRuns)
		r.Route("/{runID}", func(r chi.Router) {
			r.Get("/", s.getRun)
			r.Get("/evaluation", s.getEvaluation)
			r.Get("/occupancy", s.getOccupancy)
			r.Get("/bins", s.getBins)
		})
	})
	r.Get("/charts/runs/{runID}/occupancy", s.occupancyChart)
	return r
}
