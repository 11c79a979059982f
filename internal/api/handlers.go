package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/banshee-data/occupancy.report/internal/db"
	"github.com/banshee-data/occupancy.report/internal/httputil"
	"github.com/banshee-data/occupancy.report/internal/occupancy"
	"github.com/banshee-data/occupancy.report/internal/report"
	"github.com/banshee-data/occupancy.report/internal/version"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if err := s.store.PingContext(r.Context()); err != nil {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, code, map[string]string{
		"status":  status,
		"version": version.Version,
	})
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	kind := db.RunKind(r.URL.Query().Get("kind"))
	if kind != "" && !kind.Valid() {
		httputil.BadRequest(w, fmt.Sprintf("unknown run kind %q", kind))
		return
	}
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			httputil.BadRequest(w, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}

	runs, err := s.store.ListRuns(r.Context(), kind, limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to list runs: %v", err))
		return
	}
	if runs == nil {
		runs = []*db.Run{}
	}
	httputil.WriteJSON(w, http.StatusOK, runs)
}

// writeStoreError maps a store lookup failure onto a response.
func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, db.ErrNotFound) {
		httputil.NotFound(w, err.Error())
		return
	}
	httputil.InternalServerError(w, err.Error())
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, run)
}

func (s *Server) getEvaluation(w http.ResponseWriter, r *http.Request) {
	ev, err := s.store.GetEvaluation(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ev)
}

// occupancyResponse is the body of the occupancy endpoint.
type occupancyResponse struct {
	Bounds     occupancy.Bounds `json:"bounds"`
	Labels     []string         `json:"labels"`
	TimeBinSec float64          `json:"time_bin_sec"`
	Cells      []occupancy.Cell `json:"cells"`
}

func (s *Server) getOccupancy(w http.ResponseWriter, r *http.Request) {
	summary, err := s.store.GetTrackSummary(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	res := summary.Occupancy
	cells := res.Cells
	if cells == nil {
		cells = []occupancy.Cell{}
	}
	httputil.WriteJSON(w, http.StatusOK, occupancyResponse{
		Bounds:     res.Bounds,
		Labels:     res.Bounds.Labels(),
		TimeBinSec: res.BinWidth,
		Cells:      cells,
	})
}

// binsResponse is the body of the bins endpoint.
type binsResponse struct {
	TimeBinSec             float64              `json:"time_bin_sec"`
	Bins                   []occupancy.BinTotal `json:"bins"`
	Averages               occupancy.Averages   `json:"averages"`
	IdentityCount          int                  `json:"identity_count"`
	ParkedObservationCount int                  `json:"parked_observation_count"`
}

func (s *Server) getBins(w http.ResponseWriter, r *http.Request) {
	summary, err := s.store.GetTrackSummary(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	bins := summary.Occupancy.Bins
	if bins == nil {
		bins = []occupancy.BinTotal{}
	}
	httputil.WriteJSON(w, http.StatusOK, binsResponse{
		TimeBinSec:             summary.Occupancy.BinWidth,
		Bins:                   bins,
		Averages:               summary.Occupancy.Averages,
		IdentityCount:          summary.IdentityCount,
		ParkedObservationCount: summary.ParkedObservationCount,
	})
}

// occupancyChart serves the rendered chart page of a run. Stored runs are
// immutable, so pages are cached by run ID.
func (s *Server) occupancyChart(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	if v, ok := s.charts.Get(runID); ok {
		if page, ok := v.([]byte); ok {
			httputil.WriteHTML(w, http.StatusOK, page)
			return
		}
	}

	run, err := s.store.GetRun(r.Context(), runID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	summary, err := s.store.GetTrackSummary(r.Context(), runID)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	chartOpts := s.opts.Chart
	chartOpts.Title = run.Label
	if chartOpts.Title == "" {
		chartOpts.Title = run.Source
	}
	page, err := report.OccupancyHTML(summary.Occupancy, chartOpts)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("render error: %v", err))
		return
	}
	s.charts.Set(runID, page, int64(len(page)))
	httputil.WriteHTML(w, http.StatusOK, page)
}

