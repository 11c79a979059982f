package pipeline

import (
	"bytes"
	"context"
	"fmt"

	"github.com/banshee-data/occupancy.report/internal/config"
	"github.com/banshee-data/occupancy.report/internal/db"
	"github.com/banshee-data/occupancy.report/internal/monitoring"
	"github.com/banshee-data/occupancy.report/internal/occupancy"
	"github.com/banshee-data/occupancy.report/internal/report"
	"github.com/banshee-data/occupancy.report/internal/tableio"
	"github.com/banshee-data/occupancy.report/internal/tracks"
)

// Output file names written by RunTrackSummary.
const (
	EnrichedFile      = "tracks_with_speed.csv"
	FirstSeenFile     = "first_seen_by_id.csv"
	CellsFile         = "counts_by_segment.csv"
	BinsFile          = "counts_by_bin.csv"
	BoundsFile        = "segment_bounds.json"
	OccupancyHTMLFile = "occupancy.html"
	SpeedProfileFile  = "speed_profile.png"
)

// TrackSummaryRequest configures a trajectory summary run.
type TrackSummaryRequest struct {
	Source    tracks.Source
	OutputDir string
	Label     string
	Config    *config.AnalysisConfig
	// HTML renders occupancy.html alongside the tables.
	HTML bool
	// SpeedPlot renders speed_profile.png alongside the tables.
	SpeedPlot bool
}

// SegmentBounds is the content of segment_bounds.json.
type SegmentBounds struct {
	occupancy.Bounds
	Edges      []float64 `json:"edges"`
	Labels     []string  `json:"labels"`
	TimeBinSec float64   `json:"time_bin_sec"`
	// Pinned is true when the range came from configuration rather than
	// from the observed centroids.
	Pinned bool `json:"pinned"`
}

// TrackSummaryResult is the outcome of RunTrackSummary.
type TrackSummaryResult struct {
	Points  []tracks.Point
	Summary db.TrackSummary
	Files   []string
	RunID   string
}

// Summarize derives trajectories, classifies motion and aggregates occupancy
// for one observation table. It performs no I/O.
func Summarize(obs []tracks.Observation, cfg *config.AnalysisConfig) ([]tracks.Point, db.TrackSummary) {
	cfg = configOrDefault(cfg)
	points := enrich(obs, cfg)
	return points, summarizePoints(points, cfg)
}

func enrich(obs []tracks.Observation, cfg *config.AnalysisConfig) []tracks.Point {
	return tracks.Enrich(obs, tracks.Options{
		BuildOptions: tracks.BuildOptions{
			Window:  cfg.GetParkWindow(),
			Workers: cfg.GetWorkers(),
		},
		ParkThreshold: cfg.GetParkThreshold(),
	})
}

func summarizePoints(points []tracks.Point, cfg *config.AnalysisConfig) db.TrackSummary {
	opts := occupancy.Options{
		Segments: cfg.GetSegments(),
		BinWidth: cfg.GetTimeBinSec(),
	}
	if lo, hi, ok := cfg.GetSegmentRange(); ok {
		opts.Bounds = &occupancy.Bounds{MinX: lo, MaxX: hi, Count: opts.Segments}
	}

	first := tracks.FirstSeenByIdentity(points)
	parked := 0
	for _, p := range points {
		if p.Parked {
			parked++
		}
	}
	return db.TrackSummary{
		Occupancy:              occupancy.Aggregate(points, opts),
		FirstSeen:              first,
		IdentityCount:          len(first),
		ParkedObservationCount: parked,
	}
}

// RunTrackSummary reads a tracker table and writes the enriched table, the
// first-seen table, both occupancy tables and the segment bounds, plus the
// optional chart and speed plot. Outputs are written only after the run has
// been recorded in the store, when one is set.
func (r *Runner) RunTrackSummary(ctx context.Context, req TrackSummaryRequest) (*TrackSummaryResult, error) {
	done := r.stage("track summary")
	defer done()

	if req.Source == nil {
		return nil, fmt.Errorf("no track source")
	}
	cfg := configOrDefault(req.Config)
	obs, err := req.Source.Observations(ctx)
	if err != nil {
		return nil, err
	}
	points, summary := Summarize(obs, cfg)
	monitoring.Logf("track summary: %d observations, %d identities, %d parked observations",
		len(points), summary.IdentityCount, summary.ParkedObservationCount)

	outs, err := renderSummary(points, summary, cfg, req)
	if err != nil {
		return nil, err
	}

	res := &TrackSummaryResult{Points: points, Summary: summary}
	if r.Store != nil {
		run, err := newRun(req.Label, req.Source.Name(), cfg)
		if err != nil {
			return nil, err
		}
		if err := r.Store.RecordTrackSummary(ctx, run, summary); err != nil {
			return nil, fmt.Errorf("failed to store track summary: %w", err)
		}
		res.RunID = run.RunID
	}
	if res.Files, err = r.writeOutputs(req.OutputDir, outs); err != nil {
		return nil, err
	}
	return res, nil
}

func renderSummary(points []tracks.Point, s db.TrackSummary, cfg *config.AnalysisConfig, req TrackSummaryRequest) ([]output, error) {
	var outs []output
	add := func(name string, write func(*bytes.Buffer) error) error {
		var buf bytes.Buffer
		if err := write(&buf); err != nil {
			return fmt.Errorf("failed to render %s: %w", name, err)
		}
		outs = append(outs, output{name: name, data: buf.Bytes()})
		return nil
	}

	res := s.Occupancy
	steps := []struct {
		name  string
		write func(*bytes.Buffer) error
	}{
		{EnrichedFile, func(b *bytes.Buffer) error { return tableio.WriteEnriched(b, points) }},
		{FirstSeenFile, func(b *bytes.Buffer) error { return tableio.WriteFirstSeen(b, s.FirstSeen) }},
		{CellsFile, func(b *bytes.Buffer) error { return tableio.WriteCells(b, res.Cells) }},
		{BinsFile, func(b *bytes.Buffer) error { return tableio.WriteBins(b, res.Bins) }},
		{BoundsFile, func(b *bytes.Buffer) error {
			_, _, pinned := cfg.GetSegmentRange()
			data, err := marshalIndent(SegmentBounds{
				Bounds:     res.Bounds,
				Edges:      res.Bounds.Edges(),
				Labels:     res.Bounds.Labels(),
				TimeBinSec: res.BinWidth,
				Pinned:     pinned,
			})
			if err != nil {
				return err
			}
			_, err = b.Write(data)
			return err
		}},
	}
	for _, st := range steps {
		if err := add(st.name, st.write); err != nil {
			return nil, err
		}
	}

	if req.HTML {
		title := req.Label
		if title == "" {
			title = req.Source.Name()
		}
		html, err := report.OccupancyHTML(res, report.ChartOptions{Title: title})
		if err != nil {
			return nil, err
		}
		outs = append(outs, output{name: OccupancyHTMLFile, data: html})
	}
	if req.SpeedPlot {
		png, err := report.SpeedProfilePNG(points, report.SpeedPlotOptions{
			Title: req.Label,
			Units: cfg.GetSpeedUnits(),
			FPS:   cfg.GetFPS(),
		})
		if err != nil {
			return nil, err
		}
		outs = append(outs, output{name: SpeedProfileFile, data: png})
	}
	return outs, nil
}
