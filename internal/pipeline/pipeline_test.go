package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/occupancy.report/internal/config"
	"github.com/banshee-data/occupancy.report/internal/db"
	"github.com/banshee-data/occupancy.report/internal/eval"
	"github.com/banshee-data/occupancy.report/internal/export"
	"github.com/banshee-data/occupancy.report/internal/fsutil"
	"github.com/banshee-data/occupancy.report/internal/occupancy"
	"github.com/banshee-data/occupancy.report/internal/tableio"
	"github.com/banshee-data/occupancy.report/internal/testutil"
	"github.com/banshee-data/occupancy.report/internal/timeutil"
)

const (
	predsCSV = "frame,xmin,ymin,xmax,ymax,conf,cls\n" +
		"1,0,0,10,10,0.9,1\n" +
		"1,50,50,60,60,0.8,1\n" +
		"2,0,0,10,10,0.7,1\n"
	gtCSV = "frame,xmin,ymin,xmax,ymax,cls\n" +
		"1,0,0,10,10,1\n" +
		"2,100,100,110,110,1\n"
)

// Identity 1 moves 10 px per frame; identity 2 never moves.
var tracksCSV = testutil.TrackCSV(append(testutil.Track(1, 1, 4, 0, 10), testutil.Track(2, 1, 4, 100, 0)...))

func newTestRunner(t *testing.T, store Store) (*Runner, *fsutil.MemoryFileSystem) {
	t.Helper()
	testutil.MuteLogs(t)
	fsys := fsutil.NewMemoryFileSystem()
	require.NoError(t, fsys.WriteFile("preds.csv", []byte(predsCSV), 0o644))
	require.NoError(t, fsys.WriteFile("gt.csv", []byte(gtCSV), 0o644))
	require.NoError(t, fsys.WriteFile("tracks.csv", []byte(tracksCSV), 0o644))
	return &Runner{
		FS:    fsys,
		Clock: timeutil.NewMockClock(time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)),
		Store: store,
	}, fsys
}

func openStore(t *testing.T) *db.DB {
	t.Helper()
	store, err := db.Open(db.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func summaryConfig(t *testing.T) *config.AnalysisConfig {
	t.Helper()
	cfg := config.DefaultAnalysisConfig()
	for k, v := range map[string]string{
		"park_window":  "2",
		"fps":          "1",
		"segments":     "2",
		"time_bin_sec": "1",
	} {
		require.NoError(t, cfg.Set(k, v))
	}
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestRunEvaluation(t *testing.T) {
	store := openStore(t)
	r, fsys := newTestRunner(t, store)

	res, err := r.RunEvaluation(context.Background(), EvaluationRequest{
		PredictionsPath: "preds.csv",
		GroundTruthPath: "gt.csv",
		OutputPath:      "out/metrics.json",
		Label:           "baseline",
	})
	require.NoError(t, err)

	m := res.Evaluation.Metrics
	assert.Equal(t, 1, m.TruePositives)
	assert.Equal(t, 2, m.FalsePositives)
	assert.Equal(t, 1, m.FalseNegatives)
	assert.InDelta(t, 1.0/3, m.Precision, 1e-9)
	assert.InDelta(t, 0.5, m.Recall, 1e-9)
	assert.InDelta(t, 1.0, m.MeanIoUOnTruePositives, 1e-9)

	data, err := fsys.ReadFile("out/metrics.json")
	require.NoError(t, err)
	var written eval.Evaluation
	require.NoError(t, json.Unmarshal(data, &written))
	if diff := cmp.Diff(res.Evaluation, written); diff != "" {
		t.Errorf("written evaluation mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "preds.csv", written.Sources.Predictions)

	require.NotEmpty(t, res.RunID)
	stored, err := store.GetEvaluation(context.Background(), res.RunID)
	require.NoError(t, err)
	assert.Equal(t, m, stored.Metrics)
	run, err := store.GetRun(context.Background(), res.RunID)
	require.NoError(t, err)
	assert.Equal(t, "baseline", run.Label)
	assert.Contains(t, string(run.ConfigJSON), `"iou_threshold":0.5`)
}

func TestRunEvaluation_MalformedInputWritesNothing(t *testing.T) {
	r, fsys := newTestRunner(t, nil)
	require.NoError(t, fsys.WriteFile("bad.csv", []byte("frame,xmin,ymin\n1,0,0\n"), 0o644))

	_, err := r.RunEvaluation(context.Background(), EvaluationRequest{
		PredictionsPath: "preds.csv",
		GroundTruthPath: "bad.csv",
		OutputPath:      "out/metrics.json",
	})
	var inErr *tableio.InputError
	require.True(t, errors.As(err, &inErr), "got %v", err)
	assert.Equal(t, "bad.csv", inErr.Table)
	assert.False(t, fsutil.Exists(fsys, "out/metrics.json"))
}

func TestRunEvaluation_MissingFile(t *testing.T) {
	r, _ := newTestRunner(t, nil)
	_, err := r.RunEvaluation(context.Background(), EvaluationRequest{
		PredictionsPath: "missing.csv",
		GroundTruthPath: "gt.csv",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.csv")
}

func TestRunTrackSummary(t *testing.T) {
	store := openStore(t)
	r, fsys := newTestRunner(t, store)
	cfg := summaryConfig(t)

	res, err := r.RunTrackSummary(context.Background(), TrackSummaryRequest{
		Source:    tableio.CSVSource{FS: fsys, Path: "tracks.csv", FPS: cfg.GetFPS()},
		OutputDir: "out",
		Label:     "clip-01",
		Config:    cfg,
		HTML:      true,
		SpeedPlot: true,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"out/" + EnrichedFile, "out/" + FirstSeenFile, "out/" + CellsFile, "out/" + BinsFile,
		"out/" + BoundsFile, "out/" + OccupancyHTMLFile, "out/" + SpeedProfileFile,
	}, res.Files)

	s := res.Summary
	assert.Equal(t, 2, s.IdentityCount)
	assert.Equal(t, 3, s.ParkedObservationCount)
	assert.Equal(t, occupancy.Bounds{MinX: 1, MaxX: 101, Count: 2}, s.Occupancy.Bounds)
	assert.Equal(t, occupancy.Averages{AvgDistinctPerBin: 2, AvgParkedPerBin: 1, BinCount: 4, ParkedBinCount: 3}, s.Occupancy.Averages)

	bins, err := fsys.ReadFile("out/" + BinsFile)
	require.NoError(t, err)
	assert.Equal(t, "time_bin,unique_ids,parked_ids\n0,2,0\n1,2,1\n2,2,1\n3,2,1\n", string(bins))

	cells, err := fsys.ReadFile("out/" + CellsFile)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(cells), "segment,time_bin,unique_ids,parked_ids\n"))

	var bounds SegmentBounds
	data, err := fsys.ReadFile("out/" + BoundsFile)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &bounds))
	assert.Equal(t, []float64{1, 51, 101}, bounds.Edges)
	assert.Equal(t, 1.0, bounds.TimeBinSec)
	assert.False(t, bounds.Pinned)

	stored, err := store.GetTrackSummary(context.Background(), res.RunID)
	require.NoError(t, err)
	assert.Equal(t, s.Occupancy.Bins, stored.Occupancy.Bins)
	assert.Equal(t, s.FirstSeen, stored.FirstSeen)
}

func TestRunTrackSummary_PinnedBounds(t *testing.T) {
	r, fsys := newTestRunner(t, nil)
	cfg := summaryConfig(t)
	require.NoError(t, cfg.Set("segment_min_x", "0"))
	require.NoError(t, cfg.Set("segment_max_x", "200"))

	res, err := r.RunTrackSummary(context.Background(), TrackSummaryRequest{
		Source:    tableio.CSVSource{FS: fsys, Path: "tracks.csv", FPS: 1},
		OutputDir: "out",
		Config:    cfg,
	})
	require.NoError(t, err)
	assert.Len(t, res.Files, 5)
	assert.Equal(t, occupancy.Bounds{MinX: 0, MaxX: 200, Count: 2}, res.Summary.Occupancy.Bounds)
	// Everything sits in the left half of the pinned range.
	for _, c := range res.Summary.Occupancy.Cells {
		assert.Equal(t, 0, c.Segment)
	}
}

func TestRunTrackSummary_MalformedInputWritesNothing(t *testing.T) {
	r, fsys := newTestRunner(t, nil)
	require.NoError(t, fsys.WriteFile("bad.csv", []byte("frame,xmin,ymin,xmax,ymax\n1,0,0,1,1\n"), 0o644))

	_, err := r.RunTrackSummary(context.Background(), TrackSummaryRequest{
		Source:    tableio.CSVSource{FS: fsys, Path: "bad.csv"},
		OutputDir: "out",
	})
	var inErr *tableio.InputError
	require.True(t, errors.As(err, &inErr), "got %v", err)
	assert.Contains(t, inErr.Columns, "id")
	assert.Empty(t, fsys.Files("out"))
}

func TestRunTrackSummary_NonFiniteTimeWritesNothing(t *testing.T) {
	r, fsys := newTestRunner(t, nil)
	in := "frame,id,time_sec,xmin,ymin,xmax,ymax\n" +
		"1,1,NaN,0,0,10,10\n" +
		"2,1,NaN,1,1,11,11\n" +
		"3,2,0.5,0,0,10,10\n"
	require.NoError(t, fsys.WriteFile("nan.csv", []byte(in), 0o644))

	_, err := r.RunTrackSummary(context.Background(), TrackSummaryRequest{
		Source:    tableio.CSVSource{FS: fsys, Path: "nan.csv", FPS: 1},
		OutputDir: "out",
	})
	var inErr *tableio.InputError
	require.True(t, errors.As(err, &inErr), "got %v", err)
	assert.Equal(t, []string{"time_sec"}, inErr.Columns)
	assert.Equal(t, 1, inErr.Row)
	assert.Empty(t, fsys.Files("out"))
}

func TestRunExport(t *testing.T) {
	r, fsys := newTestRunner(t, nil)
	cfg := summaryConfig(t)
	_, err := r.RunTrackSummary(context.Background(), TrackSummaryRequest{
		Source:    tableio.CSVSource{FS: fsys, Path: "tracks.csv", FPS: 1},
		OutputDir: "out",
		Config:    cfg,
	})
	require.NoError(t, err)

	res, err := r.RunExport(context.Background(), ExportRequest{
		EnrichedPath: "out/" + EnrichedFile,
		OutputDir:    "geo",
		Config:       cfg,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Lines)
	assert.Equal(t, 8, res.Points)
	assert.Equal(t, []string{"geo/" + LinesFile, "geo/" + PointsFile}, res.Files)

	var lines export.FeatureCollection
	data, err := fsys.ReadFile("geo/" + LinesFile)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &lines))
	require.Len(t, lines.Features, 2)
	assert.Equal(t, "LineString", lines.Features[0].Geometry.Type)
}

func TestRunExport_MinTrackPoints(t *testing.T) {
	r, fsys := newTestRunner(t, nil)
	cfg := summaryConfig(t)
	_, err := r.RunTrackSummary(context.Background(), TrackSummaryRequest{
		Source:    tableio.CSVSource{FS: fsys, Path: "tracks.csv", FPS: 1},
		OutputDir: "out",
		Config:    cfg,
	})
	require.NoError(t, err)
	require.NoError(t, cfg.Set("min_track_points", "5"))

	res, err := r.RunExport(context.Background(), ExportRequest{
		EnrichedPath: "out/" + EnrichedFile,
		OutputDir:    "geo",
		Config:       cfg,
		SkipPoints:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Lines)
	assert.Equal(t, []string{"geo/" + LinesFile}, res.Files)
}

func TestRunRobustness(t *testing.T) {
	r, fsys := newTestRunner(t, nil)
	cfg := summaryConfig(t)

	res, err := r.RunRobustness(context.Background(), RobustnessRequest{
		Variants: []Variant{
			{Label: "dark clip", Path: "tracks.csv", Note: "slight drop", Raw: true},
			{Label: "blur", Path: "tracks.csv", Note: "a|b", Raw: true},
		},
		OutputDir: "rob",
		Config:    cfg,
		WriteBins: true,
	})
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "dark clip", res.Rows[0].Variant.Label)
	assert.Contains(t, res.Markdown, "| clip | avg unique_ids / 1s | parked / 1s | note |")
	assert.Contains(t, res.Markdown, "| dark clip | 2.00 | 1.00 | slight drop |")
	assert.Contains(t, res.Markdown, `| blur | 2.00 | 1.00 | a\|b |`)
	assert.Equal(t, []string{
		"rob/" + RobustnessFile,
		"rob/counts_by_bin_dark_clip.csv",
		"rob/counts_by_bin_blur.csv",
	}, res.Files)

	md, err := fsys.ReadFile("rob/" + RobustnessFile)
	require.NoError(t, err)
	assert.Equal(t, res.Markdown, string(md))
}

func TestRunRobustness_FailingVariant(t *testing.T) {
	r, fsys := newTestRunner(t, nil)
	_, err := r.RunRobustness(context.Background(), RobustnessRequest{
		Variants: []Variant{
			{Label: "ok", Path: "tracks.csv", Raw: true},
			{Label: "gone", Path: "missing.csv"},
		},
		OutputDir: "rob",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `variant "gone"`)
	assert.Empty(t, fsys.Files("rob"))

	_, err = r.RunRobustness(context.Background(), RobustnessRequest{OutputDir: "rob"})
	require.Error(t, err)
}

type recordingStore struct {
	evaluations int
	summaries   int
}

func (s *recordingStore) RecordEvaluation(_ context.Context, run *db.Run, _ eval.Evaluation) error {
	s.evaluations++
	run.RunID = "eval-run"
	return nil
}

func (s *recordingStore) RecordTrackSummary(_ context.Context, run *db.Run, _ db.TrackSummary) error {
	s.summaries++
	run.RunID = "summary-run"
	return nil
}

func TestRunner_UsesStore(t *testing.T) {
	store := &recordingStore{}
	r, fsys := newTestRunner(t, store)

	ev, err := r.RunEvaluation(context.Background(), EvaluationRequest{PredictionsPath: "preds.csv", GroundTruthPath: "gt.csv"})
	require.NoError(t, err)
	assert.Equal(t, "eval-run", ev.RunID)

	sum, err := r.RunTrackSummary(context.Background(), TrackSummaryRequest{
		Source:    tableio.CSVSource{FS: fsys, Path: "tracks.csv", FPS: 1},
		OutputDir: "out",
	})
	require.NoError(t, err)
	assert.Equal(t, "summary-run", sum.RunID)
	assert.Equal(t, 1, store.evaluations)
	assert.Equal(t, 1, store.summaries)
}

type failingStore struct{}

func (failingStore) RecordEvaluation(context.Context, *db.Run, eval.Evaluation) error {
	return errors.New("database is locked")
}

func (failingStore) RecordTrackSummary(context.Context, *db.Run, db.TrackSummary) error {
	return errors.New("database is locked")
}

func TestRunner_StoreFailureWritesNothing(t *testing.T) {
	r, fsys := newTestRunner(t, failingStore{})

	_, err := r.RunEvaluation(context.Background(), EvaluationRequest{
		PredictionsPath: "preds.csv",
		GroundTruthPath: "gt.csv",
		OutputPath:      "out/eval.json",
	})
	require.ErrorContains(t, err, "database is locked")

	_, err = r.RunTrackSummary(context.Background(), TrackSummaryRequest{
		Source:    tableio.CSVSource{FS: fsys, Path: "tracks.csv", FPS: 1},
		OutputDir: "out",
	})
	require.ErrorContains(t, err, "failed to store track summary")
	assert.Empty(t, fsys.Files("out"))
}
