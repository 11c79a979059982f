package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/occupancy.report/internal/config"
	"github.com/banshee-data/occupancy.report/internal/db"
	"github.com/banshee-data/occupancy.report/internal/monitoring"
	"github.com/banshee-data/occupancy.report/internal/occupancy"
	"github.com/banshee-data/occupancy.report/internal/security"
	"github.com/banshee-data/occupancy.report/internal/tableio"
	"github.com/banshee-data/occupancy.report/internal/tracks"
)

// RobustnessFile is the markdown table written by RunRobustness.
const RobustnessFile = "robustness.md"

// Variant is one track table in a robustness comparison, typically the same
// clip degraded in a different way.
type Variant struct {
	Label string
	Path  string
	Note  string
	// Raw marks a tracker table that still needs trajectory derivation.
	// Otherwise Path is an enriched table as written by RunTrackSummary.
	Raw bool
}

// RobustnessRequest configures a robustness comparison.
type RobustnessRequest struct {
	Variants  []Variant
	OutputDir string
	Config    *config.AnalysisConfig
	// WriteBins also writes each variant's per-bin totals.
	WriteBins bool
}

// RobustnessRow is one line of the comparison table.
type RobustnessRow struct {
	Variant  Variant
	Averages occupancy.Averages
	Summary  db.TrackSummary
}

// RobustnessResult is the outcome of RunRobustness.
type RobustnessResult struct {
	Rows     []RobustnessRow
	Markdown string
	Files    []string
}

// RunRobustness summarizes every variant with the same settings and writes a
// markdown table of per-bin averages.
func (r *Runner) RunRobustness(ctx context.Context, req RobustnessRequest) (*RobustnessResult, error) {
	done := r.stage("robustness")
	defer done()

	if len(req.Variants) == 0 {
		return nil, fmt.Errorf("no variants to compare")
	}
	cfg := configOrDefault(req.Config)

	rows := make([]RobustnessRow, len(req.Variants))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.GetWorkers())
	for i, v := range req.Variants {
		g.Go(func() error {
			summary, err := r.summarizeVariant(gctx, v, cfg)
			if err != nil {
				return fmt.Errorf("variant %q: %w", v.Label, err)
			}
			rows[i] = RobustnessRow{Variant: v, Averages: summary.Occupancy.Averages, Summary: summary}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	md := RobustnessMarkdown(rows, cfg)
	outs := []output{{name: RobustnessFile, data: []byte(md)}}
	if req.WriteBins {
		for _, row := range rows {
			var buf bytes.Buffer
			if err := tableio.WriteBins(&buf, row.Summary.Occupancy.Bins); err != nil {
				return nil, fmt.Errorf("failed to render bins for %q: %w", row.Variant.Label, err)
			}
			name := fmt.Sprintf("counts_by_bin_%s.csv", security.SanitizeLabel(row.Variant.Label))
			outs = append(outs, output{name: name, data: buf.Bytes()})
		}
	}
	files, err := r.writeOutputs(req.OutputDir, outs)
	if err != nil {
		return nil, err
	}
	return &RobustnessResult{Rows: rows, Markdown: md, Files: files}, nil
}

func (r *Runner) summarizeVariant(ctx context.Context, v Variant, cfg *config.AnalysisConfig) (db.TrackSummary, error) {
	var points []tracks.Point
	if v.Raw {
		src := tableio.CSVSource{FS: r.fs(), Path: v.Path, FPS: cfg.GetFPS()}
		obs, err := src.Observations(ctx)
		if err != nil {
			return db.TrackSummary{}, err
		}
		points = enrich(obs, cfg)
	} else {
		data, err := r.readFile(v.Path)
		if err != nil {
			return db.TrackSummary{}, err
		}
		points, err = tableio.ReadEnriched(bytes.NewReader(data), v.Path)
		if err != nil {
			return db.TrackSummary{}, err
		}
	}
	s := summarizePoints(points, cfg)
	monitoring.Logf("robustness: %s: %d observations, avg %.2f ids/bin", v.Label, len(points), s.Occupancy.Averages.AvgDistinctPerBin)
	return s, nil
}

// RobustnessMarkdown formats rows as a markdown table.
func RobustnessMarkdown(rows []RobustnessRow, cfg *config.AnalysisConfig) string {
	cfg = configOrDefault(cfg)
	bin := fmt.Sprintf("%gs", cfg.GetTimeBinSec())

	var b strings.Builder
	fmt.Fprintf(&b, "# Robustness quick check (%s)\n\n", cfg.GetSpeedUnits())
	fmt.Fprintf(&b, "| clip | avg unique_ids / %s | parked / %s | note |\n", bin, bin)
	b.WriteString("|------|------|------|------|\n")
	for _, row := range rows {
		note := strings.ReplaceAll(row.Variant.Note, "|", `\|`)
		label := strings.ReplaceAll(row.Variant.Label, "|", `\|`)
		fmt.Fprintf(&b, "| %s | %.2f | %.2f | %s |\n",
			label, row.Averages.AvgDistinctPerBin, row.Averages.AvgParkedPerBin, note)
	}
	return b.String()
}
