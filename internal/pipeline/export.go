package pipeline

import (
	"bytes"
	"context"
	"fmt"

	"github.com/banshee-data/occupancy.report/internal/config"
	"github.com/banshee-data/occupancy.report/internal/export"
	"github.com/banshee-data/occupancy.report/internal/monitoring"
	"github.com/banshee-data/occupancy.report/internal/tableio"
)

// Output file names written by RunExport.
const (
	LinesFile  = "tracks_lines.geojson"
	PointsFile = "detections.geojson"
)

// ExportRequest configures a GeoJSON export of an enriched track table.
type ExportRequest struct {
	EnrichedPath string
	OutputDir    string
	Config       *config.AnalysisConfig
	// SkipLines and SkipPoints suppress one of the two collections.
	SkipLines  bool
	SkipPoints bool
}

// ExportResult is the outcome of RunExport.
type ExportResult struct {
	Lines  int
	Points int
	Files  []string
}

// RunExport converts an enriched table into line and point GeoJSON.
func (r *Runner) RunExport(ctx context.Context, req ExportRequest) (*ExportResult, error) {
	done := r.stage("export")
	defer done()

	cfg := configOrDefault(req.Config)
	data, err := r.readFile(req.EnrichedPath)
	if err != nil {
		return nil, err
	}
	points, err := tableio.ReadEnriched(bytes.NewReader(data), req.EnrichedPath)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &ExportResult{}
	var outs []output
	if !req.SkipLines {
		lines := export.Lines(points, cfg.GetMinTrackPoints())
		res.Lines = len(lines)
		var buf bytes.Buffer
		if err := export.Encode(&buf, export.LinesGeoJSON(lines)); err != nil {
			return nil, fmt.Errorf("failed to encode track lines: %w", err)
		}
		outs = append(outs, output{name: LinesFile, data: buf.Bytes()})
	}
	if !req.SkipPoints {
		fc, err := export.PointsGeoJSON(points, export.StubTransform{
			OriginLon: cfg.GetGeoOriginLon(),
			OriginLat: cfg.GetGeoOriginLat(),
			Scale:     cfg.GetGeoScale(),
		})
		if err != nil {
			return nil, err
		}
		res.Points = len(fc.Features)
		var buf bytes.Buffer
		if err := export.Encode(&buf, fc); err != nil {
			return nil, fmt.Errorf("failed to encode points: %w", err)
		}
		outs = append(outs, output{name: PointsFile, data: buf.Bytes()})
	}
	monitoring.Logf("export: %d observations, %d lines, %d points", len(points), res.Lines, res.Points)

	res.Files, err = r.writeOutputs(req.OutputDir, outs)
	if err != nil {
		return nil, err
	}
	return res, nil
}
