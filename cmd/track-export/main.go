// Command track-export writes GeoJSON line strings per identity and, on a
// stub lon/lat transform, one point per observation.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/occupancy.report/internal/config"
	"github.com/banshee-data/occupancy.report/internal/pipeline"
	"github.com/banshee-data/occupancy.report/internal/version"
)

var (
	enrichedPath = flag.String("tracks_csv", "outputs/tracks_with_speed.csv", "enriched track table")
	outDir       = flag.String("out", "gis", "output directory")
	configPath   = flag.String("config", "", "analysis config file (.json, .yaml)")
	noLines      = flag.Bool("no-lines", false, "skip tracks_lines.geojson")
	noPoints     = flag.Bool("no-points", false, "skip detections.geojson")
	showVersion  = flag.Bool("version", false, "print version and exit")
)

func main() {
	overrides := config.Overrides{}
	overrides.Register(flag.CommandLine, "min_track_points", "geo_origin_lon", "geo_origin_lat", "geo_scale")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	cfg, err := config.LoadWithOverrides(*configPath, overrides)
	if err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := pipeline.NewRunner(nil).RunExport(ctx, pipeline.ExportRequest{
		EnrichedPath: *enrichedPath,
		OutputDir:    *outDir,
		Config:       cfg,
		SkipLines:    *noLines,
		SkipPoints:   *noPoints,
	})
	if err != nil {
		log.Fatalf("export failed: %v", err)
	}
	fmt.Printf("%d lines, %d points\n", res.Lines, res.Points)
	for _, f := range res.Files {
		fmt.Println("wrote", f)
	}
}
