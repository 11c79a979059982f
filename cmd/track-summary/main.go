// Command track-summary derives speeds and parked flags from a tracker CSV
// and writes occupancy tables for horizontal segments and time bins.
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
	"github.com/banshee-data/occupancy.report/internal/db"
	"github.com/banshee-data/occupancy.report/internal/fsutil"
	"github.com/banshee-data/occupancy.report/internal/pipeline"
	"github.com/banshee-data/occupancy.report/internal/tableio"
	"github.com/banshee-data/occupancy.report/internal/version"
)

var (
	tracksPath  = flag.String("csv", "tracks.csv", "tracker CSV (frame,id,xmin,ymin,xmax,ymax[,time_sec])")
	outDir      = flag.String("out", "outputs", "output directory")
	configPath  = flag.String("config", "", "analysis config file (.json, .yaml)")
	dbPath      = flag.String("db", "", "record the run in this sqlite database")
	label       = flag.String("label", "", "free-form run label")
	html        = flag.Bool("html", false, "also render occupancy.html")
	speedPlot   = flag.Bool("plot", false, "also render speed_profile.png")
	showVersion = flag.Bool("version", false, "print version and exit")
)

func main() {
	overrides := config.Overrides{}
	overrides.Register(flag.CommandLine,
		"park_window", "park_threshold", "fps", "speed_units",
		"segments", "time_bin_sec", "segment_min_x", "segment_max_x", "workers")
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

	var store pipeline.Store
	if *dbPath != "" {
		d, err := db.Open(*dbPath)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer d.Close()
		store = d
	}

	res, err := pipeline.NewRunner(store).RunTrackSummary(ctx, pipeline.TrackSummaryRequest{
		Source:    tableio.CSVSource{FS: fsutil.OSFileSystem{}, Path: *tracksPath, FPS: cfg.GetFPS()},
		OutputDir: *outDir,
		Label:     *label,
		Config:    cfg,
		HTML:      *html,
		SpeedPlot: *speedPlot,
	})
	if err != nil {
		log.Fatalf("track summary failed: %v", err)
	}

	b := res.Summary.Occupancy.Bounds
	fmt.Printf("segments: %d over x in [%g, %g]\n", b.Count, b.MinX, b.MaxX)
	avg := res.Summary.Occupancy.Averages
	fmt.Printf("avg unique ids per %gs bin: %.2f, parked: %.2f\n",
		cfg.GetTimeBinSec(), avg.AvgDistinctPerBin, avg.AvgParkedPerBin)
	for _, f := range res.Files {
		fmt.Println("wrote", f)
	}
	if res.RunID != "" {
		fmt.Printf("recorded run %s\n", res.RunID)
	}
}
