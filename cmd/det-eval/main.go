// Command det-eval scores detector predictions against hand-labelled ground
// truth and writes the metrics as JSON.
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
	"github.com/banshee-data/occupancy.report/internal/pipeline"
	"github.com/banshee-data/occupancy.report/internal/version"
)

var (
	predPath    = flag.String("pred", "", "predictions CSV (frame,xmin,ymin,xmax,ymax,conf,cls)")
	gtPath      = flag.String("gt", "", "ground truth CSV (frame,xmin,ymin,xmax,ymax,cls)")
	outPath     = flag.String("out", "metrics.json", "output JSON path")
	configPath  = flag.String("config", "", "analysis config file (.json, .yaml)")
	dbPath      = flag.String("db", "", "record the run in this sqlite database")
	label       = flag.String("label", "", "free-form run label")
	noFrames    = flag.Bool("no-frames", false, "omit the per-frame breakdown")
	showVersion = flag.Bool("version", false, "print version and exit")
)

func main() {
	overrides := config.Overrides{}
	overrides.Register(flag.CommandLine, "iou_threshold", "class_aware", "workers")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if *predPath == "" || *gtPath == "" {
		log.Fatalf("-pred and -gt are required")
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

	res, err := pipeline.NewRunner(store).RunEvaluation(ctx, pipeline.EvaluationRequest{
		PredictionsPath: *predPath,
		GroundTruthPath: *gtPath,
		OutputPath:      *outPath,
		Label:           *label,
		Config:          cfg,
		OmitFrames:      *noFrames,
	})
	if err != nil {
		log.Fatalf("evaluation failed: %v", err)
	}

	m := res.Evaluation.Metrics
	fmt.Printf("TP=%d FP=%d FN=%d precision=%.3f recall=%.3f mean_iou=%.3f\n",
		m.TruePositives, m.FalsePositives, m.FalseNegatives, m.Precision, m.Recall, m.MeanIoUOnTruePositives)
	if res.RunID != "" {
		fmt.Printf("recorded run %s\n", res.RunID)
	}
}
