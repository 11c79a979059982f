// Command robustness compares occupancy averages across several track tables
// of the same scene, for example dark, blurred and low-resolution renditions
// of one clip, and writes a markdown table.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/banshee-data/occupancy.report/internal/config"
	"github.com/banshee-data/occupancy.report/internal/pipeline"
	"github.com/banshee-data/occupancy.report/internal/version"
)

// variantList collects repeated -variant flags of the form
// label=path[;note].
type variantList []pipeline.Variant

func (v *variantList) String() string {
	labels := make([]string, len(*v))
	for i, x := range *v {
		labels[i] = x.Label
	}
	return strings.Join(labels, ",")
}

func (v *variantList) Set(s string) error {
	x, err := parseVariant(s)
	if err != nil {
		return err
	}
	*v = append(*v, x)
	return nil
}

func parseVariant(s string) (pipeline.Variant, error) {
	label, rest, ok := strings.Cut(s, "=")
	label = strings.TrimSpace(label)
	if !ok || label == "" {
		return pipeline.Variant{}, fmt.Errorf("variant %q: want label=path[;note]", s)
	}
	path, note, _ := strings.Cut(rest, ";")
	path = strings.TrimSpace(path)
	if path == "" {
		return pipeline.Variant{}, fmt.Errorf("variant %q: empty path", s)
	}
	return pipeline.Variant{Label: label, Path: path, Note: strings.TrimSpace(note)}, nil
}

var (
	outDir      = flag.String("out", "docs", "output directory for robustness.md")
	configPath  = flag.String("config", "", "analysis config file (.json, .yaml)")
	raw         = flag.Bool("raw", false, "variants are raw tracker tables rather than enriched tables")
	writeBins   = flag.Bool("bins", false, "also write per-variant counts_by_bin_<label>.csv")
	showVersion = flag.Bool("version", false, "print version and exit")
)

func main() {
	var variants variantList
	flag.Var(&variants, "variant", "label=path[;note], repeatable")
	overrides := config.Overrides{}
	overrides.Register(flag.CommandLine,
		"park_window", "park_threshold", "fps", "speed_units",
		"segments", "time_bin_sec", "segment_min_x", "segment_max_x", "workers")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if len(variants) == 0 {
		log.Fatalf("at least one -variant is required")
	}
	for i := range variants {
		variants[i].Raw = *raw
	}

	cfg, err := config.LoadWithOverrides(*configPath, overrides)
	if err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := pipeline.NewRunner(nil).RunRobustness(ctx, pipeline.RobustnessRequest{
		Variants:  variants,
		OutputDir: *outDir,
		Config:    cfg,
		WriteBins: *writeBins,
	})
	if err != nil {
		log.Fatalf("robustness failed: %v", err)
	}
	fmt.Print(res.Markdown)
	for _, f := range res.Files {
		fmt.Println("wrote", f)
	}
}
