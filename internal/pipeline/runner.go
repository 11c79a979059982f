package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/banshee-data/occupancy.report/internal/config"
	"github.com/banshee-data/occupancy.report/internal/db"
	"github.com/banshee-data/occupancy.report/internal/eval"
	"github.com/banshee-data/occupancy.report/internal/fsutil"
	"github.com/banshee-data/occupancy.report/internal/monitoring"
	"github.com/banshee-data/occupancy.report/internal/security"
	"github.com/banshee-data/occupancy.report/internal/timeutil"
	"github.com/banshee-data/occupancy.report/internal/version"
)

// Store persists completed runs. *db.DB implements it.
type Store interface {
	RecordEvaluation(ctx context.Context, run *db.Run, ev eval.Evaluation) error
	RecordTrackSummary(ctx context.Context, run *db.Run, s db.TrackSummary) error
}

// Runner executes pipeline runs against a filesystem and an optional store.
type Runner struct {
	FS    fsutil.FileSystem
	Clock timeutil.Clock
	// Store, when non-nil, receives every successful run.
	Store Store
	// AllowedDirs, when non-empty, restricts where outputs may be written.
	AllowedDirs []string
}

// NewRunner returns a Runner on the OS filesystem with the real clock.
func NewRunner(store Store) *Runner {
	return &Runner{FS: fsutil.OSFileSystem{}, Clock: timeutil.RealClock{}, Store: store}
}

func (r *Runner) fs() fsutil.FileSystem {
	if r.FS == nil {
		return fsutil.OSFileSystem{}
	}
	return r.FS
}

func (r *Runner) stage(name string) func() {
	clock := r.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return monitoring.Stage(name, clock.Now)
}

// output is one rendered file waiting to be written.
type output struct {
	name string
	data []byte
}

// writeOutputs creates dir and writes every output into it. It returns the
// written paths in order.
func (r *Runner) writeOutputs(dir string, outs []output) ([]string, error) {
	if len(r.AllowedDirs) > 0 {
		if err := security.ValidatePathWithinAllowedDirs(dir, r.AllowedDirs); err != nil {
			return nil, fmt.Errorf("invalid output directory: %w", err)
		}
	}
	fsys := r.fs()
	if dir != "" && dir != "." {
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	paths := make([]string, 0, len(outs))
	for _, o := range outs {
		path := filepath.Join(dir, o.name)
		if err := fsys.WriteFile(path, o.data, 0o644); err != nil {
			return paths, fmt.Errorf("failed to write %s: %w", path, err)
		}
		monitoring.Logf("wrote %s (%d bytes)", path, len(o.data))
		paths = append(paths, path)
	}
	return paths, nil
}

// writeFile writes a single output at an explicit path.
func (r *Runner) writeFile(path string, data []byte) error {
	_, err := r.writeOutputs(filepath.Dir(path), []output{{name: filepath.Base(path), data: data}})
	return err
}

func (r *Runner) readFile(path string) ([]byte, error) {
	data, err := r.fs().ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// newRun builds the stored metadata for a run configured by cfg.
func newRun(label, source string, cfg *config.AnalysisConfig) (*db.Run, error) {
	cfgJSON, err := json.Marshal(cfg.Resolved())
	if err != nil {
		return nil, fmt.Errorf("failed to encode run config: %w", err)
	}
	return &db.Run{
		Label:      label,
		Source:     source,
		ConfigJSON: cfgJSON,
		Version:    version.Version,
	}, nil
}

func marshalIndent(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func configOrDefault(cfg *config.AnalysisConfig) *config.AnalysisConfig {
	if cfg == nil {
		return config.DefaultAnalysisConfig()
	}
	return cfg
}
