package tableio

import (
	"bytes"
	"context"
	"fmt"

	"github.com/banshee-data/occupancy.report/internal/fsutil"
	"github.com/banshee-data/occupancy.report/internal/tracks"
)

// CSVSource is a tracks.Source backed by a tracker CSV file.
type CSVSource struct {
	FS   fsutil.FileSystem
	Path string
	// FPS times rows that carry no time_sec column.
	FPS float64
}

// Name implements tracks.Source.
func (s CSVSource) Name() string { return s.Path }

// Observations implements tracks.Source.
func (s CSVSource) Observations(ctx context.Context) ([]tracks.Observation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fsys := s.FS
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}
	data, err := fsys.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read track table: %w", err)
	}
	return ReadObservations(bytes.NewReader(data), s.Path, s.FPS)
}
