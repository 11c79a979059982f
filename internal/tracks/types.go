package tracks

import (
	"context"

	"github.com/banshee-data/occupancy.report/internal/geom"
)

// Observation is one tracker output row. Identity is stable across frames
// for the same physical object.
type Observation struct {
	Frame    int      `json:"frame"`
	TimeSec  float64  `json:"time_sec"`
	Identity int      `json:"id"`
	Box      geom.Box `json:"box"`
}

// Point is an Observation enriched with derived kinematics. The embedded
// observation is a copy; the input row is never modified.
type Point struct {
	Observation

	CX    float64 `json:"cx"`
	CY    float64 `json:"cy"`
	DX    float64 `json:"dx"`
	DY    float64 `json:"dy"`
	Speed float64 `json:"speed"` // position units per frame

	// SmoothedSpeed is only meaningful when HasSmoothedSpeed is set.
	SmoothedSpeed    float64 `json:"smoothed_speed"`
	HasSmoothedSpeed bool    `json:"has_smoothed_speed"`

	Parked bool `json:"is_parked"`
}

// Smoothed returns the rolling-mean speed and whether enough trailing
// history existed to compute it.
func (p Point) Smoothed() (float64, bool) {
	return p.SmoothedSpeed, p.HasSmoothedSpeed
}

// FirstSeen records when an identity first appears in the table.
type FirstSeen struct {
	Identity     int     `json:"id"`
	FirstFrame   int     `json:"first_seen_frame"`
	FirstTimeSec float64 `json:"first_seen_sec"`
}

// Source supplies an ordered table of observations from an external
// tracker.
type Source interface {
	// Name identifies the source in logs and stored run metadata.
	Name() string
	// Observations returns the complete table.
	Observations(ctx context.Context) ([]Observation, error)
}

// SliceSource serves observations that are already in memory.
type SliceSource struct {
	Label string
	Rows  []Observation
}

// Name implements Source.
func (s SliceSource) Name() string { return s.Label }

// Observations implements Source.
func (s SliceSource) Observations(ctx context.Context) ([]Observation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Rows, nil
}

// TimeFromFrame converts a 1-based frame index to elapsed seconds.
func TimeFromFrame(frame int, fps float64) float64 {
	if fps <= 0 {
		return 0
	}
	return float64(frame-1) / fps
}
