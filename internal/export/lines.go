package export

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/occupancy.report/internal/tracks"
)

// TrackLine is the ordered centroid path of one identity with summary
// figures.
type TrackLine struct {
	Identity   int
	Points     [][2]float64
	PointCount int
	StartTime  float64
	EndTime    float64
	// AverageSpeed is the mean per-step speed including the first step.
	AverageSpeed float64
	// AverageSmoothedSpeed averages the defined smoothed values only; it is
	// absent when the identity never had enough history.
	AverageSmoothedSpeed    float64
	HasAverageSmoothedSpeed bool
	ParkedObservationCount  int
}

// LineProperties are the GeoJSON properties of a track line.
type LineProperties struct {
	Identity               int      `json:"identity"`
	PointCount             int      `json:"point_count"`
	StartTime              float64  `json:"start_time"`
	EndTime                float64  `json:"end_time"`
	AverageSpeed           float64  `json:"average_speed"`
	AverageSmoothedSpeed   *float64 `json:"average_smoothed_speed"`
	ParkedObservationCount int      `json:"parked_observation_count"`
}

// Lines builds one TrackLine per identity having at least minPoints
// observations. Lines are ordered by identity; points within a line by
// time_sec, keeping input order on ties.
func Lines(points []tracks.Point, minPoints int) []TrackLine {
	ordered := make([]tracks.Point, len(points))
	copy(ordered, points)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Identity != ordered[j].Identity {
			return ordered[i].Identity < ordered[j].Identity
		}
		return ordered[i].TimeSec < ordered[j].TimeSec
	})

	var lines []TrackLine
	for start := 0; start < len(ordered); {
		end := start
		for end < len(ordered) && ordered[end].Identity == ordered[start].Identity {
			end++
		}
		if end-start >= minPoints {
			lines = append(lines, summarize(ordered[start:end]))
		}
		start = end
	}
	return lines
}

func summarize(group []tracks.Point) TrackLine {
	line := TrackLine{
		Identity:   group[0].Identity,
		Points:     make([][2]float64, len(group)),
		PointCount: len(group),
		StartTime:  group[0].TimeSec,
		EndTime:    group[len(group)-1].TimeSec,
	}
	speeds := make([]float64, len(group))
	var smoothed []float64
	for i, p := range group {
		line.Points[i] = [2]float64{p.CX, p.CY}
		speeds[i] = p.Speed
		if v, ok := p.Smoothed(); ok {
			smoothed = append(smoothed, v)
		}
		if p.Parked {
			line.ParkedObservationCount++
		}
	}
	line.AverageSpeed = stat.Mean(speeds, nil)
	if len(smoothed) > 0 {
		line.AverageSmoothedSpeed = stat.Mean(smoothed, nil)
		line.HasAverageSmoothedSpeed = true
	}
	return line
}

// Properties returns the GeoJSON properties of l.
func (l TrackLine) Properties() LineProperties {
	props := LineProperties{
		Identity:               l.Identity,
		PointCount:             l.PointCount,
		StartTime:              l.StartTime,
		EndTime:                l.EndTime,
		AverageSpeed:           l.AverageSpeed,
		ParkedObservationCount: l.ParkedObservationCount,
	}
	if l.HasAverageSmoothedSpeed {
		v := l.AverageSmoothedSpeed
		props.AverageSmoothedSpeed = &v
	}
	return props
}

// LinesGeoJSON wraps lines as LineString features in pixel coordinates.
func LinesGeoJSON(lines []TrackLine) FeatureCollection {
	fc := newCollection("track lines (image pixels)")
	fc.CRS = PixelCRS
	for _, l := range lines {
		fc.Features = append(fc.Features, Feature{
			Type:       "Feature",
			Geometry:   Geometry{Type: "LineString", Coordinates: l.Points},
			Properties: l.Properties(),
		})
	}
	return fc
}
