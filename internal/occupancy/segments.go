package occupancy

import (
	"fmt"
	"math"

	"github.com/banshee-data/occupancy.report/internal/tracks"
)

// Bounds partitions [MinX, MaxX] into Count equal-width segments.
type Bounds struct {
	MinX  float64 `json:"min_x"`
	MaxX  float64 `json:"max_x"`
	Count int     `json:"segments"`
}

// BoundsFromPoints spans the observed centroid x range of points.
func BoundsFromPoints(points []tracks.Point, count int) Bounds {
	b := Bounds{MinX: math.Inf(1), MaxX: math.Inf(-1), Count: count}
	for _, p := range points {
		if !finite(p.CX) {
			continue
		}
		b.MinX = math.Min(b.MinX, p.CX)
		b.MaxX = math.Max(b.MaxX, p.CX)
	}
	if b.MinX > b.MaxX {
		return Bounds{Count: count}
	}
	return b
}

// Width returns the width of one segment.
func (b Bounds) Width() float64 {
	if b.Count <= 0 {
		return 0
	}
	return (b.MaxX - b.MinX) / float64(b.Count)
}

// Edges returns the Count+1 segment boundaries.
func (b Bounds) Edges() []float64 {
	edges := make([]float64, b.Count+1)
	w := b.Width()
	for i := range edges {
		edges[i] = b.MinX + float64(i)*w
	}
	if b.Count > 0 {
		edges[b.Count] = b.MaxX
	}
	return edges
}

// Segment returns the 0-based segment index of x. Intervals are closed on
// the right, so a value on an interior boundary falls in the lower segment;
// MinX itself belongs to the first segment. Values outside the bounds clamp
// to the first or last segment. A zero-width range maps everything to 0.
func (b Bounds) Segment(x float64) int {
	if b.Count <= 1 || b.Width() <= 0 || x <= b.MinX {
		return 0
	}
	if x >= b.MaxX {
		return b.Count - 1
	}
	w := b.Width()
	for i := 0; i < b.Count-1; i++ {
		if x <= b.MinX+float64(i+1)*w {
			return i
		}
	}
	return b.Count - 1
}

// Labels returns the segment labels S1..SN.
func (b Bounds) Labels() []string {
	labels := make([]string, b.Count)
	for i := range labels {
		labels[i] = SegmentLabel(i)
	}
	return labels
}

// SegmentLabel names a 0-based segment index.
func SegmentLabel(i int) string {
	return fmt.Sprintf("S%d", i+1)
}

// TimeBin returns the left edge of the fixed-width bin containing t.
func TimeBin(t, width float64) float64 {
	if width <= 0 {
		return 0
	}
	return math.Floor(t/width) * width
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
