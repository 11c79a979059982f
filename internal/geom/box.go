package geom

import "math"

// Box is an axis-aligned bounding box in image pixels. XMin < XMax and
// YMin < YMax are expected but not enforced.
type Box struct {
	XMin float64 `json:"xmin"`
	YMin float64 `json:"ymin"`
	XMax float64 `json:"xmax"`
	YMax float64 `json:"ymax"`
}

// Width returns the horizontal extent, clamped at zero.
func (b Box) Width() float64 { return math.Max(0, b.XMax-b.XMin) }

// Height returns the vertical extent, clamped at zero.
func (b Box) Height() float64 { return math.Max(0, b.YMax-b.YMin) }

// Area returns the box area. Inverted boxes have zero area, never negative.
func Area(b Box) float64 {
	return b.Width() * b.Height()
}

// IntersectionArea returns the area of the overlap rectangle of a and b.
func IntersectionArea(a, b Box) float64 {
	overlap := Box{
		XMin: math.Max(a.XMin, b.XMin),
		YMin: math.Max(a.YMin, b.YMin),
		XMax: math.Min(a.XMax, b.XMax),
		YMax: math.Min(a.YMax, b.YMax),
	}
	return overlap.Width() * overlap.Height()
}

// IoU calculates intersection-over-union for two boxes. Returns a value in
// [0, 1]; a non-positive union yields 0.
func IoU(a, b Box) float64 {
	inter := IntersectionArea(a, b)
	union := Area(a) + Area(b) - inter
	if union <= 0 {
		return 0.0
	}
	return inter / union
}

// Centroid returns the box centre.
func Centroid(b Box) (cx, cy float64) {
	return (b.XMin + b.XMax) / 2, (b.YMin + b.YMax) / 2
}
