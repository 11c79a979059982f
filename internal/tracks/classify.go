package tracks

// IsParked reports whether a point counts as stationary. Points without a
// smoothed speed are never parked.
func IsParked(p Point, threshold float64) bool {
	v, ok := p.Smoothed()
	return ok && v < threshold
}

// Classify sets Parked on every point and returns how many were parked.
// It is meant to be called once, directly on the output of Build.
func Classify(points []Point, threshold float64) int {
	parked := 0
	for i := range points {
		points[i].Parked = IsParked(points[i], threshold)
		if points[i].Parked {
			parked++
		}
	}
	return parked
}

// Options combines trajectory derivation and motion classification.
type Options struct {
	BuildOptions
	ParkThreshold float64
}

// Enrich runs Build followed by Classify.
func Enrich(obs []Observation, opts Options) []Point {
	points := Build(obs, opts.BuildOptions)
	Classify(points, opts.ParkThreshold)
	return points
}
