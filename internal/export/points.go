package export

import (
	"fmt"

	"github.com/golang/geo/s2"

	"github.com/banshee-data/occupancy.report/internal/tracks"
)

// StubTransform maps image pixels to lon/lat linearly:
// lon = OriginLon + cx*Scale, lat = OriginLat - cy*Scale.
type StubTransform struct {
	OriginLon float64
	OriginLat float64
	// Scale is degrees per pixel.
	Scale float64
}

// LatLng maps a pixel position, failing when the result is off the globe.
func (t StubTransform) LatLng(cx, cy float64) (s2.LatLng, error) {
	ll := s2.LatLngFromDegrees(t.OriginLat-cy*t.Scale, t.OriginLon+cx*t.Scale)
	if !ll.IsValid() {
		return s2.LatLng{}, fmt.Errorf("pixel (%g, %g) maps outside valid lon/lat: %s", cx, cy, ll)
	}
	return ll, nil
}

// PointProperties are the GeoJSON properties of one observation.
type PointProperties struct {
	Frame         int      `json:"frame"`
	Identity      int      `json:"id"`
	TimeSec       float64  `json:"time_sec"`
	CX            float64  `json:"cx"`
	CY            float64  `json:"cy"`
	Speed         float64  `json:"speed"`
	SmoothedSpeed *float64 `json:"smoothed_speed"`
	Parked        bool     `json:"is_parked"`
}

// PointsGeoJSON emits one Point feature per observation through t, in input
// order, with the collection bbox in degrees.
func PointsGeoJSON(points []tracks.Point, t StubTransform) (FeatureCollection, error) {
	fc := newCollection("observations (stub lon/lat)")
	bounds := s2.EmptyRect()
	for _, p := range points {
		ll, err := t.LatLng(p.CX, p.CY)
		if err != nil {
			return FeatureCollection{}, fmt.Errorf("identity %d frame %d: %w", p.Identity, p.Frame, err)
		}
		bounds = bounds.AddPoint(ll)

		props := PointProperties{
			Frame:    p.Frame,
			Identity: p.Identity,
			TimeSec:  p.TimeSec,
			CX:       p.CX,
			CY:       p.CY,
			Speed:    p.Speed,
			Parked:   p.Parked,
		}
		if v, ok := p.Smoothed(); ok {
			props.SmoothedSpeed = &v
		}
		fc.Features = append(fc.Features, Feature{
			Type:       "Feature",
			Geometry:   Geometry{Type: "Point", Coordinates: [2]float64{ll.Lng.Degrees(), ll.Lat.Degrees()}},
			Properties: props,
		})
	}
	if !bounds.IsEmpty() {
		lo, hi := bounds.Lo(), bounds.Hi()
		fc.BBox = []float64{lo.Lng.Degrees(), lo.Lat.Degrees(), hi.Lng.Degrees(), hi.Lat.Degrees()}
	}
	return fc, nil
}
