package export

import (
	"encoding/json"
	"io"
)

// FeatureCollection is a GeoJSON feature collection. Name and CRS are the
// legacy members QGIS reads for a layer title and coordinate hint.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Name     string    `json:"name,omitempty"`
	BBox     []float64 `json:"bbox,omitempty"`
	CRS      *CRS      `json:"crs,omitempty"`
	Features []Feature `json:"features"`
}

// CRS is a named coordinate reference hint.
type CRS struct {
	Type       string            `json:"type"`
	Properties map[string]string `json:"properties"`
}

// Feature is a single GeoJSON feature.
type Feature struct {
	Type       string   `json:"type"`
	Geometry   Geometry `json:"geometry"`
	Properties any      `json:"properties"`
}

// Geometry holds a Point ([2]float64) or LineString ([][2]float64).
type Geometry struct {
	Type        string `json:"type"`
	Coordinates any    `json:"coordinates"`
}

// PixelCRS marks coordinates as image pixels rather than lon/lat.
var PixelCRS = &CRS{Type: "name", Properties: map[string]string{"name": "EPSG:0 (image-pixels)"}}

func newCollection(name string) FeatureCollection {
	return FeatureCollection{Type: "FeatureCollection", Name: name, Features: []Feature{}}
}

// Encode writes fc as compact JSON.
func Encode(w io.Writer, fc FeatureCollection) error {
	return json.NewEncoder(w).Encode(fc)
}
