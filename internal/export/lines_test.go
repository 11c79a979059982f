package export

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/occupancy.report/internal/tracks"
)

func point(id int, t, cx, cy, speed float64, smoothed *float64, parked bool) tracks.Point {
	p := tracks.Point{
		Observation: tracks.Observation{Identity: id, TimeSec: t, Frame: int(t*10) + 1},
		CX:          cx, CY: cy, Speed: speed, Parked: parked,
	}
	if smoothed != nil {
		p.SmoothedSpeed, p.HasSmoothedSpeed = *smoothed, true
	}
	return p
}

func f(v float64) *float64 { return &v }

func TestLines(t *testing.T) {
	t.Parallel()

	points := []tracks.Point{
		point(5, 0.2, 30, 30, 2, f(1), true),
		point(2, 0.0, 1, 1, 0, nil, false),
		point(5, 0.0, 10, 10, 0, nil, false),
		point(9, 0.0, 50, 50, 0, nil, false), // single point: dropped at minPoints 2
		point(5, 0.1, 20, 20, 4, f(2), false),
		point(2, 0.1, 2, 2, 1, nil, false),
	}

	lines := Lines(points, 2)
	require.Len(t, lines, 2)

	assert.Equal(t, 2, lines[0].Identity)
	assert.False(t, lines[0].HasAverageSmoothedSpeed)
	assert.Equal(t, 0.5, lines[0].AverageSpeed)

	five := lines[1]
	assert.Equal(t, 5, five.Identity)
	assert.Equal(t, [][2]float64{{10, 10}, {20, 20}, {30, 30}}, five.Points, "points follow time order")
	assert.Equal(t, 3, five.PointCount)
	assert.Equal(t, 0.0, five.StartTime)
	assert.Equal(t, 0.2, five.EndTime)
	assert.Equal(t, 2.0, five.AverageSpeed)
	assert.True(t, five.HasAverageSmoothedSpeed)
	assert.Equal(t, 1.5, five.AverageSmoothedSpeed)
	assert.Equal(t, 1, five.ParkedObservationCount)

	assert.Len(t, Lines(points, 1), 3)
	assert.Empty(t, Lines(points, 4))
	assert.Equal(t, 5, points[0].Identity, "input is not reordered")
}

func TestLinesGeoJSON(t *testing.T) {
	lines := Lines([]tracks.Point{
		point(1, 0, 0, 0, 0, nil, false),
		point(1, 1, 3, 4, 5, nil, false),
	}, 2)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, LinesGeoJSON(lines)))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "FeatureCollection", doc["type"])
	assert.Equal(t, "EPSG:0 (image-pixels)", doc["crs"].(map[string]any)["properties"].(map[string]any)["name"])

	features := doc["features"].([]any)
	require.Len(t, features, 1)
	feat := features[0].(map[string]any)
	geom := feat["geometry"].(map[string]any)
	assert.Equal(t, "LineString", geom["type"])
	assert.Equal(t, []any{[]any{0.0, 0.0}, []any{3.0, 4.0}}, geom["coordinates"])

	props := feat["properties"].(map[string]any)
	assert.Equal(t, 1.0, props["identity"])
	assert.Equal(t, 2.0, props["point_count"])
	assert.Equal(t, 2.5, props["average_speed"])
	assert.Contains(t, props, "average_smoothed_speed")
	assert.Nil(t, props["average_smoothed_speed"], "absent smoothed average encodes as null")
}

func TestLinesGeoJSON_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, LinesGeoJSON(nil)))
	assert.Contains(t, buf.String(), `"features":[]`)
}
