package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/occupancy.report/internal/tracks"
)

var defaultStub = StubTransform{OriginLon: -113.49, OriginLat: 53.54, Scale: 1e-5}

func TestStubTransform(t *testing.T) {
	ll, err := defaultStub.LatLng(1000, 500)
	require.NoError(t, err)
	assert.InDelta(t, -113.48, ll.Lng.Degrees(), 1e-9)
	assert.InDelta(t, 53.535, ll.Lat.Degrees(), 1e-9)

	_, err = StubTransform{OriginLat: 89, Scale: 1}.LatLng(0, -5)
	assert.Error(t, err, "latitude beyond the pole is rejected")
}

func TestPointsGeoJSON(t *testing.T) {
	points := []tracks.Point{
		point(3, 0, 0, 0, 0, nil, false),
		point(3, 0.1, 100, 200, 5, f(2.5), true),
	}
	fc, err := PointsGeoJSON(points, defaultStub)
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)

	first := fc.Features[0]
	assert.Equal(t, "Point", first.Geometry.Type)
	coords := first.Geometry.Coordinates.([2]float64)
	assert.InDelta(t, -113.49, coords[0], 1e-9)
	assert.InDelta(t, 53.54, coords[1], 1e-9)
	assert.Nil(t, first.Properties.(PointProperties).SmoothedSpeed)

	second := fc.Features[1].Properties.(PointProperties)
	require.NotNil(t, second.SmoothedSpeed)
	assert.Equal(t, 2.5, *second.SmoothedSpeed)
	assert.True(t, second.Parked)

	require.Len(t, fc.BBox, 4)
	assert.InDelta(t, -113.49, fc.BBox[0], 1e-9)
	assert.InDelta(t, 53.538, fc.BBox[1], 1e-9)
	assert.InDelta(t, -113.489, fc.BBox[2], 1e-9)
	assert.InDelta(t, 53.54, fc.BBox[3], 1e-9)
}

func TestPointsGeoJSON_InvalidPosition(t *testing.T) {
	_, err := PointsGeoJSON([]tracks.Point{point(1, 0, 0, -1e9, 0, nil, false)}, defaultStub)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "identity 1")
}

func TestPointsGeoJSON_Empty(t *testing.T) {
	fc, err := PointsGeoJSON(nil, defaultStub)
	require.NoError(t, err)
	assert.Empty(t, fc.Features)
	assert.Nil(t, fc.BBox)
}
