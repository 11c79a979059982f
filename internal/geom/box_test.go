package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArea(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		box  Box
		want float64
	}{
		{"unit square", Box{0, 0, 1, 1}, 1},
		{"rectangle", Box{2, 3, 12, 8}, 50},
		{"zero width", Box{5, 0, 5, 10}, 0},
		{"inverted", Box{10, 10, 0, 0}, 0},
		{"inverted x only", Box{10, 0, 0, 10}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Area(tt.box), 1e-12)
		})
	}
}

func TestIntersectionArea(t *testing.T) {
	t.Parallel()

	a := Box{0, 0, 10, 10}
	assert.InDelta(t, 81.0, IntersectionArea(a, Box{1, 1, 11, 11}), 1e-12)
	assert.InDelta(t, 0.0, IntersectionArea(a, Box{20, 20, 30, 30}), 1e-12)
	// Touching edges share no area.
	assert.InDelta(t, 0.0, IntersectionArea(a, Box{10, 0, 20, 10}), 1e-12)
	assert.InDelta(t, 25.0, IntersectionArea(a, Box{5, 5, 100, 100}), 1e-12)
}

func TestIoU(t *testing.T) {
	t.Parallel()

	t.Run("identical boxes", func(t *testing.T) {
		for _, b := range []Box{{0, 0, 10, 10}, {3.5, 2, 4, 9}, {-5, -5, 5, 5}} {
			assert.InDelta(t, 1.0, IoU(b, b), 1e-12)
		}
	})

	t.Run("disjoint boxes", func(t *testing.T) {
		assert.Equal(t, 0.0, IoU(Box{0, 0, 1, 1}, Box{2, 2, 3, 3}))
		assert.Equal(t, 0.0, IoU(Box{0, 0, 1, 1}, Box{1, 0, 2, 1}))
	})

	t.Run("partial overlap", func(t *testing.T) {
		got := IoU(Box{0, 0, 10, 10}, Box{1, 1, 11, 11})
		assert.InDelta(t, 81.0/119.0, got, 1e-9)
	})

	t.Run("degenerate boxes", func(t *testing.T) {
		assert.Equal(t, 0.0, IoU(Box{0, 0, 0, 0}, Box{0, 0, 0, 0}))
		assert.Equal(t, 0.0, IoU(Box{5, 5, 1, 1}, Box{0, 0, 10, 10}))
	})

	t.Run("symmetric and bounded", func(t *testing.T) {
		a := Box{0, 0, 4, 6}
		b := Box{2, 1, 9, 3}
		assert.Equal(t, IoU(a, b), IoU(b, a))
		assert.GreaterOrEqual(t, IoU(a, b), 0.0)
		assert.LessOrEqual(t, IoU(a, b), 1.0)
	})
}

func TestCentroid(t *testing.T) {
	cx, cy := Centroid(Box{0, 0, 10, 20})
	assert.Equal(t, 5.0, cx)
	assert.Equal(t, 10.0, cy)

	cx, cy = Centroid(Box{-4, 2, 2, 2})
	assert.Equal(t, -1.0, cx)
	assert.Equal(t, 2.0, cy)
}
