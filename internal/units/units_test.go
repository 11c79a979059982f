package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValid(t *testing.T) {
	tests := []struct {
		name     string
		unit     string
		expected bool
	}{
		{"pixels per frame", PxPerFrame, true},
		{"pixels per second", PxPerSec, true},
		{"metric unit", "mps", false},
		{"empty unit", "", false},
		{"uppercase", "PX/S", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsValid(tt.unit))
		})
	}
}

func TestGetValidUnitsString(t *testing.T) {
	assert.Equal(t, "px/frame, px/s", GetValidUnitsString())
}

func TestConvertSpeed(t *testing.T) {
	tests := []struct {
		name     string
		speed    float64
		fps      float64
		unit     string
		expected float64
	}{
		{"per frame unchanged", 5, 30, PxPerFrame, 5},
		{"per second", 5, 30, PxPerSec, 150},
		{"zero fps", 5, 0, PxPerSec, 5},
		{"unknown unit", 5, 30, "furlongs", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, ConvertSpeed(tt.speed, tt.fps, tt.unit), 1e-12)
		})
	}
}
