// Package units names the speed units used in trajectory outputs.
package units

import "strings"

// Speeds are derived in image pixels per frame; they can be reported per
// second once the frame rate is known.
const (
	PxPerFrame = "px/frame"
	PxPerSec   = "px/s"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{PxPerFrame, PxPerSec}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return strings.Join(ValidUnits, ", ")
}

// ConvertSpeed converts a speed in pixels per frame to the target units.
// Unknown units and non-positive frame rates leave the value unchanged.
func ConvertSpeed(pxPerFrame, fps float64, targetUnits string) float64 {
	switch targetUnits {
	case PxPerSec:
		if fps <= 0 {
			return pxPerFrame
		}
		return pxPerFrame * fps
	default:
		return pxPerFrame
	}
}
