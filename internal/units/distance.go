// Package units provides the distance and angle value types shared across
// the scheduler, plus unit-string validation for display conversion.
package units

// Distance is a length. Stored in millimeters; all schedule math and the
// database use mm.
type Distance float64

// Millimeters returns a Distance from a value in mm.
func Millimeters(v float64) Distance { return Distance(v) }

// MM returns the distance in millimeters.
func (d Distance) MM() float64 { return float64(d) }

// Meters returns the distance in meters.
func (d Distance) Meters() float64 { return float64(d) / 1000.0 }

// Inches returns the distance in inches.
func (d Distance) Inches() float64 { return float64(d) / 25.4 }

// Unit constants
const (
	MM = "mm"
	CM = "cm"
	M  = "m"
	IN = "in"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{MM, CM, M, IN}

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
	return "mm, cm, m, in"
}

// ConvertDistance converts a distance from millimeters to the target units.
// Database stores distances in mm.
func ConvertDistance(distanceMM float64, targetUnits string) float64 {
	switch targetUnits {
	case MM:
		return distanceMM
	case CM:
		return distanceMM / 10.0
	case M:
		return distanceMM / 1000.0
	case IN:
		return distanceMM / 25.4
	default:
		return distanceMM
	}
}
