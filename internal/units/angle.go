package units

import "math"

// Angle is stored in radians. Config files express angles in degrees; convert
// at the boundary with Degrees.
type Angle float64

// Degrees returns an Angle from a value in degrees.
func Degrees(v float64) Angle { return Angle(v * math.Pi / 180.0) }

// Radians returns an Angle from a value in radians.
func Radians(v float64) Angle { return Angle(v) }

// Rad returns the angle in radians.
func (a Angle) Rad() float64 { return float64(a) }

// Deg returns the angle in degrees.
func (a Angle) Deg() float64 { return float64(a) * 180.0 / math.Pi }
