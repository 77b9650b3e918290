package units

import (
	"math"
	"testing"
)

func TestConvertDistance(t *testing.T) {
	tests := []struct {
		name       string
		distanceMM float64
		units      string
		expected   float64
	}{
		{"10 mm to mm", 10.0, MM, 10.0},
		{"10 mm to cm", 10.0, CM, 1.0},
		{"10 mm to m", 10.0, M, 0.01},
		{"25.4 mm to in", 25.4, IN, 1.0},
		{"unknown units default to mm", 10.0, "unknown", 10.0},
		{"0 mm to in", 0.0, IN, 0.0},
		{"layer height 0.2 mm to cm", 0.2, CM, 0.02},
		{"build height 304.8 mm to in", 304.8, IN, 12.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConvertDistance(tt.distanceMM, tt.units)
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("ConvertDistance(%f, %s) = %f, want %f", tt.distanceMM, tt.units, result, tt.expected)
			}
		})
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name     string
		unit     string
		expected bool
	}{
		{"valid mm", MM, true},
		{"valid cm", CM, true},
		{"valid m", M, true},
		{"valid in", IN, true},
		{"invalid unit", "invalid", false},
		{"empty string", "", false},
		{"case sensitive", "MM", false},
		{"case sensitive", "Mm", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValid(tt.unit)
			if result != tt.expected {
				t.Errorf("IsValid(%s) = %v, want %v", tt.unit, result, tt.expected)
			}
		})
	}
}

func TestAngleConversion(t *testing.T) {
	tests := []struct {
		name    string
		degrees float64
		radians float64
	}{
		{"zero", 0, 0},
		{"right angle", 90, math.Pi / 2},
		{"straight", 180, math.Pi},
		{"full turn", 360, 2 * math.Pi},
		{"negative", -90, -math.Pi / 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Degrees(tt.degrees)
			if math.Abs(a.Rad()-tt.radians) > 1e-12 {
				t.Errorf("Degrees(%f).Rad() = %f, want %f", tt.degrees, a.Rad(), tt.radians)
			}
			if math.Abs(a.Deg()-tt.degrees) > 1e-12 {
				t.Errorf("Degrees(%f).Deg() = %f, want %f", tt.degrees, a.Deg(), tt.degrees)
			}
		})
	}
}

func TestDistanceAccessors(t *testing.T) {
	d := Millimeters(25.4)
	if d.MM() != 25.4 {
		t.Errorf("MM() = %f, want 25.4", d.MM())
	}
	if math.Abs(d.Inches()-1.0) > 1e-12 {
		t.Errorf("Inches() = %f, want 1.0", d.Inches())
	}
	if math.Abs(d.Meters()-0.0254) > 1e-12 {
		t.Errorf("Meters() = %f, want 0.0254", d.Meters())
	}
}
