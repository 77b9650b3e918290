package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/strataworks/stratum/internal/units"
)

// DefaultConfigPath is the path to the canonical scheduling defaults file.
// This is the single source of truth for all default scheduling values.
const DefaultConfigPath = "config/scheduler.defaults.json"

// SchedulingConfig represents the root configuration for the layer scheduler.
// Fields omitted from the JSON retain their defaults, so partial configs are
// safe.
type SchedulingConfig struct {
	// Ordering params
	LayerOrdering       *string  `json:"layer_ordering,omitempty"`
	GroupingToleranceMM *float64 `json:"grouping_tolerance_mm,omitempty"`

	// Stacking direction (degrees)
	StackingPitchDeg *float64 `json:"stacking_pitch_deg,omitempty"`
	StackingYawDeg   *float64 `json:"stacking_yaw_deg,omitempty"`
	StackingRollDeg  *float64 `json:"stacking_roll_deg,omitempty"`

	// Diagnostics
	ReportPath *string `json:"report_path,omitempty"` // layer report appended here when set
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }

// EmptySchedulingConfig returns a SchedulingConfig with all fields unset.
// Use LoadSchedulingConfig to load actual values from a file.
func EmptySchedulingConfig() *SchedulingConfig {
	return &SchedulingConfig{}
}

// LoadSchedulingConfig loads a SchedulingConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the
// max file size.
func LoadSchedulingConfig(path string) (*SchedulingConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptySchedulingConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical scheduling defaults from
// DefaultConfigPath. It searches the current directory and common parent
// directories. Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *SchedulingConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/settings/
		"../../../" + DefaultConfigPath, // deeper packages
		"../../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadSchedulingConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *SchedulingConfig) Validate() error {
	if c.LayerOrdering != nil {
		if _, err := ParseLayerOrdering(*c.LayerOrdering); err != nil {
			return err
		}
	}

	if c.GroupingToleranceMM != nil {
		if *c.GroupingToleranceMM < 0 {
			return fmt.Errorf("grouping_tolerance_mm must be non-negative, got %f", *c.GroupingToleranceMM)
		}
	}

	return nil
}

// GetLayerOrdering returns the layer_ordering value or the default.
func (c *SchedulingConfig) GetLayerOrdering() LayerOrdering {
	if c.LayerOrdering == nil {
		return ByHeight // default
	}
	return LayerOrdering(*c.LayerOrdering)
}

// GetGroupingTolerance returns the grouping_tolerance_mm value or the default.
func (c *SchedulingConfig) GetGroupingTolerance() units.Distance {
	if c.GroupingToleranceMM == nil {
		return 0 // default: only exactly coincident planes group
	}
	return units.Millimeters(*c.GroupingToleranceMM)
}

// GetStackingPitch returns the stacking_pitch_deg value or the default.
func (c *SchedulingConfig) GetStackingPitch() units.Angle {
	if c.StackingPitchDeg == nil {
		return 0
	}
	return units.Degrees(*c.StackingPitchDeg)
}

// GetStackingYaw returns the stacking_yaw_deg value or the default.
func (c *SchedulingConfig) GetStackingYaw() units.Angle {
	if c.StackingYawDeg == nil {
		return 0
	}
	return units.Degrees(*c.StackingYawDeg)
}

// GetStackingRoll returns the stacking_roll_deg value or the default.
func (c *SchedulingConfig) GetStackingRoll() units.Angle {
	if c.StackingRollDeg == nil {
		return 0
	}
	return units.Degrees(*c.StackingRollDeg)
}

// GetReportPath returns the report_path value or the default.
func (c *SchedulingConfig) GetReportPath() string {
	if c.ReportPath == nil {
		return "" // default: layer report disabled
	}
	return *c.ReportPath
}

// Merge returns a copy of c with every field set in override replacing c's
// value. Fields unset in override keep c's value. Used by the API to apply
// per-request settings on top of the server profile.
func (c *SchedulingConfig) Merge(override *SchedulingConfig) *SchedulingConfig {
	out := *c
	if override == nil {
		return &out
	}
	if override.LayerOrdering != nil {
		out.LayerOrdering = override.LayerOrdering
	}
	if override.GroupingToleranceMM != nil {
		out.GroupingToleranceMM = override.GroupingToleranceMM
	}
	if override.StackingPitchDeg != nil {
		out.StackingPitchDeg = override.StackingPitchDeg
	}
	if override.StackingYawDeg != nil {
		out.StackingYawDeg = override.StackingYawDeg
	}
	if override.StackingRollDeg != nil {
		out.StackingRollDeg = override.StackingRollDeg
	}
	if override.ReportPath != nil {
		out.ReportPath = override.ReportPath
	}
	return &out
}

// WithOrdering returns a copy of the config with the ordering replaced.
// Used by CLI and API overrides.
func (c *SchedulingConfig) WithOrdering(o LayerOrdering) *SchedulingConfig {
	out := *c
	out.LayerOrdering = ptrString(string(o))
	return &out
}

// WithGroupingTolerance returns a copy of the config with the tolerance
// replaced.
func (c *SchedulingConfig) WithGroupingTolerance(mm float64) *SchedulingConfig {
	out := *c
	out.GroupingToleranceMM = ptrFloat64(mm)
	return &out
}
