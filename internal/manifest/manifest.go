// Package manifest loads build manifests: JSON descriptions of the parts to
// schedule, each with its slicing planes and layer heights. Manifests stand
// in for the slicing pipeline when driving the scheduler from the CLI or the
// API.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/strataworks/stratum/internal/build"
	"github.com/strataworks/stratum/internal/geom"
	"github.com/strataworks/stratum/internal/units"
)

// maxManifestSize caps manifest reads. Manifests are step metadata, not
// geometry, so even very large builds stay far below this.
const maxManifestSize = 32 * 1024 * 1024 // 32MB

// Manifest is the root document: the list of parts in scheduling input order.
type Manifest struct {
	Parts []PartSpec `json:"parts"`
}

// PartSpec describes one part. Steps may be listed explicitly, generated
// uniformly, or both omitted for an empty part.
type PartSpec struct {
	Name string `json:"name"`
	// ID restores a known part identity. Optional; a fresh one is created
	// when omitted.
	ID string `json:"id,omitempty"`
	// LayerHeightMM is the default layer height for steps that do not set
	// their own.
	LayerHeightMM float64      `json:"layer_height_mm,omitempty"`
	Steps         []StepSpec   `json:"steps,omitempty"`
	Uniform       *UniformSpec `json:"uniform,omitempty"`
}

// StepSpec describes one slicing plane. OriginZMM is shorthand for a
// horizontal plane; Origin/Normal express arbitrary orientations.
type StepSpec struct {
	OriginZMM     *float64    `json:"origin_z_mm,omitempty"`
	Origin        *[3]float64 `json:"origin,omitempty"`
	Normal        *[3]float64 `json:"normal,omitempty"`
	LayerHeightMM *float64    `json:"layer_height_mm,omitempty"`
}

// UniformSpec generates Count horizontal steps with planes spaced
// LayerHeightMM apart starting at FirstOriginZMM.
type UniformSpec struct {
	Count          int     `json:"count"`
	LayerHeightMM  float64 `json:"layer_height_mm"`
	FirstOriginZMM float64 `json:"first_origin_z_mm,omitempty"`
}

// Load reads and parses a manifest file.
func Load(path string) ([]*build.Part, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("manifest must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat manifest: %w", err)
	}
	if fileInfo.Size() > maxManifestSize {
		return nil, fmt.Errorf("manifest too large: %d bytes (max %d)", fileInfo.Size(), maxManifestSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return Parse(data)
}

// Parse decodes a manifest document and materializes its parts.
func Parse(data []byte) ([]*build.Part, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest JSON: %w", err)
	}
	return m.Materialize()
}

// Materialize converts the manifest into scheduler parts, in document order.
func (m *Manifest) Materialize() ([]*build.Part, error) {
	parts := make([]*build.Part, 0, len(m.Parts))
	seenIDs := make(map[build.PartID]string, len(m.Parts))

	for pi, spec := range m.Parts {
		if spec.Name == "" {
			return nil, fmt.Errorf("part %d: name is required", pi)
		}

		var part *build.Part
		if spec.ID != "" {
			id := build.PartID(spec.ID)
			if prev, dup := seenIDs[id]; dup {
				return nil, fmt.Errorf("part %q: id %s already used by part %q", spec.Name, id, prev)
			}
			part = build.RestorePart(id, spec.Name)
		} else {
			part = build.NewPart(spec.Name)
		}
		seenIDs[part.ID()] = spec.Name

		if err := spec.appendSteps(part); err != nil {
			return nil, fmt.Errorf("part %q: %w", spec.Name, err)
		}
		parts = append(parts, part)
	}

	return parts, nil
}

func (spec *PartSpec) appendSteps(part *build.Part) error {
	for si, step := range spec.Steps {
		plane, err := step.plane()
		if err != nil {
			return fmt.Errorf("step %d: %w", si, err)
		}

		heightMM := spec.LayerHeightMM
		if step.LayerHeightMM != nil {
			heightMM = *step.LayerHeightMM
		}
		if heightMM <= 0 {
			return fmt.Errorf("step %d: layer_height_mm must be positive, got %v", si, heightMM)
		}

		part.AppendStep(plane, units.Millimeters(heightMM))
	}

	if u := spec.Uniform; u != nil {
		if u.Count < 0 {
			return fmt.Errorf("uniform: count must be non-negative, got %d", u.Count)
		}
		if u.Count > 0 && u.LayerHeightMM <= 0 {
			return fmt.Errorf("uniform: layer_height_mm must be positive, got %v", u.LayerHeightMM)
		}
		for i := 0; i < u.Count; i++ {
			z := u.FirstOriginZMM + float64(i)*u.LayerHeightMM
			part.AppendStep(geom.XYPlane(units.Millimeters(z)), units.Millimeters(u.LayerHeightMM))
		}
	}

	return nil
}

func (s *StepSpec) plane() (geom.Plane, error) {
	switch {
	case s.OriginZMM != nil && s.Origin != nil:
		return geom.Plane{}, fmt.Errorf("origin_z_mm and origin are mutually exclusive")
	case s.OriginZMM != nil:
		if s.Normal != nil {
			return geom.NewPlane(r3.Vec{Z: *s.OriginZMM}, vec(*s.Normal)), nil
		}
		return geom.XYPlane(units.Millimeters(*s.OriginZMM)), nil
	case s.Origin != nil:
		normal := r3.Vec{Z: 1}
		if s.Normal != nil {
			normal = vec(*s.Normal)
		}
		if r3.Norm(normal) == 0 {
			return geom.Plane{}, fmt.Errorf("normal must be non-zero")
		}
		return geom.NewPlane(vec(*s.Origin), normal), nil
	default:
		return geom.Plane{}, fmt.Errorf("one of origin_z_mm or origin is required")
	}
}

func vec(v [3]float64) r3.Vec {
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}
}
