// Package build holds the part and layer data model consumed by the
// scheduler: parts own ordered step-pair sequences, global layers collect at
// most one step pair per part.
package build

import (
	"github.com/google/uuid"

	"github.com/strataworks/stratum/internal/geom"
	"github.com/strataworks/stratum/internal/units"
)

// PartID identifies one part for the lifetime of a build. Opaque; used as a
// map key throughout the scheduler.
type PartID string

// NewPartID returns a fresh random part identifier.
func NewPartID() PartID { return PartID(uuid.NewString()) }

// Step is one printable layer of one part. The scheduler reads only the
// slicing plane and the layer height; everything else about a layer belongs
// to the slicing pipeline.
type Step struct {
	plane       geom.Plane
	layerHeight units.Distance
}

// NewStep returns a step sliced at plane with the given layer height.
func NewStep(plane geom.Plane, layerHeight units.Distance) *Step {
	return &Step{plane: plane, layerHeight: layerHeight}
}

// SlicingPlane returns the plane at which this layer's cross-section was
// computed.
func (s *Step) SlicingPlane() geom.Plane { return s.plane }

// LayerHeight returns the configured height of this layer.
func (s *Step) LayerHeight() units.Distance { return s.layerHeight }

// StepPair is one printable iteration of a part. Printing is the layer the
// scheduler orders by. Parts own their step pairs; the scheduler and the
// global layers only hold references.
type StepPair struct {
	Printing *Step
}

// Part is one independently sliced build object: an identity plus an ordered,
// append-only sequence of step pairs. Steps may keep arriving while slicing
// runs; appended pairs stay dirty until the pipeline owner collects them with
// TakeDirtyStepPairs.
//
// A Part is not safe for concurrent use. The pipeline owner must not append
// while a scheduling call is reading.
type Part struct {
	id    PartID
	name  string
	steps []*StepPair
	clean int // steps[:clean] have been collected; steps[clean:] are dirty
}

// NewPart returns an empty part with a fresh identity.
func NewPart(name string) *Part {
	return &Part{id: NewPartID(), name: name}
}

// RestorePart returns an empty part with a known identity, e.g. one recorded
// in a manifest.
func RestorePart(id PartID, name string) *Part {
	return &Part{id: id, name: name}
}

// ID returns the part's identity.
func (p *Part) ID() PartID { return p.id }

// Name returns the part's display name.
func (p *Part) Name() string { return p.name }

// CountStepPairs returns the number of step pairs currently available.
func (p *Part) CountStepPairs() int { return len(p.steps) }

// StepPair returns the step pair at index i. Panics when i is out of range,
// like a slice access.
func (p *Part) StepPair(i int) *StepPair { return p.steps[i] }

// AppendStepPair adds a newly sliced step pair to the end of the sequence and
// marks it dirty. Existing indices are never reordered or removed.
func (p *Part) AppendStepPair(sp *StepPair) {
	p.steps = append(p.steps, sp)
}

// AppendStep constructs a step and its pair and appends it.
func (p *Part) AppendStep(plane geom.Plane, layerHeight units.Distance) *StepPair {
	sp := &StepPair{Printing: NewStep(plane, layerHeight)}
	p.AppendStepPair(sp)
	return sp
}

// DirtyStepPairs returns the step pairs appended since the last
// TakeDirtyStepPairs, oldest first. The dirty mark is not cleared; the
// scheduler only reads.
func (p *Part) DirtyStepPairs() []*StepPair {
	return p.steps[p.clean:]
}

// TakeDirtyStepPairs returns the dirty step pairs and clears the dirty mark.
// The pipeline owner calls this after consuming an incremental layer.
func (p *Part) TakeDirtyStepPairs() []*StepPair {
	dirty := p.steps[p.clean:]
	p.clean = len(p.steps)
	return dirty
}
