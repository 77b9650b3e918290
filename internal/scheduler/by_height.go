package scheduler

import (
	"math"

	"github.com/strataworks/stratum/internal/build"
	"github.com/strataworks/stratum/internal/geom"
)

// scheduleByHeight groups steps whose shifted slicing planes sit at the same
// distance along the stacking direction. It assumes all parts were sliced
// with a consistent, non-rotating stacking direction.
//
// Each pass finds the lowest unscheduled plane across all parts, then sweeps
// again collecting every part whose current plane matches it within the
// grouping tolerance. Planes are compared layer-center to layer-center: each
// is shifted along its own normal by half its layer height first.
func (o *Optimizer) scheduleByHeight(parts []*build.Part) []*build.GlobalLayer {
	stacking := geom.StackingVector(
		o.cfg.GetStackingPitch(),
		o.cfg.GetStackingYaw(),
		o.cfg.GetStackingRoll(),
	)
	tolerance := o.cfg.GetGroupingTolerance()

	Diagf("by_height: stacking=(%.4f,%.4f,%.4f) tolerance=%.4fmm parts=%d",
		stacking.X, stacking.Y, stacking.Z, tolerance.MM(), len(parts))

	// Track the next unscheduled step index for each part.
	cursor := make(map[build.PartID]int, len(parts))
	for _, part := range parts {
		cursor[part.ID()] = 0
	}

	var layers []*build.GlobalLayer
	for {
		// Find the lowest current plane among parts with steps left.
		var minPart build.PartID
		var minPlane geom.Plane
		minDist := math.Inf(1)
		found := false

		for _, part := range parts {
			i := cursor[part.ID()]
			if i >= part.CountStepPairs() {
				continue
			}

			step := part.StepPair(i).Printing
			plane := step.SlicingPlane().ShiftAlongNormal(step.LayerHeight() / 2)
			dist := plane.DistanceAlong(stacking)

			if !found || dist < minDist {
				found = true
				minPart = part.ID()
				minPlane = plane
				minDist = dist
			}
		}

		// Every cursor has reached its part's step count.
		if !found {
			break
		}

		// Collect every part whose current plane matches the minimum.
		// Recomputing the shifted plane keeps the comparison identical to
		// the search pass, so the minimum always matches itself and the
		// loop is guaranteed to advance.
		layer := build.NewGlobalLayer(len(layers))
		for _, part := range parts {
			i := cursor[part.ID()]
			if i >= part.CountStepPairs() {
				continue
			}

			step := part.StepPair(i).Printing
			plane := step.SlicingPlane().ShiftAlongNormal(step.LayerHeight() / 2)

			if plane.IsEqual(minPlane, tolerance) {
				mustAddStepPair(layer, part.ID(), part.StepPair(i))
				cursor[part.ID()]++
			}
		}

		Tracef("layer %d: dist=%.4fmm anchor=%s parts=%d",
			layer.Index(), minDist, minPart, layer.Count())
		layers = append(layers, layer)
	}

	return layers
}
