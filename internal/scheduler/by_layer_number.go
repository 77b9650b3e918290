package scheduler

import "github.com/strataworks/stratum/internal/build"

// scheduleByLayerNumber zips the parts together step index by step index:
// global layer i holds step i of every part that has one. Parts with fewer
// steps stop contributing once exhausted.
func (o *Optimizer) scheduleByLayerNumber(parts []*build.Part) []*build.GlobalLayer {
	maxSteps := 0
	for _, part := range parts {
		if n := part.CountStepPairs(); n > maxSteps {
			maxSteps = n
		}
	}

	layers := make([]*build.GlobalLayer, 0, maxSteps)
	for step := 0; step < maxSteps; step++ {
		layer := build.NewGlobalLayer(step)

		for _, part := range parts {
			if step < part.CountStepPairs() {
				mustAddStepPair(layer, part.ID(), part.StepPair(step))
			}
		}

		layers = append(layers, layer)
	}

	return layers
}
