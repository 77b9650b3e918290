package scheduler

import "github.com/strataworks/stratum/internal/build"

// scheduleByPart prints the parts sequentially: every step pair of every part
// gets its own global layer, parts in input order, sequence indices
// consecutive from 0.
func (o *Optimizer) scheduleByPart(parts []*build.Part) []*build.GlobalLayer {
	total := 0
	for _, part := range parts {
		total += part.CountStepPairs()
	}

	layers := make([]*build.GlobalLayer, 0, total)
	seq := 0
	for _, part := range parts {
		for s := 0; s < part.CountStepPairs(); s++ {
			layer := build.NewGlobalLayer(seq)
			mustAddStepPair(layer, part.ID(), part.StepPair(s))
			layers = append(layers, layer)
			seq++
		}
	}

	return layers
}
