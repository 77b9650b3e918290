package build

import "fmt"

// GlobalLayer is one synchronized build iteration: a sequence index plus the
// step pair each participating part contributes. The scheduler creates global
// layers; downstream consumers treat them as read-only.
type GlobalLayer struct {
	index int
	pairs map[PartID]*StepPair
}

// NewGlobalLayer returns an empty layer with the given sequence index.
func NewGlobalLayer(index int) *GlobalLayer {
	return &GlobalLayer{index: index, pairs: make(map[PartID]*StepPair)}
}

// Index returns the layer's position in the schedule, counted from 0.
func (g *GlobalLayer) Index() int { return g.index }

// AddStepPair records the step pair the part contributes to this layer. A
// part contributes at most once per layer; a second insert for the same part
// is an error and leaves the layer unchanged.
func (g *GlobalLayer) AddStepPair(part PartID, sp *StepPair) error {
	if _, ok := g.pairs[part]; ok {
		return fmt.Errorf("part %s already has a step pair in global layer %d", part, g.index)
	}
	g.pairs[part] = sp
	return nil
}

// StepPairs returns the layer's part-to-step mapping. Callers must not mutate
// it.
func (g *GlobalLayer) StepPairs() map[PartID]*StepPair { return g.pairs }

// Count returns how many parts contribute to this layer.
func (g *GlobalLayer) Count() int { return len(g.pairs) }
