// Package scheduler interleaves independently sliced parts into one ordered
// timeline of global layers. It consumes opaque per-part step sequences and
// plane descriptors and hands back global layers for the downstream code
// generator; it never touches toolpath geometry or machine commands.
package scheduler

import (
	"fmt"
	"time"

	"github.com/strataworks/stratum/internal/build"
	"github.com/strataworks/stratum/internal/settings"
)

// OptimizerConfig contains configuration for the Optimizer.
type OptimizerConfig struct {
	Settings *settings.SchedulingConfig // ordering policy, tolerance, stacking direction (default: empty config)
	Report   ReportSink                 // receives the finished schedule after each batch run (default: none)
}

// Optimizer builds the full batch schedule or a single incremental layer of
// newly available steps.
//
// An Optimizer is purely synchronous and holds no state between calls; the
// caller must guarantee exclusive access to the parts for the duration of one
// call. Per-part cursors are local to one ByHeight invocation, never
// remembered across calls.
type Optimizer struct {
	cfg    *settings.SchedulingConfig
	report ReportSink
}

// NewOptimizer creates a new Optimizer with the specified configuration.
func NewOptimizer(config OptimizerConfig) *Optimizer {
	if config.Settings == nil {
		config.Settings = settings.EmptySchedulingConfig()
	}
	return &Optimizer{cfg: config.Settings, report: config.Report}
}

// PopulateStep collects every dirty step pair of every part into one global
// layer. The layer's sequence index is always 0; the caller consumes and
// discards it immediately, so only one incremental layer is ever live. Parts
// with no dirty steps contribute nothing. Dirtiness is read, never cleared;
// clearing belongs to the pipeline owner.
//
// A part presenting more than one dirty step pair violates the one-pair-per-
// part layer invariant and yields an error.
func (o *Optimizer) PopulateStep(parts []*build.Part) (*build.GlobalLayer, error) {
	layer := build.NewGlobalLayer(0)

	for _, part := range parts {
		for _, sp := range part.DirtyStepPairs() {
			if err := layer.AddStepPair(part.ID(), sp); err != nil {
				return nil, fmt.Errorf("populate step: %w", err)
			}
		}
	}

	Tracef("incremental layer: %d part(s) contributed", layer.Count())
	return layer, nil
}

// PopulateSteps builds the full batch schedule for the configured layer
// ordering. Zero parts or parts with zero steps yield an empty or
// correspondingly short schedule, never an error. An unrecognized ordering is
// a programming error and panics before any scheduling work.
//
// Part IDs must be unique across the input; a duplicate violates the
// one-pair-per-part layer invariant and panics.
func (o *Optimizer) PopulateSteps(parts []*build.Part) []*build.GlobalLayer {
	ordering := o.cfg.GetLayerOrdering()

	start := time.Now()
	var layers []*build.GlobalLayer
	switch ordering {
	case settings.ByHeight:
		layers = o.scheduleByHeight(parts)
	case settings.ByLayerNumber:
		layers = o.scheduleByLayerNumber(parts)
	case settings.ByPart:
		layers = o.scheduleByPart(parts)
	default:
		panic(fmt.Sprintf("unsupported layer ordering %q", ordering))
	}

	Diagf("schedule complete: ordering=%s parts=%d layers=%d elapsed=%s",
		ordering, len(parts), len(layers), time.Since(start))

	if o.report != nil {
		if err := o.report.LogGlobalLayers(layers); err != nil {
			Opsf("layer report failed: %v", err)
		}
	}

	return layers
}

// mustAddStepPair adds a pair to a layer during batch scheduling, where a
// duplicate part can only mean duplicate part IDs in the input.
func mustAddStepPair(layer *build.GlobalLayer, part build.PartID, sp *build.StepPair) {
	if err := layer.AddStepPair(part, sp); err != nil {
		panic(err)
	}
}
