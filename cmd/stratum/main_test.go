package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/strataworks/stratum/internal/build"
	"github.com/strataworks/stratum/internal/manifest"
	"github.com/strataworks/stratum/internal/scheduler"
	"github.com/strataworks/stratum/internal/settings"
)

// staircase is part A with three 1mm layers at 0/1/2mm and part B with two
// 1mm layers at 0/2mm: B skips the middle height.
const staircase = `{
	"parts": [
		{"name": "A", "id": "id-a", "layer_height_mm": 1,
		 "steps": [{"origin_z_mm": 0}, {"origin_z_mm": 1}, {"origin_z_mm": 2}]},
		{"name": "B", "id": "id-b", "layer_height_mm": 1,
		 "steps": [{"origin_z_mm": 0}, {"origin_z_mm": 2}]}
	]
}`

func scheduleFixture(t *testing.T, doc string, ordering settings.LayerOrdering) ([]*build.Part, []*build.GlobalLayer) {
	t.Helper()
	parts, err := manifest.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("failed to parse manifest: %v", err)
	}
	opt := scheduler.NewOptimizer(scheduler.OptimizerConfig{
		Settings: settings.EmptySchedulingConfig().WithOrdering(ordering),
	})
	return parts, opt.PopulateSteps(parts)
}

func TestFormatLayersByHeight(t *testing.T) {
	parts, layers := scheduleFixture(t, staircase, settings.ByHeight)

	want := []string{
		"layer 0: A[0] B[0]",
		"layer 1: A[1]",
		"layer 2: A[2] B[1]",
	}
	if diff := cmp.Diff(want, formatLayers(parts, layers)); diff != "" {
		t.Errorf("by_height layer lines mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatLayersByLayerNumber(t *testing.T) {
	doc := `{
		"parts": [
			{"name": "long", "uniform": {"count": 4, "layer_height_mm": 0.2}},
			{"name": "short", "uniform": {"count": 2, "layer_height_mm": 0.2}}
		]
	}`
	parts, layers := scheduleFixture(t, doc, settings.ByLayerNumber)

	want := []string{
		"layer 0: long[0] short[0]",
		"layer 1: long[1] short[1]",
		"layer 2: long[2]",
		"layer 3: long[3]",
	}
	if diff := cmp.Diff(want, formatLayers(parts, layers)); diff != "" {
		t.Errorf("by_layer_number layer lines mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatLayersByPart(t *testing.T) {
	parts, layers := scheduleFixture(t, staircase, settings.ByPart)

	want := []string{
		"layer 0: A[0]",
		"layer 1: A[1]",
		"layer 2: A[2]",
		"layer 3: B[0]",
		"layer 4: B[1]",
	}
	if diff := cmp.Diff(want, formatLayers(parts, layers)); diff != "" {
		t.Errorf("by_part layer lines mismatch (-want +got):\n%s", diff)
	}
}
