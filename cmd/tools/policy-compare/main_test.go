package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/strataworks/stratum/internal/manifest"
)

func TestRunComparison(t *testing.T) {
	parts, err := manifest.Parse([]byte(`{
		"parts": [
			{"name": "A", "uniform": {"count": 3, "layer_height_mm": 1}},
			{"name": "B", "uniform": {"count": 2, "layer_height_mm": 1}}
		]
	}`))
	if err != nil {
		t.Fatalf("failed to parse manifest: %v", err)
	}

	got := runComparison(Config{ManifestFile: "fixture.json"}, parts)

	want := ComparisonResult{
		ManifestFile: "fixture.json",
		PartCount:    2,
		TotalSteps:   5,
		PerPolicy: map[string]PolicyStats{
			"by_height": {
				Ordering:        "by_height",
				LayerCount:      3,
				MultiPartLayers: 2,
				MaxGroupSize:    2,
				AvgGroupSize:    5.0 / 3.0,
			},
			"by_layer_number": {
				Ordering:        "by_layer_number",
				LayerCount:      3,
				MultiPartLayers: 2,
				MaxGroupSize:    2,
				AvgGroupSize:    5.0 / 3.0,
			},
			"by_part": {
				Ordering:     "by_part",
				LayerCount:   5,
				MaxGroupSize: 1,
				AvgGroupSize: 1,
			},
		},
	}

	ignoreTimings := cmpopts.IgnoreFields(PolicyStats{}, "ProcessingUs")
	if diff := cmp.Diff(want, got, ignoreTimings); diff != "" {
		t.Errorf("comparison mismatch (-want +got):\n%s", diff)
	}
}
