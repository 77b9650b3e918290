// Package main provides a comparison tool for the layer ordering policies.
// It schedules one build manifest under every policy and reports how the
// resulting timelines differ: layer counts, grouping sizes and timings.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/strataworks/stratum/internal/build"
	"github.com/strataworks/stratum/internal/manifest"
	"github.com/strataworks/stratum/internal/scheduler"
	"github.com/strataworks/stratum/internal/settings"
)

// Config holds configuration for the policy comparison.
type Config struct {
	ManifestFile string
	ToleranceMM  float64
	OutputJSON   string
	Verbose      bool
}

// ComparisonResult holds the results of comparing all ordering policies over
// one manifest.
type ComparisonResult struct {
	ManifestFile string                 `json:"manifest_file"`
	PartCount    int                    `json:"part_count"`
	TotalSteps   int                    `json:"total_steps"`
	ToleranceMM  float64                `json:"tolerance_mm"`
	PerPolicy    map[string]PolicyStats `json:"per_policy"`
}

// PolicyStats holds per-policy schedule statistics.
type PolicyStats struct {
	Ordering        string  `json:"ordering"`
	LayerCount      int     `json:"layer_count"`
	MultiPartLayers int     `json:"multi_part_layers"`
	MaxGroupSize    int     `json:"max_group_size"`
	AvgGroupSize    float64 `json:"avg_group_size"`
	ProcessingUs    int64   `json:"processing_us"`
}

func main() {
	cfg := parseFlags()

	if cfg.ManifestFile == "" {
		log.Fatal("Manifest file is required")
	}

	parts, err := manifest.Load(cfg.ManifestFile)
	if err != nil {
		log.Fatalf("Failed to load manifest: %v", err)
	}

	result := runComparison(cfg, parts)

	if cfg.OutputJSON != "" {
		f, err := os.Create(cfg.OutputJSON)
		if err != nil {
			log.Fatalf("Failed to create output file: %v", err)
		}
		defer f.Close()
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			log.Fatalf("Failed to write comparison: %v", err)
		}
		fmt.Printf("wrote %s\n", cfg.OutputJSON)
		return
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		log.Fatalf("Failed to write comparison: %v", err)
	}
}

func parseFlags() Config {
	var cfg Config
	flag.StringVar(&cfg.ManifestFile, "manifest", "", "Build manifest JSON to compare policies over")
	flag.Float64Var(&cfg.ToleranceMM, "tolerance", 0, "Grouping tolerance in mm for by_height")
	flag.StringVar(&cfg.OutputJSON, "o", "", "Write the comparison JSON to this file instead of stdout")
	flag.BoolVar(&cfg.Verbose, "verbose", false, "Log per-policy diagnostics")
	flag.Parse()
	return cfg
}

func runComparison(cfg Config, parts []*build.Part) ComparisonResult {
	if cfg.Verbose {
		scheduler.SetLogWriters(scheduler.LogWriters{Ops: os.Stderr, Diag: os.Stderr})
	} else {
		scheduler.SetLogWriters(scheduler.LogWriters{Ops: os.Stderr})
	}

	total := 0
	for _, p := range parts {
		total += p.CountStepPairs()
	}

	result := ComparisonResult{
		ManifestFile: cfg.ManifestFile,
		PartCount:    len(parts),
		TotalSteps:   total,
		ToleranceMM:  cfg.ToleranceMM,
		PerPolicy:    make(map[string]PolicyStats, len(settings.ValidOrderings)),
	}

	for _, ordering := range settings.ValidOrderings {
		opt := scheduler.NewOptimizer(scheduler.OptimizerConfig{
			Settings: settings.EmptySchedulingConfig().
				WithOrdering(ordering).
				WithGroupingTolerance(cfg.ToleranceMM),
		})

		start := time.Now()
		layers := opt.PopulateSteps(parts)
		elapsed := time.Since(start)

		result.PerPolicy[string(ordering)] = summarize(ordering, layers, elapsed)
	}

	return result
}

func summarize(ordering settings.LayerOrdering, layers []*build.GlobalLayer, elapsed time.Duration) PolicyStats {
	stats := PolicyStats{
		Ordering:     string(ordering),
		LayerCount:   len(layers),
		ProcessingUs: elapsed.Microseconds(),
	}

	grouped := 0
	for _, layer := range layers {
		n := layer.Count()
		grouped += n
		if n > 1 {
			stats.MultiPartLayers++
		}
		if n > stats.MaxGroupSize {
			stats.MaxGroupSize = n
		}
	}
	if len(layers) > 0 {
		stats.AvgGroupSize = float64(grouped) / float64(len(layers))
	}
	return stats
}
