package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/strataworks/stratum/internal/build"
	"github.com/strataworks/stratum/internal/manifest"
	"github.com/strataworks/stratum/internal/monitor"
	"github.com/strataworks/stratum/internal/plandb"
	"github.com/strataworks/stratum/internal/scheduler"
	"github.com/strataworks/stratum/internal/settings"
)

func runSchedule(cfg *settings.SchedulingConfig, args []string) {
	fs := flag.NewFlagSet("schedule", flag.ExitOnError)
	manifestPath := fs.String("manifest", "", "Build manifest JSON (required)")
	ordering := fs.String("ordering", "", "Override layer ordering (by_height, by_layer_number, by_part)")
	tolerance := fs.Float64("tolerance", -1, "Override grouping tolerance in mm")
	save := fs.Bool("save", false, "Persist the run to the plan database")
	reportPath := fs.String("report", "", "Append the text layer report to this file")
	notes := fs.String("notes", "", "Free-form notes stored with the run")
	fs.Parse(args)

	if *manifestPath == "" {
		log.Fatal("Manifest is required (-manifest build.json)")
	}

	if *ordering != "" {
		o, err := settings.ParseLayerOrdering(*ordering)
		if err != nil {
			log.Fatalf("Invalid ordering: %v", err)
		}
		cfg = cfg.WithOrdering(o)
	}
	if *tolerance >= 0 {
		cfg = cfg.WithGroupingTolerance(*tolerance)
	}

	parts, err := manifest.Load(*manifestPath)
	if err != nil {
		log.Fatalf("Failed to load manifest: %v", err)
	}

	var report scheduler.ReportSink
	if path := reportDestination(*reportPath, cfg); path != "" {
		report = scheduler.FileReport{Path: path}
	}

	opt := scheduler.NewOptimizer(scheduler.OptimizerConfig{Settings: cfg, Report: report})
	layers := opt.PopulateSteps(parts)

	for _, line := range formatLayers(parts, layers) {
		fmt.Println(line)
	}
	total := 0
	for _, p := range parts {
		total += p.CountStepPairs()
	}
	fmt.Printf("scheduled %d step(s) from %d part(s) into %d layer(s) with %s ordering\n",
		total, len(parts), len(layers), cfg.GetLayerOrdering())

	if *save {
		db, err := plandb.NewDB(*dbPath)
		if err != nil {
			log.Fatalf("Failed to connect to plan database: %v", err)
		}
		defer db.Close()

		runID := plandb.NewRunID()
		run := plandb.NewScheduleRun(runID, cfg, len(parts), len(layers), *manifestPath)
		run.Notes = *notes
		if err := db.SaveRun(run, plandb.FlattenSchedule(runID, parts, layers)); err != nil {
			log.Fatalf("Failed to save run: %v", err)
		}
		fmt.Printf("saved run %s\n", runID)
	}
}

// reportDestination prefers the command-line path over the configured one.
func reportDestination(flagPath string, cfg *settings.SchedulingConfig) string {
	if flagPath != "" {
		return flagPath
	}
	return cfg.GetReportPath()
}

// formatLayers renders one line per global layer naming each contributing
// part and its step index. Parts appear in manifest order so output is
// stable.
func formatLayers(parts []*build.Part, layers []*build.GlobalLayer) []string {
	indexOf := make(map[*build.StepPair]int)
	for _, p := range parts {
		for i := 0; i < p.CountStepPairs(); i++ {
			indexOf[p.StepPair(i)] = i
		}
	}
	rank := make(map[build.PartID]int, len(parts))
	for i, p := range parts {
		rank[p.ID()] = i
	}

	lines := make([]string, 0, len(layers))
	for _, layer := range layers {
		pairs := layer.StepPairs()
		ids := make([]build.PartID, 0, len(pairs))
		for id := range pairs {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return rank[ids[i]] < rank[ids[j]] })

		members := make([]string, 0, len(ids))
		for _, id := range ids {
			members = append(members, fmt.Sprintf("%s[%d]", nameOf(parts, id), indexOf[pairs[id]]))
		}
		lines = append(lines, fmt.Sprintf("layer %d: %s", layer.Index(), strings.Join(members, " ")))
	}
	return lines
}

func nameOf(parts []*build.Part, id build.PartID) string {
	for _, p := range parts {
		if p.ID() == id {
			return p.Name()
		}
	}
	return string(id)
}

func runReport(args []string) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	runID := fs.String("run", "", "Run ID to report on (required)")
	fs.Parse(args)

	run, rows := loadRun(*runID)
	fmt.Printf("run %s: %s ordering, %d part(s), %d layer(s), created %s\n",
		run.RunID, run.Ordering, run.PartCount, run.LayerCount,
		run.CreatedAt.Format("2006-01-02 15:04:05"))

	current := -1
	for _, row := range rows {
		if row.LayerIndex != current {
			fmt.Printf("layer %d:\n", row.LayerIndex)
			current = row.LayerIndex
		}
		fmt.Printf("  %s step %d at %.4fmm\n", row.PartName, row.StepIndex, row.DistanceMM)
	}
}

func runChart(args []string) {
	fs := flag.NewFlagSet("chart", flag.ExitOnError)
	runID := fs.String("run", "", "Run ID to chart (required)")
	out := fs.String("o", "timeline.html", "Output HTML file")
	fs.Parse(args)

	run, rows := loadRun(*runID)
	f, err := os.Create(*out)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer f.Close()

	if err := monitor.RenderTimeline(f, run, rows); err != nil {
		log.Fatalf("Failed to render timeline: %v", err)
	}
	fmt.Printf("wrote %s\n", *out)
}

func runProfile(args []string) {
	fs := flag.NewFlagSet("profile", flag.ExitOnError)
	runID := fs.String("run", "", "Run ID to plot (required)")
	out := fs.String("o", "profile.png", "Output PNG file")
	fs.Parse(args)

	run, rows := loadRun(*runID)
	f, err := os.Create(*out)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer f.Close()

	if err := monitor.WriteHeightProfile(f, run, rows); err != nil {
		log.Fatalf("Failed to render height profile: %v", err)
	}
	fmt.Printf("wrote %s\n", *out)
}

func loadRun(runID string) (*plandb.ScheduleRun, []plandb.LayerAssignment) {
	if runID == "" {
		log.Fatal("Run ID is required (-run ID)")
	}

	db, err := plandb.OpenDB(*dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to plan database: %v", err)
	}
	defer db.Close()

	run, rows, err := db.GetRun(runID)
	if err != nil {
		log.Fatalf("Failed to load run: %v", err)
	}
	return run, rows
}
