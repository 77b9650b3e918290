package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/strataworks/stratum/internal/build"
	"github.com/strataworks/stratum/internal/manifest"
	"github.com/strataworks/stratum/internal/scheduler"
	"github.com/strataworks/stratum/internal/timeutil"
)

func runFollow(args []string) {
	fs := flag.NewFlagSet("follow", flag.ExitOnError)
	manifestPath := fs.String("manifest", "", "Build manifest JSON (required)")
	interval := fs.Duration("interval", 500*time.Millisecond, "Delay between simulated slicing rounds")
	fs.Parse(args)

	if *manifestPath == "" {
		log.Fatal("Manifest is required (-manifest build.json)")
	}

	parts, err := manifest.Load(*manifestPath)
	if err != nil {
		log.Fatalf("Failed to load manifest: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	f := newFollower(parts, os.Stdout)
	if err := f.run(ctx, timeutil.RealClock{}, *interval); err != nil && err != context.Canceled {
		log.Fatalf("Follow failed: %v", err)
	}
}

// follower replays fully sliced manifest parts through the incremental
// scheduler as if slicing were still in progress: each round one more step
// of every unfinished part "arrives", and the round's dirty steps become one
// incremental global layer.
type follower struct {
	source []*build.Part
	live   []*build.Part
	next   map[build.PartID]int
	opt    *scheduler.Optimizer
	out    io.Writer
	rounds int
}

func newFollower(parts []*build.Part, out io.Writer) *follower {
	f := &follower{
		source: parts,
		next:   make(map[build.PartID]int, len(parts)),
		opt:    scheduler.NewOptimizer(scheduler.OptimizerConfig{}),
		out:    out,
	}
	for _, p := range parts {
		f.live = append(f.live, build.RestorePart(p.ID(), p.Name()))
		f.next[p.ID()] = 0
	}
	return f
}

// done reports whether every source step has been replayed.
func (f *follower) done() bool {
	for _, p := range f.source {
		if f.next[p.ID()] < p.CountStepPairs() {
			return false
		}
	}
	return true
}

// round appends the next step of every unfinished part, collects the round's
// dirty steps into one incremental layer, and prints its membership. The
// dirty marks are cleared afterwards, as the pipeline owner would.
func (f *follower) round() error {
	for i, p := range f.source {
		n := f.next[p.ID()]
		if n >= p.CountStepPairs() {
			continue
		}
		step := p.StepPair(n).Printing
		f.live[i].AppendStep(step.SlicingPlane(), step.LayerHeight())
		f.next[p.ID()] = n + 1
	}

	layer, err := f.opt.PopulateStep(f.live)
	if err != nil {
		return err
	}

	f.rounds++
	members := make([]string, 0, layer.Count())
	for id := range layer.StepPairs() {
		members = append(members, nameOf(f.source, id))
	}
	sort.Strings(members)
	fmt.Fprintf(f.out, "round %d: incremental layer with %d part(s): %v\n", f.rounds, layer.Count(), members)

	for _, p := range f.live {
		p.TakeDirtyStepPairs()
	}
	return nil
}

// run replays rounds on the clock's ticker until every step has arrived or
// the context is cancelled.
func (f *follower) run(ctx context.Context, clock timeutil.Clock, interval time.Duration) error {
	ticker := clock.NewTicker(interval)
	defer ticker.Stop()

	for !f.done() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
			if err := f.round(); err != nil {
				return err
			}
		}
	}

	fmt.Fprintf(f.out, "all steps replayed in %d round(s)\n", f.rounds)
	return nil
}
