package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/strataworks/stratum/internal/manifest"
	"github.com/strataworks/stratum/internal/timeutil"
)

func followerFixture(t *testing.T) *follower {
	t.Helper()
	parts, err := manifest.Parse([]byte(staircase))
	if err != nil {
		t.Fatalf("failed to parse manifest: %v", err)
	}
	return newFollower(parts, &bytes.Buffer{})
}

func TestFollowerRounds(t *testing.T) {
	f := followerFixture(t)

	// Round 1: both parts contribute their first step.
	if err := f.round(); err != nil {
		t.Fatalf("round 1: %v", err)
	}
	if f.done() {
		t.Fatal("done after one round, want three")
	}

	// Round 2: both again. Round 3: only A has a step left.
	for i := 0; i < 2; i++ {
		if err := f.round(); err != nil {
			t.Fatalf("round %d: %v", i+2, err)
		}
	}
	if !f.done() {
		t.Fatal("not done after three rounds")
	}

	out := f.out.(*bytes.Buffer).String()
	want := []string{
		"round 1: incremental layer with 2 part(s): [A B]",
		"round 2: incremental layer with 2 part(s): [A B]",
		"round 3: incremental layer with 1 part(s): [A]",
	}
	for _, line := range want {
		if !strings.Contains(out, line) {
			t.Errorf("output missing %q:\n%s", line, out)
		}
	}
}

func TestFollowerRunOnMockClock(t *testing.T) {
	f := followerFixture(t)
	clock := timeutil.NewMockClock(time.Unix(1700000000, 0))

	errc := make(chan error, 1)
	go func() { errc <- f.run(context.Background(), clock, time.Second) }()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case err := <-errc:
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if f.rounds != 3 {
				t.Errorf("rounds = %d, want 3", f.rounds)
			}
			out := f.out.(*bytes.Buffer).String()
			if !strings.Contains(out, "all steps replayed in 3 round(s)") {
				t.Errorf("output missing completion line:\n%s", out)
			}
			return
		case <-deadline:
			t.Fatal("run did not finish")
		default:
			clock.Advance(time.Second)
			time.Sleep(time.Millisecond)
		}
	}
}

func TestFollowerRunCancelled(t *testing.T) {
	f := followerFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.run(ctx, timeutil.RealClock{}, time.Hour)
	if err != context.Canceled {
		t.Errorf("run = %v, want context.Canceled", err)
	}
}
