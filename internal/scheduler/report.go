package scheduler

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/strataworks/stratum/internal/build"
)

// ReportSink receives the finished schedule for diagnostics. Sinks observe
// only; a failing sink is logged and never fails the scheduling call.
type ReportSink interface {
	LogGlobalLayers(layers []*build.GlobalLayer) error
}

// WriteLayerReport writes a text report of every layer's part membership.
// Parts are listed in sorted ID order so the output is stable.
func WriteLayerReport(w io.Writer, layers []*build.GlobalLayer) error {
	if _, err := fmt.Fprint(w, "Logging global layers content:\n"); err != nil {
		return err
	}
	for _, layer := range layers {
		if _, err := fmt.Fprintf(w, "Global Layer %d:\n", layer.Index()); err != nil {
			return err
		}

		pairs := layer.StepPairs()
		ids := make([]build.PartID, 0, len(pairs))
		for id := range pairs {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		for _, id := range ids {
			sp := pairs[id]
			if sp == nil || sp.Printing == nil {
				if _, err := fmt.Fprintf(w, "  Part ID: %s (no printing layer)\n", id); err != nil {
					return err
				}
				continue
			}
			if _, err := fmt.Fprintf(w, "  Part ID: %s plane offset %.4fmm\n",
				id, sp.Printing.SlicingPlane().Offset()); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprint(w, "End of global layers log\n\n")
	return err
}

// FileReport appends the text layer report to a file, creating it when
// missing. The zero value is unusable; set Path.
type FileReport struct {
	Path string
}

// LogGlobalLayers implements ReportSink.
func (r FileReport) LogGlobalLayers(layers []*build.GlobalLayer) error {
	f, err := os.OpenFile(r.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open layer report: %w", err)
	}
	defer f.Close()

	if err := WriteLayerReport(f, layers); err != nil {
		return fmt.Errorf("write layer report: %w", err)
	}
	return nil
}
