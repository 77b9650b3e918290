package monitor

import (
	"bytes"
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/strataworks/stratum/internal/plandb"
)

// HeightProfilePNG renders scheduled distance against global layer index as a
// PNG, one line per part. Flat segments show layers where a part sat out;
// ByHeight runs produce near-identical lines, ByPart runs produce staircases.
func HeightProfilePNG(run *plandb.ScheduleRun, rows []plandb.LayerAssignment) ([]byte, error) {
	series := buildSeries(rows)

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Height Profile: run %s (%s)", shortID(run.RunID), run.Ordering)
	p.X.Label.Text = "Global layer"
	p.Y.Label.Text = "Distance (mm)"

	colors := generateColors(len(series))

	for i, s := range series {
		pts := make(plotter.XYs, 0, len(s.layers))
		for j := range s.layers {
			pts = append(pts, plotter.XY{X: float64(s.layers[j]), Y: s.dists[j]})
		}
		if len(pts) == 0 {
			continue
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("part %s: %w", s.label, err)
		}
		line.Color = colors[i]
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(s.label, line)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	wt, err := p.WriterTo(10*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return nil, fmt.Errorf("failed to render height profile: %w", err)
	}

	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode height profile: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteHeightProfile renders the height profile and writes it to w.
func WriteHeightProfile(w io.Writer, run *plandb.ScheduleRun, rows []plandb.LayerAssignment) error {
	png, err := HeightProfilePNG(run, rows)
	if err != nil {
		return err
	}
	_, err = w.Write(png)
	return err
}
