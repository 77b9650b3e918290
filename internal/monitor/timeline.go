package monitor

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/strataworks/stratum/internal/plandb"
)

// RenderTimeline writes an HTML scatter chart of one schedule run: X is the
// global layer index, Y is the layer-center distance along the stacking
// direction, one series per part. Parts that share a layer line up
// vertically, which makes the grouping behaviour of the run visible at a
// glance.
func RenderTimeline(w io.Writer, run *plandb.ScheduleRun, rows []plandb.LayerAssignment) error {
	series := buildSeries(rows)

	maxLayer := 0
	maxDist := 0.0
	for _, s := range series {
		for i := range s.layers {
			if s.layers[i] > maxLayer {
				maxLayer = s.layers[i]
			}
			if s.dists[i] > maxDist {
				maxDist = s.dists[i]
			}
		}
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Schedule Timeline", Theme: "dark", Width: "1200px", Height: "700px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Global Layer Timeline",
			Subtitle: fmt.Sprintf("run=%s ordering=%s parts=%d layers=%d", run.RunID, run.Ordering, run.PartCount, run.LayerCount),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -0.5, Max: float64(maxLayer) + 0.5, Name: "Global layer", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: maxDist * 1.05, Name: "Distance (mm)", NameLocation: "middle", NameGap: 40}),
	)

	for _, s := range series {
		data := make([]opts.ScatterData, 0, len(s.layers))
		for i := range s.layers {
			data = append(data, opts.ScatterData{Value: []interface{}{s.layers[i], s.dists[i]}})
		}
		scatter.AddSeries(s.label, data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 10}))
	}

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		return fmt.Errorf("failed to render timeline chart: %w", err)
	}

	_, err := w.Write(buf.Bytes())
	return err
}
