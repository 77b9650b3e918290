// Package monitor renders persisted schedule runs for humans: an interactive
// echarts timeline (HTML) and a static height-profile plot (PNG). Both read
// the flattened assignment rows stored by plandb, so they work on any saved
// run without re-running the scheduler.
package monitor

import (
	"fmt"
	"image/color"
	"sort"

	"github.com/strataworks/stratum/internal/plandb"
)

// partSeries is one part's assignments in layer order, ready to plot.
type partSeries struct {
	partID string
	label  string
	layers []int
	dists  []float64
}

// buildSeries groups assignment rows by part. Series are sorted by label so
// legends are stable; duplicate part names get a short id suffix.
func buildSeries(rows []plandb.LayerAssignment) []partSeries {
	byPart := make(map[string]*partSeries)
	var order []string
	for _, row := range rows {
		s, ok := byPart[row.PartID]
		if !ok {
			s = &partSeries{partID: row.PartID, label: row.PartName}
			if s.label == "" {
				s.label = shortID(row.PartID)
			}
			byPart[row.PartID] = s
			order = append(order, row.PartID)
		}
		s.layers = append(s.layers, row.LayerIndex)
		s.dists = append(s.dists, row.DistanceMM)
	}

	seen := make(map[string]int)
	series := make([]partSeries, 0, len(order))
	for _, id := range order {
		s := byPart[id]
		seen[s.label]++
		if seen[s.label] > 1 {
			s.label = fmt.Sprintf("%s (%s)", s.label, shortID(s.partID))
		}
		series = append(series, *s)
	}

	sort.Slice(series, func(i, j int) bool { return series[i].label < series[j].label })
	return series
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// generateColors creates a palette of distinct colors for part lines
func generateColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}

	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		hue := float64(i) / float64(n)
		r, g, b := hslToRGB(hue, 0.7, 0.5)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// hslToRGB converts HSL to RGB (0-255 range)
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var rf, gf, bf float64

	if s == 0 {
		rf, gf, bf = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q
		rf = hueToRGB(p, q, h+1.0/3.0)
		gf = hueToRGB(p, q, h)
		bf = hueToRGB(p, q, h-1.0/3.0)
	}

	return uint8(rf * 255), uint8(gf * 255), uint8(bf * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	if t < 1.0/6.0 {
		return p + (q-p)*6*t
	}
	if t < 1.0/2.0 {
		return q
	}
	if t < 2.0/3.0 {
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}
