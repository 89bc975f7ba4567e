// Package viz renders a run's visual artifacts: the departure-hour histogram
// and the route plot as PNGs via gonum/plot, and the interactive airport map
// as HTML via go-echarts.
package viz

import (
	"fmt"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// DepartureHistogram renders the hour-of-day distribution of departures as a
// 24-bin bar chart PNG. Hours outside 0-23 are ignored.
func DepartureHistogram(hours []int, path string) error {
	bins := make(plotter.Values, 24)
	for _, h := range hours {
		if h < 0 || h > 23 {
			continue
		}
		bins[h]++
	}

	p := plot.New()
	p.Title.Text = "Departure Hour Distribution"
	p.X.Label.Text = "Hour (0-23)"
	p.Y.Label.Text = "Flight Count"
	p.Add(plotter.NewGrid())

	bars, err := plotter.NewBarChart(bins, vg.Points(12))
	if err != nil {
		return fmt.Errorf("failed to build histogram: %w", err)
	}
	bars.Color = plotutil.Color(0)
	p.Add(bars)

	labels := make([]string, len(bins))
	for i := range labels {
		labels[i] = strconv.Itoa(i)
	}
	p.NominalX(labels...)

	if err := p.Save(10*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save histogram: %w", err)
	}
	return nil
}
