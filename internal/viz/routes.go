package viz

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"go-flight-analyzer/internal/model"
)

// RouteMap renders the given flights as straight longitude/latitude segments
// with endpoint markers. Flights touching an airport with unknown coordinates
// and flights that start where they end are left out, so a partial airport
// list degrades the plot instead of failing it.
func RouteMap(flights []model.Flight, coords map[string]model.Coordinate, path string) error {
	p := plot.New()
	p.Title.Text = "Top Passenger Flight Routes"
	p.X.Label.Text = "Longitude"
	p.Y.Label.Text = "Latitude"
	p.Add(plotter.NewGrid())

	for i, f := range flights {
		from, okFrom := coords[f.Origin]
		to, okTo := coords[f.Destination]
		if !okFrom || !okTo || f.Origin == f.Destination {
			continue
		}

		seg := plotter.XYs{
			{X: from.Lon, Y: from.Lat},
			{X: to.Lon, Y: to.Lat},
		}
		line, points, err := plotter.NewLinePoints(seg)
		if err != nil {
			return fmt.Errorf("failed to build route segment: %w", err)
		}
		line.Color = plotutil.Color(i)
		points.Color = plotutil.Color(i)
		p.Add(line, points)
	}

	if err := p.Save(8*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save route plot: %w", err)
	}
	return nil
}
