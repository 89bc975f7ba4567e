package viz

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"go-flight-analyzer/internal/model"
)

// InteractiveMap renders the airports visited on the given flights as an
// effect-scatter world map, each point weighted by its visit count. The geo
// chart draws point series only, so the route segments themselves live in
// the static PNG from RouteMap while this map shows where the top passengers
// touched down.
func InteractiveMap(flights []model.Flight, coords map[string]model.Coordinate, path string) error {
	visits := make(map[string]int)
	var order []string
	for _, f := range flights {
		_, okFrom := coords[f.Origin]
		_, okTo := coords[f.Destination]
		if !okFrom || !okTo || f.Origin == f.Destination {
			continue
		}
		for _, code := range []string{f.Origin, f.Destination} {
			if _, seen := visits[code]; !seen {
				order = append(order, code)
			}
			visits[code]++
		}
	}

	data := make([]opts.GeoData, 0, len(order))
	for _, code := range order {
		c := coords[code]
		data = append(data, opts.GeoData{
			Name:  code,
			Value: []float64{c.Lon, c.Lat, float64(visits[code])},
		})
	}

	geo := charts.NewGeo()
	geo.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Top Passenger Flight Map"}),
		charts.WithGeoComponentOpts(opts.GeoComponent{Map: "world"}),
	)
	geo.AddSeries("airports", types.ChartEffectScatter, data)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create map file: %w", err)
	}
	defer f.Close()

	if err := geo.Render(f); err != nil {
		return fmt.Errorf("failed to render map: %w", err)
	}
	return nil
}
