package viz

import (
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go-flight-analyzer/internal/model"
)

var testCoords = map[string]model.Coordinate{
	"LHR": {Lat: 51.4775, Lon: -0.461389},
	"JFK": {Lat: 40.639722, Lon: -73.778889},
	"CDG": {Lat: 49.009722, Lon: 2.547778},
}

var testFlights = []model.Flight{
	{FlightID: "F1", Origin: "LHR", Destination: "JFK"},
	{FlightID: "F2", Origin: "JFK", Destination: "CDG"},
	{FlightID: "F3", Origin: "CDG", Destination: "LHR"},
}

func decodePNG(t *testing.T, path string) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	if _, err := png.DecodeConfig(f); err != nil {
		t.Fatalf("%s is not a valid PNG: %v", path, err)
	}
}

func TestDepartureHistogramWritesPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "departure_histogram.png")
	hours := []int{0, 0, 7, 13, 13, 13, 22, -1, 24}

	if err := DepartureHistogram(hours, path); err != nil {
		t.Fatalf("DepartureHistogram: %v", err)
	}
	decodePNG(t, path)
}

func TestDepartureHistogramNoHours(t *testing.T) {
	path := filepath.Join(t.TempDir(), "departure_histogram.png")
	if err := DepartureHistogram(nil, path); err != nil {
		t.Fatalf("DepartureHistogram: %v", err)
	}
	decodePNG(t, path)
}

func TestRouteMapWritesPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flight_routes.png")
	if err := RouteMap(testFlights, testCoords, path); err != nil {
		t.Fatalf("RouteMap: %v", err)
	}
	decodePNG(t, path)
}

func TestRouteMapSkipsUndrawableFlights(t *testing.T) {
	flights := []model.Flight{
		{FlightID: "F1", Origin: "XXX", Destination: "JFK"}, // unknown origin
		{FlightID: "F2", Origin: "LHR", Destination: "LHR"}, // zero-length
	}
	path := filepath.Join(t.TempDir(), "flight_routes.png")
	if err := RouteMap(flights, testCoords, path); err != nil {
		t.Fatalf("RouteMap: %v", err)
	}
	decodePNG(t, path)
}

func TestInteractiveMapWritesHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flight_map.html")
	if err := InteractiveMap(testFlights, testCoords, path); err != nil {
		t.Fatalf("InteractiveMap: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read map: %v", err)
	}
	html := string(data)
	if !strings.Contains(html, "echarts") {
		t.Error("map HTML does not reference echarts")
	}
	if !strings.Contains(html, "LHR") {
		t.Error("map HTML does not contain the visited airports")
	}
}
