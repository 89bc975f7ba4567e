package pipeline

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"go-flight-analyzer/internal/ingest"
	"go-flight-analyzer/internal/model"
	"go-flight-analyzer/internal/viz"
	"go-flight-analyzer/pkg/utils"
)

// RenderArtifacts produces the run's visual outputs: the departure-hour
// histogram when a departure-time CSV is configured, and the route PNG plus
// interactive HTML map when an airport CSV is. Inputs the job spec leaves
// blank just skip their artifact. Returns the written paths.
func RenderArtifacts(runID string, job model.AnalysisJobSpec, flights []model.Flight, outputs *utils.OutputManager) ([]string, error) {
	var written []string

	if job.Inputs.DepartureTimesPath != "" {
		hours, err := ingest.DepartureHours(job.Inputs.DepartureTimesPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load departure times: %w", err)
		}
		path, err := outputs.GetOutputFilePath(runID, "departure_histogram.png")
		if err != nil {
			return nil, err
		}
		if err := viz.DepartureHistogram(hours, path); err != nil {
			return nil, err
		}
		recordArtifact(runID, path, outputs)
		written = append(written, path)
	} else {
		log.Debug().Str("run", runID).Msg("no departure-time input, skipping histogram")
	}

	if job.Inputs.AirportsPath != "" {
		coords, err := ingest.LoadAirports(job.Inputs.AirportsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load airports: %w", err)
		}

		routesPath, err := outputs.GetOutputFilePath(runID, "flight_routes.png")
		if err != nil {
			return nil, err
		}
		if err := viz.RouteMap(flights, coords, routesPath); err != nil {
			return nil, err
		}
		recordArtifact(runID, routesPath, outputs)
		written = append(written, routesPath)

		mapPath, err := outputs.GetOutputFilePath(runID, "flight_map.html")
		if err != nil {
			return nil, err
		}
		if err := viz.InteractiveMap(flights, coords, mapPath); err != nil {
			return nil, err
		}
		recordArtifact(runID, mapPath, outputs)
		written = append(written, mapPath)
	} else {
		log.Debug().Str("run", runID).Msg("no airport input, skipping route plots")
	}

	return written, nil
}
