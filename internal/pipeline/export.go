package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"

	"go-flight-analyzer/pkg/utils"
)

// Summary mirrors the JSON summary document written for every run.
type Summary struct {
	MaxFlights    int            `json:"max_flights"`
	TopPassengers []string       `json:"top_passengers"`
	Counts        map[string]int `json:"counts"`
}

// Export writes the run's tabular outputs, summary.json and
// passenger_counts.csv, into the run's output directory and registers them
// with the store. Returns the written paths.
func Export(runID string, outcome *Outcome, outputs *utils.OutputManager) ([]string, error) {
	summaryPath, err := exportSummary(runID, Summary{
		MaxFlights:    outcome.MaxFlights,
		TopPassengers: outcome.TopPassengers,
		Counts:        outcome.Counts,
	}, outputs)
	if err != nil {
		return nil, err
	}
	recordArtifact(runID, summaryPath, outputs)

	countsPath, err := exportCounts(runID, outcome.Passengers, outcome.Counts, outputs)
	if err != nil {
		return nil, err
	}
	recordArtifact(runID, countsPath, outputs)

	log.Info().Str("run", runID).Str("summary", summaryPath).Msg("run outputs exported")
	return []string{summaryPath, countsPath}, nil
}

func exportSummary(runID string, summary Summary, outputs *utils.OutputManager) (string, error) {
	path, err := outputs.GetOutputFilePath(runID, "summary.json")
	if err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write summary: %w", err)
	}
	return path, nil
}

// exportCounts writes one row per passenger in first-seen order, so the file
// is identical across reruns of the same input.
func exportCounts(runID string, passengers []string, counts map[string]int, outputs *utils.OutputManager) (string, error) {
	path, err := outputs.GetOutputFilePath(runID, "passenger_counts.csv")
	if err != nil {
		return "", err
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create counts file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"passenger_id", "flight_count"}); err != nil {
		return "", err
	}
	for _, pid := range passengers {
		if err := w.Write([]string{pid, strconv.Itoa(counts[pid])}); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to write counts: %w", err)
	}
	return path, nil
}
