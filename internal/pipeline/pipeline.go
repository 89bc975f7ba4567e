// Package pipeline orchestrates one analysis run end to end: ingest the
// record CSV, aggregate it through the mapreduce engine, pick the top
// passengers, export the summary files and render the visual artifacts.
// Every stage transition is recorded in the run store.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/rs/zerolog/log"

	"go-flight-analyzer/internal/ingest"
	"go-flight-analyzer/internal/mapreduce"
	"go-flight-analyzer/internal/model"
	"go-flight-analyzer/internal/store"
	"go-flight-analyzer/pkg/utils"
)

// Outcome is what a finished run hands back to its caller.
type Outcome struct {
	RunID         string
	MaxFlights    int
	TopPassengers []string
	Passengers    []string // first-seen order, for ordered exports
	Counts        map[string]int
	Records       int
	Skipped       int // ingest-rejected plus combiner-skipped
	Chunks        int
	Artifacts     []string
}

// Run executes an analysis run reading records from the CSV source named in
// the job spec.
func Run(ctx context.Context, runID string, job model.AnalysisJobSpec, outputs *utils.OutputManager) (*Outcome, error) {
	return RunWithSource(ctx, runID, job, ingest.CSVSource{Path: job.Inputs.RecordsPath}, outputs)
}

// RunWithSource executes an analysis run against an arbitrary record source.
// Any stage failure aborts the run, marks it failed in the store and records
// the error; a run cut short by cancellation is marked cancelled instead.
func RunWithSource(ctx context.Context, runID string, job model.AnalysisJobSpec, src ingest.RecordSource, outputs *utils.OutputManager) (outcome *Outcome, err error) {
	start := time.Now()
	log.Info().Str("run", runID).Msg("starting analysis run")

	store.UpdateRunStatus(runID, "running")

	defer func() {
		if err != nil {
			status := "failed"
			if errors.Is(err, context.Canceled) {
				status = "cancelled"
			}
			store.UpdateRunStatus(runID, status)
			store.SaveRunError(runID, err)
			log.Error().Err(err).Str("run", runID).Msg("analysis run aborted")
		}
	}()

	timeout := utils.ParseDuration(job.Concurrency.JobTimeout, 5*time.Minute)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// --- INGESTION STAGE ---
	store.UpdateRunStatus(runID, "ingesting")
	store.SaveStageProgress(runID, "ingestion", "started", "")

	records, rejected, err := src.Load(ctx)
	if err != nil {
		store.SaveStageProgress(runID, "ingestion", "failed", err.Error())
		return nil, fmt.Errorf("ingestion failed: %w", err)
	}
	store.SaveStageProgress(runID, "ingestion", "completed",
		fmt.Sprintf("%d records, %d rejected", len(records), rejected))
	store.SaveRunLog(runID, "info", fmt.Sprintf("ingested %d records (%d rejected)", len(records), rejected))

	// --- AGGREGATION STAGE ---
	store.UpdateRunStatus(runID, "aggregating")
	store.SaveStageProgress(runID, "aggregation", "started", "")

	workers := job.Concurrency.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}

	res, err := mapreduce.Run(ctx, records, workers)
	if err != nil {
		store.SaveStageProgress(runID, "aggregation", "failed", err.Error())
		return nil, fmt.Errorf("aggregation failed: %w", err)
	}
	skipped := rejected + res.Skipped
	store.SaveStageProgress(runID, "aggregation", "completed",
		fmt.Sprintf("%d flights over %d chunks, %d skipped", res.Records, res.Chunks, res.Skipped))
	store.SaveRunLog(runID, "info", fmt.Sprintf("aggregated %d flights for %d passengers",
		res.Records, res.Aggregate.Len()))

	// --- SELECTION STAGE ---
	store.SaveStageProgress(runID, "selection", "started", "")

	top, err := mapreduce.TopPassengers(res.Aggregate)
	if err != nil {
		store.SaveStageProgress(runID, "selection", "failed", err.Error())
		return nil, fmt.Errorf("top-passenger selection failed: %w", err)
	}
	store.SaveStageProgress(runID, "selection", "completed",
		fmt.Sprintf("max %d flights, %d passenger(s)", top.MaxFlights, len(top.Passengers)))
	log.Info().Str("run", runID).Int("maxFlights", top.MaxFlights).
		Strs("passengers", top.Passengers).Msg("top passengers selected")

	store.SaveRunResult(runID, top.MaxFlights, top.Passengers, res.Records, skipped, res.Chunks)
	store.SavePassengerCounts(runID, res.Aggregate.Passengers(), res.Aggregate.Counts())

	outcome = &Outcome{
		RunID:         runID,
		MaxFlights:    top.MaxFlights,
		TopPassengers: top.Passengers,
		Passengers:    res.Aggregate.Passengers(),
		Counts:        res.Aggregate.Counts(),
		Records:       res.Records,
		Skipped:       skipped,
		Chunks:        res.Chunks,
	}

	// --- EXPORT STAGE ---
	store.UpdateRunStatus(runID, "exporting")
	store.SaveStageProgress(runID, "export", "started", "")

	exported, err := Export(runID, outcome, outputs)
	if err != nil {
		store.SaveStageProgress(runID, "export", "failed", err.Error())
		return nil, fmt.Errorf("export failed: %w", err)
	}
	outcome.Artifacts = append(outcome.Artifacts, exported...)
	store.SaveStageProgress(runID, "export", "completed",
		fmt.Sprintf("%d files", len(exported)))

	// --- RENDER STAGE ---
	store.UpdateRunStatus(runID, "rendering")
	store.SaveStageProgress(runID, "render", "started", "")

	rendered, err := RenderArtifacts(runID, job, topFlights(res.Aggregate, top.Passengers), outputs)
	if err != nil {
		store.SaveStageProgress(runID, "render", "failed", err.Error())
		return nil, fmt.Errorf("render failed: %w", err)
	}
	outcome.Artifacts = append(outcome.Artifacts, rendered...)
	store.SaveStageProgress(runID, "render", "completed",
		fmt.Sprintf("%d files", len(rendered)))

	store.UpdateRunStatus(runID, "completed")
	log.Info().Str("run", runID).Dur("duration", time.Since(start)).
		Int("artifacts", len(outcome.Artifacts)).Msg("analysis run completed")
	return outcome, nil
}

// topFlights collects the flights of the top passengers, in top order, for
// the route renderers.
func topFlights(agg *mapreduce.Aggregate, top []string) []model.Flight {
	var flights []model.Flight
	for _, pid := range top {
		if stats, ok := agg.Stats(pid); ok {
			flights = append(flights, stats.Flights...)
		}
	}
	return flights
}

// recordArtifact registers one generated file with the run store so the API
// can list and serve it.
func recordArtifact(runID, path string, outputs *utils.OutputManager) {
	name := filepath.Base(path)
	size, err := outputs.GetFileSize(path)
	if err != nil {
		log.Warn().Err(err).Str("file", path).Msg("could not stat artifact")
		return
	}
	store.SaveOutputFile(runID, name, outputs.GetFileType(name), size, path,
		outputs.GetDownloadURL(runID, name))
}
