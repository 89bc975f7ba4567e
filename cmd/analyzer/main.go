package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"go-flight-analyzer/internal/logging"
	"go-flight-analyzer/internal/model"
	"go-flight-analyzer/internal/pipeline"
	"go-flight-analyzer/internal/store"
	"go-flight-analyzer/pkg/utils"
)

func main() {
	records := flag.String("records", "", "flight records CSV path or URL (required)")
	departures := flag.String("departures", "", "departure times CSV for the hour histogram")
	airports := flag.String("airports", "", "airport coordinates CSV for the route maps")
	workers := flag.Int("workers", 0, "worker count, 0 uses all available CPUs")
	timeout := flag.String("timeout", "5m", "overall run timeout")
	outDir := flag.String("out", utils.EnvOr("ANALYZER_OUTPUT_DIR", "outputs"), "output directory for run artifacts")
	dbPath := flag.String("db", utils.EnvOr("ANALYZER_DB", "analyzer.db"), "sqlite database path")
	logDir := flag.String("log-dir", utils.EnvOr("ANALYZER_LOG_DIR", "Log"), "directory for the process log")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	if *records == "" {
		fmt.Fprintln(os.Stderr, "missing required -records flag")
		flag.Usage()
		os.Exit(2)
	}

	closeLog, err := logging.Setup(*logDir, *debug)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up logging")
	}
	defer closeLog()

	if err := store.InitDB(*dbPath); err != nil {
		log.Fatal().Err(err).Str("db", *dbPath).Msg("failed to initialize database")
	}
	defer store.CloseDB()

	job := model.AnalysisJobSpec{
		Inputs: model.Inputs{
			RecordsPath:        *records,
			DepartureTimesPath: *departures,
			AirportsPath:       *airports,
		},
		Concurrency: model.Concurrency{Workers: *workers, JobTimeout: *timeout},
	}

	runID := uuid.New().String()
	if err := store.SaveRun(runID, job); err != nil {
		log.Fatal().Err(err).Msg("failed to record run")
	}

	outcome, err := pipeline.Run(context.Background(), runID, job, utils.NewOutputManager(*outDir))
	if err != nil {
		log.Fatal().Err(err).Str("runId", runID).Msg("analysis failed")
	}

	fmt.Printf("Run %s completed: %d records aggregated, %d skipped\n", runID, outcome.Records, outcome.Skipped)
	fmt.Printf("Max flights: %d\n", outcome.MaxFlights)
	fmt.Printf("Top passenger ID(s): %s\n", strings.Join(outcome.TopPassengers, ", "))
	if len(outcome.Artifacts) > 0 {
		fmt.Println("Artifacts:")
		for _, a := range outcome.Artifacts {
			fmt.Println("  " + a)
		}
	}
}
