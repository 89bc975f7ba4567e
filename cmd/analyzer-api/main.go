package main

import (
	"flag"

	"github.com/rs/zerolog/log"

	"go-flight-analyzer/internal/api"
	"go-flight-analyzer/internal/api/handler"
	"go-flight-analyzer/internal/logging"
	"go-flight-analyzer/internal/store"
	"go-flight-analyzer/pkg/utils"
)

// @title Flight Analyzer API
// @version 1.0
// @description REST API for running and inspecting flight record analyses
// @host localhost:8080
// @BasePath /api/v1
func main() {
	addr := flag.String("addr", utils.EnvOr("ANALYZER_ADDR", ":8080"), "listen address")
	dbPath := flag.String("db", utils.EnvOr("ANALYZER_DB", "analyzer.db"), "sqlite database path")
	outDir := flag.String("out", utils.EnvOr("ANALYZER_OUTPUT_DIR", "outputs"), "output directory for run artifacts")
	logDir := flag.String("log-dir", utils.EnvOr("ANALYZER_LOG_DIR", "Log"), "directory for the process log")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	closeLog, err := logging.Setup(*logDir, *debug)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up logging")
	}
	defer closeLog()

	if err := store.InitDB(*dbPath); err != nil {
		log.Fatal().Err(err).Str("db", *dbPath).Msg("failed to initialize database")
	}
	defer store.CloseDB()

	handler.Outputs = utils.NewOutputManager(*outDir)

	r := api.NewRouter()
	r.Start(*addr)
}
