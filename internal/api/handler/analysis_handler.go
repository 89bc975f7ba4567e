package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"go-flight-analyzer/internal/model"
	"go-flight-analyzer/internal/pipeline"
	"go-flight-analyzer/internal/store"
	"go-flight-analyzer/pkg/utils"
)

// Outputs resolves where run artifacts are written. Main replaces it at
// startup when a custom output directory is configured.
var Outputs = utils.NewOutputManager("outputs")

// running tracks the cancel function of every in-flight run.
var running sync.Map

func launchRun(runID string, job model.AnalysisJobSpec) {
	ctx, cancel := context.WithCancel(context.Background())
	running.Store(runID, cancel)

	go func() {
		defer cancel()
		defer running.Delete(runID)
		if _, err := pipeline.Run(ctx, runID, job, Outputs); err != nil {
			log.Error().Err(err).Str("run", runID).Msg("analysis run failed")
		}
	}()
}

// runIDFromPath extracts the run id between prefix and suffix, e.g. the id
// in /api/v1/analyses/{id}/logs.
func runIDFromPath(path, suffix string) (string, bool) {
	const prefix = "/api/v1/analyses/"
	if !strings.HasPrefix(path, prefix) || !strings.HasSuffix(path, suffix) {
		return "", false
	}
	runID := path[len(prefix) : len(path)-len(suffix)]
	return runID, runID != ""
}

// CreateAnalysis creates a new analysis run
// @Summary Create a new analysis
// @Description Create and start a new flight analysis run with the provided configuration
// @Tags analyses
// @Accept json
// @Produce json
// @Param analysis body model.AnalysisJobSpec true "Analysis configuration"
// @Success 200 {object} map[string]interface{} "Analysis created successfully"
// @Failure 400 {object} map[string]interface{} "Invalid request payload"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /analyses [post]
func CreateAnalysis(w http.ResponseWriter, r *http.Request) {
	var job model.AnalysisJobSpec
	if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	// 1. Validate payload
	if job.Inputs.RecordsPath == "" {
		http.Error(w, "A flight records input is required", http.StatusBadRequest)
		return
	}
	if job.Concurrency.Workers < 0 {
		http.Error(w, "Worker count must not be negative", http.StatusBadRequest)
		return
	}

	// 2. Generate run ID
	runID := uuid.New().String()

	// 3. Save run to DB
	if err := store.SaveRun(runID, job); err != nil {
		http.Error(w, "Failed to save run", http.StatusInternalServerError)
		return
	}

	// 4. Start the analysis asynchronously
	launchRun(runID, job)

	// 5. Return response
	resp := map[string]interface{}{
		"message":   "Analysis created successfully!",
		"runID":     runID,
		"status":    "pending",
		"createdAt": time.Now().UTC(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// ListAnalyses retrieves all analysis runs
// @Summary List all analyses
// @Description Get a list of all analysis runs with their current status
// @Tags analyses
// @Accept json
// @Produce json
// @Success 200 {array} map[string]interface{} "List of analyses"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /analyses [get]
func ListAnalyses(w http.ResponseWriter, r *http.Request) {
	runs, err := store.ListRuns()
	if err != nil {
		http.Error(w, "Failed to fetch analyses", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(runs)
}

// GetAnalysis retrieves a specific analysis run
// @Summary Get analysis
// @Description Retrieve details of a specific analysis run
// @Tags analyses
// @Accept json
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{} "Analysis details"
// @Failure 400 {object} map[string]interface{} "Invalid run ID"
// @Failure 404 {object} map[string]interface{} "Analysis not found"
// @Router /analyses/{id} [get]
func GetAnalysis(w http.ResponseWriter, r *http.Request) {
	runID, ok := runIDFromPath(r.URL.Path, "")
	if !ok {
		http.Error(w, "Run ID is required", http.StatusBadRequest)
		return
	}

	run, err := store.GetRun(runID)
	if err != nil {
		http.Error(w, "Analysis not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(run)
}

// GetAnalysisErrors retrieves errors for an analysis run
// @Summary Get analysis errors
// @Description Retrieve all errors recorded while the analysis ran
// @Tags analyses
// @Accept json
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{} "Analysis errors"
// @Failure 400 {object} map[string]interface{} "Invalid run ID"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /analyses/{id}/errors [get]
func GetAnalysisErrors(w http.ResponseWriter, r *http.Request) {
	runID, ok := runIDFromPath(r.URL.Path, "/errors")
	if !ok {
		http.Error(w, "Run ID is required", http.StatusBadRequest)
		return
	}

	errs, err := store.GetRunErrors(runID)
	if err != nil {
		http.Error(w, "Failed to retrieve errors", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"run_id": runID,
		"errors": errs,
		"count":  len(errs),
	})
}

// GetAnalysisResult retrieves the aggregation outcome of an analysis run
// @Summary Get analysis result
// @Description Retrieve the top passengers and run accounting for a finished analysis
// @Tags analyses
// @Accept json
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{} "Analysis result"
// @Failure 400 {object} map[string]interface{} "Invalid run ID"
// @Failure 404 {object} map[string]interface{} "No result recorded"
// @Router /analyses/{id}/result [get]
func GetAnalysisResult(w http.ResponseWriter, r *http.Request) {
	runID, ok := runIDFromPath(r.URL.Path, "/result")
	if !ok {
		http.Error(w, "Run ID is required", http.StatusBadRequest)
		return
	}

	result, err := store.GetRunResult(runID)
	if err != nil {
		http.Error(w, "No result recorded for this analysis", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// GET /api/v1/analyses/{id}/counts
func GetAnalysisCounts(w http.ResponseWriter, r *http.Request) {
	runID, ok := runIDFromPath(r.URL.Path, "/counts")
	if !ok {
		http.Error(w, "Run ID is required", http.StatusBadRequest)
		return
	}

	counts, err := store.GetPassengerCounts(runID)
	if err != nil {
		http.Error(w, "Failed to retrieve counts", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"run_id": runID,
		"counts": counts,
		"count":  len(counts),
	})
}

// GET /api/v1/analyses/{id}/logs
func GetAnalysisLogs(w http.ResponseWriter, r *http.Request) {
	runID, ok := runIDFromPath(r.URL.Path, "/logs")
	if !ok {
		http.Error(w, "Run ID is required", http.StatusBadRequest)
		return
	}

	limit := 100 // default
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
			limit = parsedLimit
		}
	}

	logs, err := store.GetRunLogs(runID, limit)
	if err != nil {
		http.Error(w, "Failed to retrieve logs", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"run_id": runID,
		"logs":   logs,
		"count":  len(logs),
		"limit":  limit,
	})
}

// GET /api/v1/analyses/{id}/progress
func GetAnalysisProgress(w http.ResponseWriter, r *http.Request) {
	runID, ok := runIDFromPath(r.URL.Path, "/progress")
	if !ok {
		http.Error(w, "Run ID is required", http.StatusBadRequest)
		return
	}

	progress, err := store.GetStageProgress(runID)
	if err != nil {
		http.Error(w, "Failed to retrieve progress", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"run_id":   runID,
		"progress": progress,
		"count":    len(progress),
	})
}

// RetryAnalysis restarts an analysis run with its stored configuration
// @Summary Retry analysis
// @Description Re-run an analysis with the same configuration it was submitted with
// @Tags analyses
// @Accept json
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{} "Retry initiated"
// @Failure 400 {object} map[string]interface{} "Run is still in flight"
// @Failure 404 {object} map[string]interface{} "Analysis not found"
// @Router /analyses/{id}/retry [post]
func RetryAnalysis(w http.ResponseWriter, r *http.Request) {
	runID, ok := runIDFromPath(r.URL.Path, "/retry")
	if !ok {
		http.Error(w, "Run ID is required", http.StatusBadRequest)
		return
	}

	spec, err := store.GetRunSpec(runID)
	if err != nil {
		http.Error(w, "Analysis not found", http.StatusNotFound)
		return
	}

	if _, inFlight := running.Load(runID); inFlight {
		http.Error(w, "Analysis is still running", http.StatusBadRequest)
		return
	}

	store.UpdateRunStatus(runID, "pending")
	launchRun(runID, spec)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Retry initiated",
		"run_id":  runID,
		"status":  "retrying",
	})
}

// CancelAnalysis cancels a running analysis
// @Summary Cancel analysis
// @Description Cancel an in-flight analysis run
// @Tags analyses
// @Accept json
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{} "Analysis cancelled"
// @Failure 400 {object} map[string]interface{} "Invalid run ID or status"
// @Failure 404 {object} map[string]interface{} "Analysis not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /analyses/{id}/cancel [patch]
func CancelAnalysis(w http.ResponseWriter, r *http.Request) {
	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(pathParts) < 4 {
		http.Error(w, "Invalid URL format", http.StatusBadRequest)
		return
	}
	runID := pathParts[3]

	run, err := store.GetRun(runID)
	if err != nil {
		http.Error(w, "Analysis not found", http.StatusNotFound)
		return
	}

	status, ok := run["status"].(string)
	if !ok {
		http.Error(w, "Invalid run status", http.StatusInternalServerError)
		return
	}
	if status == "completed" || status == "failed" || status == "cancelled" {
		http.Error(w, fmt.Sprintf("Analysis is already %s and cannot be cancelled", status), http.StatusBadRequest)
		return
	}

	// Cancel the live context when the run is in flight; a pending run that
	// never started just gets its status flipped.
	if cancel, inFlight := running.Load(runID); inFlight {
		cancel.(context.CancelFunc)()
	} else if err := store.UpdateRunStatus(runID, "cancelled"); err != nil {
		http.Error(w, "Failed to cancel analysis", http.StatusInternalServerError)
		return
	}

	store.SaveRunLog(runID, "info", "analysis cancelled by user")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Analysis cancelled successfully",
		"run_id":  runID,
		"status":  "cancelled",
	})
}

// DeleteAnalysis deletes an analysis run and its artifacts
// @Summary Delete analysis
// @Description Delete an analysis run and all its associated files and data
// @Tags analyses
// @Accept json
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{} "Analysis deleted"
// @Failure 400 {object} map[string]interface{} "Invalid run ID"
// @Failure 404 {object} map[string]interface{} "Analysis not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /analyses/{id} [delete]
func DeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(pathParts) < 4 {
		http.Error(w, "Invalid URL format", http.StatusBadRequest)
		return
	}
	runID := pathParts[3]

	if _, err := store.GetRun(runID); err != nil {
		http.Error(w, "Analysis not found", http.StatusNotFound)
		return
	}

	files, err := store.GetOutputFiles(runID)
	if err != nil {
		log.Warn().Err(err).Str("run", runID).Msg("could not list files for deletion")
	}
	for _, file := range files {
		if path, err := store.GetOutputFilePath(runID, file["fileName"].(string)); err == nil {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				log.Warn().Err(err).Str("file", path).Msg("could not delete artifact")
			}
		}
	}

	runDir := filepath.Join(Outputs.BaseOutputDir, runID)
	if err := os.RemoveAll(runDir); err != nil {
		log.Warn().Err(err).Str("dir", runDir).Msg("could not delete run directory")
	}

	// Cascades to errors, progress, logs, results, counts and files
	if err := store.DeleteRun(runID); err != nil {
		http.Error(w, "Failed to delete analysis from database", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":       "Analysis and all artifacts deleted successfully",
		"run_id":        runID,
		"files_deleted": len(files),
	})
}
