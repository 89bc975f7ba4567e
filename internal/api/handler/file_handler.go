package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"go-flight-analyzer/internal/store"
)

// GetAnalysisFiles retrieves all output files recorded for an analysis run
// @Summary List analysis files
// @Description List the artifacts generated by an analysis run
// @Tags files
// @Accept json
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{} "Recorded files"
// @Failure 400 {object} map[string]interface{} "Invalid run ID"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /analyses/{id}/files [get]
func GetAnalysisFiles(w http.ResponseWriter, r *http.Request) {
	runID, ok := runIDFromPath(r.URL.Path, "/files")
	if !ok {
		http.Error(w, "Run ID is required", http.StatusBadRequest)
		return
	}

	files, err := store.GetOutputFiles(runID)
	if err != nil {
		http.Error(w, "Failed to retrieve files", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"run_id": runID,
		"files":  files,
		"count":  len(files),
	})
}

// DownloadFile serves a recorded artifact for download
// @Summary Download file
// @Description Download one output file of an analysis run
// @Tags files
// @Accept json
// @Produce application/octet-stream
// @Param runID path string true "Run ID"
// @Param filename path string true "File name"
// @Success 200 {file} file "File download"
// @Failure 400 {object} map[string]interface{} "Invalid URL format"
// @Failure 404 {object} map[string]interface{} "File not found"
// @Router /download/{runID}/{filename} [get]
func DownloadFile(w http.ResponseWriter, r *http.Request) {
	// URL format: /api/v1/download/{runID}/{filename}
	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(pathParts) < 5 {
		http.Error(w, "Invalid URL format", http.StatusBadRequest)
		return
	}
	runID := pathParts[3]
	fileName := pathParts[4]

	// Resolve through the store so only recorded artifacts are served
	filePath, err := store.GetOutputFilePath(runID, fileName)
	if err != nil {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.Header().Set("Content-Type", "application/octet-stream")
	http.ServeFile(w, r, filePath)
}
