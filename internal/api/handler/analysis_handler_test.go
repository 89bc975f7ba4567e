package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go-flight-analyzer/internal/model"
	"go-flight-analyzer/internal/store"
	"go-flight-analyzer/pkg/utils"
)

func setupHandlers(t *testing.T) {
	t.Helper()
	if err := store.InitDB(filepath.Join(t.TempDir(), "analyzer.db")); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { store.CloseDB() })

	orig := Outputs
	Outputs = utils.NewOutputManager(t.TempDir())
	t.Cleanup(func() { Outputs = orig })
}

func doJSON(t *testing.T, handler http.HandlerFunc, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	resp := map[string]interface{}{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("response is not JSON: %v\n%s", err, rec.Body.String())
		}
	}
	return rec, resp
}

func TestCreateAnalysisValidatesPayload(t *testing.T) {
	setupHandlers(t)

	cases := []struct {
		name string
		body string
	}{
		{"invalid json", "{not json"},
		{"missing records path", `{"inputs":{},"concurrency":{"workers":2}}`},
		{"negative workers", `{"inputs":{"recordsPath":"r.csv"},"concurrency":{"workers":-1}}`},
	}
	for _, c := range cases {
		rec, _ := doJSON(t, CreateAnalysis, http.MethodPost, "/api/v1/analyses", c.body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", c.name, rec.Code)
		}
	}
}

func TestCreateAnalysisRunsToCompletion(t *testing.T) {
	setupHandlers(t)

	records := filepath.Join(t.TempDir(), "records.csv")
	content := "flight_id,passenger_id,from,to\nF1,P1,LHR,JFK\nF2,P1,JFK,LHR\nF3,P2,CDG,JFK\n"
	if err := os.WriteFile(records, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	body, _ := json.Marshal(model.AnalysisJobSpec{
		Inputs:      model.Inputs{RecordsPath: records},
		Concurrency: model.Concurrency{Workers: 2},
	})

	rec, resp := doJSON(t, CreateAnalysis, http.MethodPost, "/api/v1/analyses", string(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	runID, _ := resp["runID"].(string)
	if runID == "" || resp["status"] != "pending" {
		t.Fatalf("response = %v, want a run id with pending status", resp)
	}

	// The run executes asynchronously; wait for it to finish.
	deadline := time.Now().Add(5 * time.Second)
	for {
		run, err := store.GetRun(runID)
		if err == nil && (run["status"] == "completed" || run["status"] == "failed") {
			if run["status"] != "completed" {
				t.Fatalf("run finished as %v", run["status"])
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("run did not finish in time")
		}
		time.Sleep(10 * time.Millisecond)
	}

	result, err := store.GetRunResult(runID)
	if err != nil {
		t.Fatalf("GetRunResult: %v", err)
	}
	if result["maxFlights"] != 2 {
		t.Errorf("maxFlights = %v, want 2", result["maxFlights"])
	}
}

func TestGetAnalysisNotFound(t *testing.T) {
	setupHandlers(t)

	rec, _ := doJSON(t, GetAnalysis, http.MethodGet, "/api/v1/analyses/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGetAnalysisRequiresRunID(t *testing.T) {
	setupHandlers(t)

	rec, _ := doJSON(t, GetAnalysisErrors, http.MethodGet, "/api/v1/analyses//errors", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestCancelAnalysisRejectsFinishedRun(t *testing.T) {
	setupHandlers(t)
	store.SaveRun("run-1", model.AnalysisJobSpec{})
	store.UpdateRunStatus("run-1", "completed")

	rec, _ := doJSON(t, CancelAnalysis, http.MethodPatch, "/api/v1/analyses/run-1/cancel", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestCancelAnalysisFlipsPendingRun(t *testing.T) {
	setupHandlers(t)
	store.SaveRun("run-1", model.AnalysisJobSpec{})

	rec, resp := doJSON(t, CancelAnalysis, http.MethodPatch, "/api/v1/analyses/run-1/cancel", "")
	if rec.Code != http.StatusOK || resp["status"] != "cancelled" {
		t.Fatalf("status = %d, resp = %v", rec.Code, resp)
	}

	run, _ := store.GetRun("run-1")
	if run["status"] != "cancelled" {
		t.Errorf("stored status = %v, want cancelled", run["status"])
	}
}

func TestRetryAnalysisUnknownRun(t *testing.T) {
	setupHandlers(t)

	rec, _ := doJSON(t, RetryAnalysis, http.MethodPost, "/api/v1/analyses/nope/retry", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestDeleteAnalysisRemovesRunAndArtifacts(t *testing.T) {
	setupHandlers(t)
	store.SaveRun("run-1", model.AnalysisJobSpec{})

	path, err := Outputs.GetOutputFilePath("run-1", "summary.json")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	store.SaveOutputFile("run-1", "summary.json", "json", 2, path, Outputs.GetDownloadURL("run-1", "summary.json"))

	rec, resp := doJSON(t, DeleteAnalysis, http.MethodDelete, "/api/v1/analyses/run-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if resp["files_deleted"] != float64(1) {
		t.Errorf("files_deleted = %v, want 1", resp["files_deleted"])
	}

	if _, err := store.GetRun("run-1"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("run still present after delete: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("artifact %s still on disk", path)
	}
}

func TestDeleteAnalysisUnknownRun(t *testing.T) {
	setupHandlers(t)

	rec, _ := doJSON(t, DeleteAnalysis, http.MethodDelete, "/api/v1/analyses/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
