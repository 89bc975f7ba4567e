package store

import (
	"database/sql"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"go-flight-analyzer/internal/model"
)

func setupDB(t *testing.T) {
	t.Helper()
	if err := InitDB(filepath.Join(t.TempDir(), "analyzer.db")); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { CloseDB() })
}

func testSpec() model.AnalysisJobSpec {
	return model.AnalysisJobSpec{
		Inputs: model.Inputs{
			RecordsPath:  "data/records.csv",
			AirportsPath: "data/airports.csv",
		},
		Concurrency: model.Concurrency{Workers: 4, JobTimeout: "2m"},
	}
}

func TestSaveAndGetRun(t *testing.T) {
	setupDB(t)

	if err := SaveRun("run-1", testSpec()); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	run, err := GetRun("run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run["status"] != "pending" {
		t.Errorf("status = %v, want pending", run["status"])
	}
	spec, ok := run["spec"].(model.AnalysisJobSpec)
	if !ok || spec.Inputs.RecordsPath != "data/records.csv" {
		t.Errorf("spec did not round-trip: %+v", run["spec"])
	}

	if err := UpdateRunStatus("run-1", "completed"); err != nil {
		t.Fatalf("UpdateRunStatus: %v", err)
	}
	run, _ = GetRun("run-1")
	if run["status"] != "completed" {
		t.Errorf("status = %v, want completed", run["status"])
	}

	runs, err := ListRuns()
	if err != nil || len(runs) != 1 {
		t.Errorf("ListRuns = (%v, %v), want one run", runs, err)
	}
}

func TestGetRunSpec(t *testing.T) {
	setupDB(t)

	if err := SaveRun("run-1", testSpec()); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	spec, err := GetRunSpec("run-1")
	if err != nil {
		t.Fatalf("GetRunSpec: %v", err)
	}
	if spec.Concurrency.Workers != 4 {
		t.Errorf("workers = %d, want 4", spec.Concurrency.Workers)
	}
}

func TestGetRunMissing(t *testing.T) {
	setupDB(t)

	if _, err := GetRun("nope"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("error = %v, want sql.ErrNoRows", err)
	}
}

func TestStageProgressAndLogs(t *testing.T) {
	setupDB(t)
	SaveRun("run-1", testSpec())

	SaveStageProgress("run-1", "ingest", "started", "")
	SaveStageProgress("run-1", "ingest", "completed", "3 records")
	SaveStageProgress("run-1", "aggregate", "started", "")

	progress, err := GetStageProgress("run-1")
	if err != nil {
		t.Fatalf("GetStageProgress: %v", err)
	}
	if len(progress) != 3 {
		t.Fatalf("got %d progress rows, want 3", len(progress))
	}
	if progress[0]["stage"] != "ingest" || progress[2]["stage"] != "aggregate" {
		t.Errorf("progress out of order: %v", progress)
	}

	SaveRunLog("run-1", "info", "run started")
	SaveRunLog("run-1", "warn", "skipped 2 records")
	logs, err := GetRunLogs("run-1", 0)
	if err != nil || len(logs) != 2 {
		t.Fatalf("GetRunLogs = (%v, %v), want 2 lines", logs, err)
	}
	if logs[1]["level"] != "warn" {
		t.Errorf("second log level = %v, want warn", logs[1]["level"])
	}
	if limited, _ := GetRunLogs("run-1", 1); len(limited) != 1 {
		t.Errorf("limited logs = %v, want one line", limited)
	}
}

func TestRunErrors(t *testing.T) {
	setupDB(t)
	SaveRun("run-1", testSpec())

	if err := SaveRunError("run-1", nil); err != nil {
		t.Fatalf("SaveRunError(nil): %v", err)
	}
	if err := SaveRunError("run-1", errors.New("ingest blew up")); err != nil {
		t.Fatalf("SaveRunError: %v", err)
	}

	errs, err := GetRunErrors("run-1")
	if err != nil {
		t.Fatalf("GetRunErrors: %v", err)
	}
	if len(errs) != 1 || errs[0]["message"] != "ingest blew up" {
		t.Errorf("errors = %v, want the single recorded error", errs)
	}
}

func TestResultRoundTrip(t *testing.T) {
	setupDB(t)
	SaveRun("run-1", testSpec())

	if err := SaveRunResult("run-1", 2, []string{"P1", "P3"}, 5, 1, 4); err != nil {
		t.Fatalf("SaveRunResult: %v", err)
	}

	res, err := GetRunResult("run-1")
	if err != nil {
		t.Fatalf("GetRunResult: %v", err)
	}
	if res["maxFlights"] != 2 || res["records"] != 5 || res["skipped"] != 1 || res["chunks"] != 4 {
		t.Errorf("result = %v", res)
	}
	if tops := res["topPassengers"].([]string); !reflect.DeepEqual(tops, []string{"P1", "P3"}) {
		t.Errorf("top passengers = %v, want [P1 P3]", tops)
	}
}

func TestPassengerCountsKeepOrder(t *testing.T) {
	setupDB(t)
	SaveRun("run-1", testSpec())

	passengers := []string{"P2", "P1", "P3"}
	counts := map[string]int{"P1": 1, "P2": 3, "P3": 2}
	if err := SavePassengerCounts("run-1", passengers, counts); err != nil {
		t.Fatalf("SavePassengerCounts: %v", err)
	}

	rows, err := GetPassengerCounts("run-1")
	if err != nil {
		t.Fatalf("GetPassengerCounts: %v", err)
	}
	var gotOrder []string
	for _, row := range rows {
		gotOrder = append(gotOrder, row["passengerId"].(string))
	}
	if !reflect.DeepEqual(gotOrder, passengers) {
		t.Errorf("order = %v, want %v", gotOrder, passengers)
	}
	if rows[0]["flightCount"] != 3 {
		t.Errorf("P2 count = %v, want 3", rows[0]["flightCount"])
	}
}

func TestOutputFiles(t *testing.T) {
	setupDB(t)
	SaveRun("run-1", testSpec())

	err := SaveOutputFile("run-1", "summary.json", "json", 128, "/out/run-1/summary.json", "/api/v1/download/run-1/summary.json")
	if err != nil {
		t.Fatalf("SaveOutputFile: %v", err)
	}

	files, err := GetOutputFiles("run-1")
	if err != nil || len(files) != 1 {
		t.Fatalf("GetOutputFiles = (%v, %v), want one file", files, err)
	}
	if files[0]["fileName"] != "summary.json" || files[0]["fileSize"] != int64(128) {
		t.Errorf("file row = %v", files[0])
	}

	path, err := GetOutputFilePath("run-1", "summary.json")
	if err != nil || path != "/out/run-1/summary.json" {
		t.Errorf("GetOutputFilePath = (%q, %v)", path, err)
	}
	if _, err := GetOutputFilePath("run-1", "missing.png"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("missing file error = %v, want sql.ErrNoRows", err)
	}
}

func TestDeleteRunCascades(t *testing.T) {
	setupDB(t)
	SaveRun("run-1", testSpec())
	SaveStageProgress("run-1", "ingest", "started", "")
	SaveRunLog("run-1", "info", "run started")
	SaveRunResult("run-1", 2, []string{"P1"}, 3, 0, 2)
	SaveOutputFile("run-1", "summary.json", "json", 10, "/out/s.json", "/api/v1/download/run-1/summary.json")

	if err := DeleteRun("run-1"); err != nil {
		t.Fatalf("DeleteRun: %v", err)
	}
	if _, err := GetRun("run-1"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("run still present after delete: %v", err)
	}
	progress, _ := GetStageProgress("run-1")
	if len(progress) != 0 {
		t.Errorf("stage progress not cascaded: %v", progress)
	}
	files, _ := GetOutputFiles("run-1")
	if len(files) != 0 {
		t.Errorf("output files not cascaded: %v", files)
	}

	if err := DeleteRun("run-1"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("second delete error = %v, want sql.ErrNoRows", err)
	}
}
