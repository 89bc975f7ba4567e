package store

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"go-flight-analyzer/internal/model"
)

var db *sql.DB

// InitDB opens the run database and creates the schema. Foreign keys are
// switched on so deleting a run cascades to its errors, progress, logs,
// results and files.
func InitDB(dbPath string) error {
	var err error
	db, err = sql.Open("sqlite3", dbPath+"?_foreign_keys=1")
	if err != nil {
		return err
	}

	tables := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			spec TEXT,
			status TEXT,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS run_errors (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT REFERENCES runs(id) ON DELETE CASCADE,
			error_message TEXT,
			created_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS stage_progress (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT REFERENCES runs(id) ON DELETE CASCADE,
			stage TEXT,
			status TEXT,
			detail TEXT,
			created_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS run_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT REFERENCES runs(id) ON DELETE CASCADE,
			level TEXT,
			message TEXT,
			created_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS run_results (
			run_id TEXT PRIMARY KEY REFERENCES runs(id) ON DELETE CASCADE,
			max_flights INTEGER,
			top_passengers TEXT,
			records INTEGER,
			skipped INTEGER,
			chunks INTEGER,
			created_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS passenger_counts (
			run_id TEXT REFERENCES runs(id) ON DELETE CASCADE,
			passenger_id TEXT,
			flight_count INTEGER,
			position INTEGER,
			PRIMARY KEY (run_id, passenger_id)
		);`,
		`CREATE TABLE IF NOT EXISTS output_files (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT REFERENCES runs(id) ON DELETE CASCADE,
			file_name TEXT,
			file_type TEXT,
			file_size INTEGER,
			file_path TEXT,
			download_url TEXT,
			created_at DATETIME
		);`,
	}
	for _, table := range tables {
		if _, err := db.Exec(table); err != nil {
			return err
		}
	}
	return nil
}

// CloseDB closes the run database.
func CloseDB() error {
	if db == nil {
		return nil
	}
	return db.Close()
}

// SaveRun stores a new analysis run in pending state
func SaveRun(runID string, spec model.AnalysisJobSpec) error {
	specJSON, err := json.Marshal(spec)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = db.Exec(`INSERT INTO runs (id, spec, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		runID, specJSON, "pending", now, now)
	return err
}

// SaveRunError records an error for a run
func SaveRunError(runID string, err error) error {
	if err == nil {
		return nil
	}
	now := time.Now().UTC()
	_, e := db.Exec(`INSERT INTO run_errors (run_id, error_message, created_at) VALUES (?, ?, ?)`,
		runID, err.Error(), now)
	return e
}

// ListRuns returns all runs with basic info
func ListRuns() ([]map[string]interface{}, error) {
	rows, err := db.Query(`SELECT id, status, created_at, updated_at FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []map[string]interface{}
	for rows.Next() {
		var id, status string
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&id, &status, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, map[string]interface{}{
			"id":        id,
			"status":    status,
			"createdAt": createdAt,
			"updatedAt": updatedAt,
		})
	}
	return runs, rows.Err()
}

// GetRun fetches the full run spec and status
func GetRun(runID string) (map[string]interface{}, error) {
	var specJSON string
	var status string
	var createdAt, updatedAt time.Time

	err := db.QueryRow(`SELECT spec, status, created_at, updated_at FROM runs WHERE id = ?`, runID).
		Scan(&specJSON, &status, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	var spec model.AnalysisJobSpec
	if err := json.Unmarshal([]byte(specJSON), &spec); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"id":        runID,
		"spec":      spec,
		"status":    status,
		"createdAt": createdAt,
		"updatedAt": updatedAt,
	}, nil
}

// GetRunSpec fetches just the spec a run was submitted with
func GetRunSpec(runID string) (model.AnalysisJobSpec, error) {
	var specJSON string
	var spec model.AnalysisJobSpec

	err := db.QueryRow(`SELECT spec FROM runs WHERE id = ?`, runID).Scan(&specJSON)
	if err != nil {
		return spec, err
	}
	err = json.Unmarshal([]byte(specJSON), &spec)
	return spec, err
}

// UpdateRunStatus updates run status
func UpdateRunStatus(runID string, status string) error {
	now := time.Now().UTC()
	_, err := db.Exec(`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`, status, now, runID)
	return err
}

// SaveStageProgress records a stage transition for a run
func SaveStageProgress(runID, stage, status, detail string) error {
	now := time.Now().UTC()
	_, err := db.Exec(`INSERT INTO stage_progress (run_id, stage, status, detail, created_at) VALUES (?, ?, ?, ?, ?)`,
		runID, stage, status, detail, now)
	return err
}

// GetStageProgress returns a run's stage transitions in order
func GetStageProgress(runID string) ([]map[string]interface{}, error) {
	rows, err := db.Query(`SELECT stage, status, detail, created_at FROM stage_progress WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var progress []map[string]interface{}
	for rows.Next() {
		var stage, status, detail string
		var createdAt time.Time
		if err := rows.Scan(&stage, &status, &detail, &createdAt); err != nil {
			return nil, err
		}
		progress = append(progress, map[string]interface{}{
			"stage":     stage,
			"status":    status,
			"detail":    detail,
			"createdAt": createdAt,
		})
	}
	return progress, rows.Err()
}

// SaveRunLog records one log line for a run
func SaveRunLog(runID, level, message string) error {
	now := time.Now().UTC()
	_, err := db.Exec(`INSERT INTO run_logs (run_id, level, message, created_at) VALUES (?, ?, ?, ?)`,
		runID, level, message, now)
	return err
}

// GetRunLogs returns a run's log lines in order. A non-positive limit
// returns everything.
func GetRunLogs(runID string, limit int) ([]map[string]interface{}, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.Query(`SELECT level, message, created_at FROM run_logs WHERE run_id = ? ORDER BY id LIMIT ?`, runID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []map[string]interface{}
	for rows.Next() {
		var level, message string
		var createdAt time.Time
		if err := rows.Scan(&level, &message, &createdAt); err != nil {
			return nil, err
		}
		logs = append(logs, map[string]interface{}{
			"level":     level,
			"message":   message,
			"createdAt": createdAt,
		})
	}
	return logs, rows.Err()
}

// GetRunErrors returns the errors recorded for a run
func GetRunErrors(runID string) ([]map[string]interface{}, error) {
	rows, err := db.Query(`SELECT error_message, created_at FROM run_errors WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var errors []map[string]interface{}
	for rows.Next() {
		var message string
		var createdAt time.Time
		if err := rows.Scan(&message, &createdAt); err != nil {
			return nil, err
		}
		errors = append(errors, map[string]interface{}{
			"message":   message,
			"createdAt": createdAt,
		})
	}
	return errors, rows.Err()
}

// SaveRunResult stores the final aggregation outcome for a run
func SaveRunResult(runID string, maxFlights int, topPassengers []string, records, skipped, chunks int) error {
	topJSON, err := json.Marshal(topPassengers)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err = db.Exec(`INSERT OR REPLACE INTO run_results (run_id, max_flights, top_passengers, records, skipped, chunks, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, maxFlights, topJSON, records, skipped, chunks, now)
	return err
}

// GetRunResult fetches the final aggregation outcome for a run
func GetRunResult(runID string) (map[string]interface{}, error) {
	var maxFlights, records, skipped, chunks int
	var topJSON string
	var createdAt time.Time

	err := db.QueryRow(`SELECT max_flights, top_passengers, records, skipped, chunks, created_at FROM run_results WHERE run_id = ?`, runID).
		Scan(&maxFlights, &topJSON, &records, &skipped, &chunks, &createdAt)
	if err != nil {
		return nil, err
	}

	var topPassengers []string
	if err := json.Unmarshal([]byte(topJSON), &topPassengers); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"runId":         runID,
		"maxFlights":    maxFlights,
		"topPassengers": topPassengers,
		"records":       records,
		"skipped":       skipped,
		"chunks":        chunks,
		"createdAt":     createdAt,
	}, nil
}

// SavePassengerCounts stores per-passenger flight counts, keeping the
// first-seen passenger order in the position column.
func SavePassengerCounts(runID string, passengers []string, counts map[string]int) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO passenger_counts (run_id, passenger_id, flight_count, position) VALUES (?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i, pid := range passengers {
		if _, err := stmt.Exec(runID, pid, counts[pid], i); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// GetPassengerCounts returns a run's per-passenger counts in first-seen order
func GetPassengerCounts(runID string) ([]map[string]interface{}, error) {
	rows, err := db.Query(`SELECT passenger_id, flight_count FROM passenger_counts WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []map[string]interface{}
	for rows.Next() {
		var pid string
		var count int
		if err := rows.Scan(&pid, &count); err != nil {
			return nil, err
		}
		counts = append(counts, map[string]interface{}{
			"passengerId": pid,
			"flightCount": count,
		})
	}
	return counts, rows.Err()
}

// SaveOutputFile records one generated artifact for a run
func SaveOutputFile(runID, fileName, fileType string, fileSize int64, filePath, downloadURL string) error {
	now := time.Now().UTC()
	_, err := db.Exec(`INSERT INTO output_files (run_id, file_name, file_type, file_size, file_path, download_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, fileName, fileType, fileSize, filePath, downloadURL, now)
	return err
}

// GetOutputFiles returns the artifacts recorded for a run
func GetOutputFiles(runID string) ([]map[string]interface{}, error) {
	rows, err := db.Query(`SELECT file_name, file_type, file_size, download_url, created_at FROM output_files WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []map[string]interface{}
	for rows.Next() {
		var fileName, fileType, downloadURL string
		var fileSize int64
		var createdAt time.Time
		if err := rows.Scan(&fileName, &fileType, &fileSize, &downloadURL, &createdAt); err != nil {
			return nil, err
		}
		files = append(files, map[string]interface{}{
			"fileName":    fileName,
			"fileType":    fileType,
			"fileSize":    fileSize,
			"downloadUrl": downloadURL,
			"createdAt":   createdAt,
		})
	}
	return files, rows.Err()
}

// GetOutputFilePath resolves the on-disk path of one recorded artifact
func GetOutputFilePath(runID, fileName string) (string, error) {
	var filePath string
	err := db.QueryRow(`SELECT file_path FROM output_files WHERE run_id = ? AND file_name = ?`, runID, fileName).
		Scan(&filePath)
	return filePath, err
}

// DeleteRun removes a run and, through the cascade, everything recorded for it
func DeleteRun(runID string) error {
	res, err := db.Exec(`DELETE FROM runs WHERE id = ?`, runID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
