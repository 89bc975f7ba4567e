package model

// Inputs names the CSV files consumed by one analysis run. RecordsPath is
// required; the other two enable the optional histogram and route stages.
type Inputs struct {
	RecordsPath        string `json:"recordsPath"`
	DepartureTimesPath string `json:"departureTimesPath,omitempty"`
	AirportsPath       string `json:"airportsPath,omitempty"`
}

// Concurrency holds the worker and timeout configuration for a run.
// Workers == 0 means "use available parallelism".
type Concurrency struct {
	Workers    int    `json:"workers"`
	JobTimeout string `json:"jobTimeout"` // e.g., "5m"
}

// AnalysisJobSpec is the configuration for one analysis run, submitted via
// POST /api/v1/analyses or assembled by the CLI.
type AnalysisJobSpec struct {
	Inputs      Inputs      `json:"inputs"`
	Concurrency Concurrency `json:"concurrency"`
}
