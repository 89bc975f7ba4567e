// Package ingest loads the analyzer's CSV inputs: flight records, airport
// coordinates and departure timestamps. Files and HTTP URLs are both
// accepted.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"go-flight-analyzer/internal/model"
)

// RecordSource yields the full record set for one analysis run. Load returns
// the records in source order plus the number of rows rejected for not
// matching the expected shape. Records with an empty passenger id are not
// rejected here; deciding what to do with them is the aggregation engine's
// job.
type RecordSource interface {
	Load(ctx context.Context) ([]model.FlightRecord, int, error)
}

// CSVSource reads flight records from a CSV file or HTTP URL with the
// columns flight id, passenger id, origin, destination. The first row is a
// header and is skipped.
type CSVSource struct {
	Path string
}

// Load implements RecordSource.
func (s CSVSource) Load(ctx context.Context) ([]model.FlightRecord, int, error) {
	reader, closer, err := open(s.Path)
	if err != nil {
		return nil, 0, err
	}
	defer closer()

	csvReader := csv.NewReader(reader)
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	if _, err := csvReader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("failed to read CSV header: %w", err)
	}

	var records []model.FlightRecord
	rejected := 0
	for {
		select {
		case <-ctx.Done():
			return nil, 0, ctx.Err()
		default:
		}

		row, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			rejected++
			log.Warn().Err(err).Str("source", s.Path).Msg("rejected unparseable row")
			continue
		}
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read CSV row: %w", err)
		}
		if len(row) < 4 {
			rejected++
			log.Warn().Strs("row", row).Str("source", s.Path).Msg("rejected row with missing fields")
			continue
		}

		records = append(records, model.FlightRecord{
			FlightID:    strings.TrimSpace(row[0]),
			PassengerID: strings.TrimSpace(row[1]),
			Origin:      strings.TrimSpace(row[2]),
			Destination: strings.TrimSpace(row[3]),
		})
	}

	log.Info().
		Int("records", len(records)).
		Int("rejected", rejected).
		Str("source", s.Path).
		Msg("record ingestion done")
	return records, rejected, nil
}

func open(pathOrURL string) (io.Reader, func() error, error) {
	if strings.HasPrefix(pathOrURL, "http") {
		resp, err := http.Get(pathOrURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to GET CSV: %w", err)
		}
		return resp.Body, resp.Body.Close, nil
	}
	file, err := os.Open(pathOrURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	return file, file.Close, nil
}
