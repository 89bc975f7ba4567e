package ingest

import (
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"
)

// DepartureHours extracts the departure hour of day (0-23, UTC) from the
// epoch timestamps in the fifth column of a departure-time CSV. Rows without
// a parseable timestamp are skipped, which also covers any header row.
func DepartureHours(path string) ([]int, error) {
	reader, closer, err := open(path)
	if err != nil {
		return nil, err
	}
	defer closer()

	csvReader := csv.NewReader(reader)
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	var hours []int
	for {
		row, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				continue
			}
			return nil, err
		}
		if len(row) < 5 {
			continue
		}

		ts, err := strconv.ParseInt(strings.TrimSpace(row[4]), 10, 64)
		if err != nil {
			continue
		}
		hours = append(hours, time.Unix(ts, 0).UTC().Hour())
	}
	return hours, nil
}
