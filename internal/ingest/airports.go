package ingest

import (
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"go-flight-analyzer/internal/model"
)

// LoadAirports reads airport coordinates from a CSV with the columns name,
// IATA code, latitude, longitude. There is no header row. Rows with missing
// fields or unparseable coordinates are skipped, so a partial airport list
// still lets the run finish.
func LoadAirports(path string) (map[string]model.Coordinate, error) {
	reader, closer, err := open(path)
	if err != nil {
		return nil, err
	}
	defer closer()

	csvReader := csv.NewReader(reader)
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	coords := make(map[string]model.Coordinate)
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
		if len(row) < 4 {
			continue
		}

		code := strings.TrimSpace(row[1])
		lat, latErr := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
		lon, lonErr := strconv.ParseFloat(strings.TrimSpace(row[3]), 64)
		if code == "" || latErr != nil || lonErr != nil {
			continue
		}
		coords[code] = model.Coordinate{Lat: lat, Lon: lon}
	}

	log.Info().Int("airports", len(coords)).Str("source", path).Msg("airport coordinates loaded")
	return coords, nil
}
