package mapreduce

import (
	"go-flight-analyzer/internal/model"
)

// Combine runs the map and combine steps over one chunk: every well-formed
// record increments its passenger's count and appends the flight detail, in
// chunk order. Records without a passenger id are skipped and counted; a
// malformed record never aborts the chunk. The function touches nothing
// outside the chunk, so workers need no locks.
func Combine(chunk []model.FlightRecord) (*Aggregate, int) {
	local := NewAggregate()
	skipped := 0
	for _, rec := range chunk {
		if rec.PassengerID == "" {
			skipped++
			continue
		}
		local.add(rec)
	}
	return local, skipped
}
