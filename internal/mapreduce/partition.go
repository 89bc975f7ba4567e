package mapreduce

import (
	"fmt"

	"go-flight-analyzer/internal/model"
)

// Partition splits records into n contiguous chunks whose sizes differ by at
// most one, covering the input exactly once in order. When n exceeds the
// record count the surplus chunks are empty. The chunks are subslices of the
// input, so no records are copied.
func Partition(records []model.FlightRecord, n int) ([][]model.FlightRecord, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidWorkerCount, n)
	}

	chunks := make([][]model.FlightRecord, n)
	base := len(records) / n
	extra := len(records) % n

	start := 0
	for i := range chunks {
		size := base
		if i < extra {
			size++
		}
		chunks[i] = records[start : start+size]
		start += size
	}
	return chunks, nil
}
