package mapreduce

import (
	"errors"
	"fmt"
)

// ErrInvalidWorkerCount reports a partition request with a non-positive
// worker count.
var ErrInvalidWorkerCount = errors.New("worker count must be positive")

// ErrEmptyAggregate reports a selector run over an aggregate that holds no
// passengers, which happens when every input record was malformed or the
// record source was empty.
var ErrEmptyAggregate = errors.New("aggregate holds no passengers")

// WorkerError reports a combiner worker that failed. The run aborts with the
// first one observed; an incomplete set of local aggregates is never reduced.
type WorkerError struct {
	Chunk   int // index of the chunk owned by the failed worker
	Records int // number of records in that chunk
	Err     error
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("worker for chunk %d (%d records) failed: %v", e.Chunk, e.Records, e.Err)
}

func (e *WorkerError) Unwrap() error { return e.Err }
