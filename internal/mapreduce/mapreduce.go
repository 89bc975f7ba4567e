// Package mapreduce implements the in-process aggregation engine. A record
// set is partitioned into contiguous chunks, one worker goroutine per chunk
// builds a local passenger aggregate, and once every worker has joined the
// locals are reduced in chunk index order into a single global aggregate.
// Workers share no state; all merging happens after the join.
package mapreduce

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"go-flight-analyzer/internal/model"
)

// Result is the engine's output: the global aggregate plus run accounting.
type Result struct {
	Aggregate *Aggregate
	Records   int // well-formed records aggregated
	Skipped   int // malformed records skipped by combiners
	Chunks    int
}

// combineChunk is swapped out in tests to exercise the worker failure path.
var combineChunk = Combine

// Run executes the full partition, combine and reduce sequence over records
// with the given worker count. The calling goroutine blocks until every
// worker has finished before any merging starts, so a still-running chunk's
// output is never read. If any worker fails the run aborts with a
// WorkerError instead of reducing a partial set of locals. Feeding the same
// records and worker count twice yields identical results.
func Run(ctx context.Context, records []model.FlightRecord, workers int) (*Result, error) {
	chunks, err := Partition(records, workers)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	locals := make([]*Aggregate, len(chunks))
	skips := make([]int, len(chunks))
	errs := make([]error, len(chunks))

	var wg sync.WaitGroup
	for i, chunk := range chunks {
		wg.Add(1)
		go func(i int, chunk []model.FlightRecord) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					errs[i] = &WorkerError{Chunk: i, Records: len(chunk), Err: fmt.Errorf("%v", r)}
				}
			}()
			locals[i], skips[i] = combineChunk(chunk)
			if skips[i] > 0 {
				log.Warn().Int("chunk", i).Int("skipped", skips[i]).Msg("skipped records without passenger id")
			}
			log.Debug().Int("chunk", i).Int("flights", locals[i].TotalFlights()).Msg("chunk combined")
		}(i, chunk)
	}
	wg.Wait()

	for _, werr := range errs {
		if werr != nil {
			return nil, werr
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	skipped := 0
	for _, n := range skips {
		skipped += n
	}
	global := Reduce(locals)

	return &Result{
		Aggregate: global,
		Records:   global.TotalFlights(),
		Skipped:   skipped,
		Chunks:    len(chunks),
	}, nil
}
