package mapreduce

// Reduce merges the workers' local aggregates into one global aggregate,
// strictly in chunk index order. Counts would come out the same in any order;
// flight-list order would not, and the fixed index order over contiguous
// chunks is what keeps each passenger's flights in input order. Runs on a
// single goroutine after every combiner has finished.
func Reduce(locals []*Aggregate) *Aggregate {
	global := NewAggregate()
	for _, local := range locals {
		if local == nil {
			continue
		}
		global.merge(local)
	}
	return global
}
