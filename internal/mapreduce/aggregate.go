package mapreduce

import (
	"go-flight-analyzer/internal/model"
)

// Aggregate maps passenger ids to their accumulated stats. Insertion order is
// preserved so that merged flight lists and selector output are deterministic
// for a fixed chunk order. The same type serves as a worker's local aggregate
// and as the merged global one.
type Aggregate struct {
	stats map[string]*model.PassengerStats
	order []string // passenger ids, first-seen order
}

// NewAggregate returns an empty aggregate.
func NewAggregate() *Aggregate {
	return &Aggregate{stats: make(map[string]*model.PassengerStats)}
}

func (a *Aggregate) add(rec model.FlightRecord) {
	s, ok := a.stats[rec.PassengerID]
	if !ok {
		s = &model.PassengerStats{}
		a.stats[rec.PassengerID] = s
		a.order = append(a.order, rec.PassengerID)
	}
	s.Count++
	s.Flights = append(s.Flights, rec.Detail())
}

// merge folds other into a: counts add, flight lists concatenate with a's
// entries first. Passengers unseen by a keep their first-seen position.
func (a *Aggregate) merge(other *Aggregate) {
	for _, pid := range other.order {
		o := other.stats[pid]
		s, ok := a.stats[pid]
		if !ok {
			s = &model.PassengerStats{}
			a.stats[pid] = s
			a.order = append(a.order, pid)
		}
		s.Count += o.Count
		s.Flights = append(s.Flights, o.Flights...)
	}
}

// Len returns the number of distinct passengers.
func (a *Aggregate) Len() int { return len(a.stats) }

// Passengers returns the passenger ids in first-seen order.
func (a *Aggregate) Passengers() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

// Stats returns the stats recorded for one passenger. The flight list is
// shared with the aggregate and must be treated as read-only.
func (a *Aggregate) Stats(passengerID string) (model.PassengerStats, bool) {
	s, ok := a.stats[passengerID]
	if !ok {
		return model.PassengerStats{}, false
	}
	return *s, true
}

// Counts returns a plain passenger-to-flight-count map.
func (a *Aggregate) Counts() map[string]int {
	out := make(map[string]int, len(a.stats))
	for pid, s := range a.stats {
		out[pid] = s.Count
	}
	return out
}

// TotalFlights sums the counts over all passengers, which equals the number
// of well-formed records that reached the aggregate.
func (a *Aggregate) TotalFlights() int {
	total := 0
	for _, s := range a.stats {
		total += s.Count
	}
	return total
}
