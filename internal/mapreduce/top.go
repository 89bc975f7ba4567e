package mapreduce

// TopResult holds the selector's answer: the maximum flight count and every
// passenger attaining it, in first-seen order.
type TopResult struct {
	MaxFlights int      `json:"max_flights"`
	Passengers []string `json:"top_passengers"`
}

// TopPassengers finds the highest flight count in the aggregate and returns
// it together with all passengers that attain it. Ties are all reported, not
// broken. Returns ErrEmptyAggregate when the aggregate holds no passengers.
func TopPassengers(agg *Aggregate) (TopResult, error) {
	if agg == nil || agg.Len() == 0 {
		return TopResult{}, ErrEmptyAggregate
	}

	max := 0
	for _, pid := range agg.order {
		if s := agg.stats[pid]; s.Count > max {
			max = s.Count
		}
	}

	var top []string
	for _, pid := range agg.order {
		if agg.stats[pid].Count == max {
			top = append(top, pid)
		}
	}
	return TopResult{MaxFlights: max, Passengers: top}, nil
}
