package model

// FlightRecord represents a single parsed input row: one passenger on one
// flight. Immutable once parsed.
type FlightRecord struct {
	FlightID    string `json:"flight_id"`
	PassengerID string `json:"passenger_id"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

// Flight is the per-passenger flight detail kept by the aggregation: the
// record minus the passenger key.
type Flight struct {
	FlightID    string `json:"flight_id"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

// Detail returns the flight detail carried by a record.
func (r FlightRecord) Detail() Flight {
	return Flight{FlightID: r.FlightID, Origin: r.Origin, Destination: r.Destination}
}

// PassengerStats accumulates one passenger's flights. Count always equals
// len(Flights); Flights keeps input order within a partition and partition
// index order across partitions.
type PassengerStats struct {
	Count   int      `json:"count"`
	Flights []Flight `json:"flights"`
}

// Coordinate is an airport position from the reference CSV.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}
