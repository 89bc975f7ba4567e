package mapreduce

import (
	"reflect"
	"testing"

	"go-flight-analyzer/internal/model"
)

func TestCombineCountsAndPreservesOrder(t *testing.T) {
	chunk := []model.FlightRecord{
		rec("F1", "P1", "LHR", "JFK"),
		rec("F2", "P2", "CDG", "AMS"),
		rec("F3", "P1", "JFK", "LHR"),
	}

	local, skipped := Combine(chunk)
	if skipped != 0 {
		t.Fatalf("skipped = %d, want 0", skipped)
	}
	if got := local.Passengers(); !reflect.DeepEqual(got, []string{"P1", "P2"}) {
		t.Fatalf("passenger order = %v, want [P1 P2]", got)
	}

	p1, ok := local.Stats("P1")
	if !ok || p1.Count != 2 {
		t.Fatalf("P1 count = %d, want 2", p1.Count)
	}
	wantFlights := []model.Flight{
		{FlightID: "F1", Origin: "LHR", Destination: "JFK"},
		{FlightID: "F3", Origin: "JFK", Destination: "LHR"},
	}
	if !reflect.DeepEqual(p1.Flights, wantFlights) {
		t.Errorf("P1 flights = %v, want %v", p1.Flights, wantFlights)
	}
	if len(p1.Flights) != p1.Count {
		t.Errorf("P1 flight list length %d does not match count %d", len(p1.Flights), p1.Count)
	}
}

func TestCombineSkipsRecordsWithoutPassengerID(t *testing.T) {
	chunk := []model.FlightRecord{
		rec("F1", "P1", "LHR", "JFK"),
		rec("F2", "", "CDG", "AMS"),
		rec("F3", "", "AMS", "CDG"),
		rec("F4", "P1", "JFK", "LHR"),
	}

	local, skipped := Combine(chunk)
	if skipped != 2 {
		t.Fatalf("skipped = %d, want 2", skipped)
	}
	if local.Len() != 1 {
		t.Fatalf("distinct passengers = %d, want 1", local.Len())
	}
	if p1, _ := local.Stats("P1"); p1.Count != 2 {
		t.Errorf("P1 count = %d, want 2", p1.Count)
	}
	if local.TotalFlights() != 2 {
		t.Errorf("total flights = %d, want 2", local.TotalFlights())
	}
}

func TestCombineEmptyChunk(t *testing.T) {
	local, skipped := Combine(nil)
	if skipped != 0 || local.Len() != 0 {
		t.Errorf("empty chunk: skipped=%d len=%d, want 0 and 0", skipped, local.Len())
	}
}
