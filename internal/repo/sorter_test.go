package repo

import (
	"reflect"
	"testing"

	"zoneview/internal/schema"
)

func TestSortStationsRankedThenName(t *testing.T) {
	stations := []schema.Station{
		{ID: "a", Name: "Apple", Zone: 1},
		{ID: "b", Name: "Banana", Zone: 1},
		{ID: "c", Name: "Cherry", Zone: 1},
	}
	priority := []string{"b", "a"}

	got := SortStations(stations, priority)

	wantNames := []string{"Banana", "Apple", "Cherry"}
	for i, name := range wantNames {
		if got[i].Name != name {
			t.Fatalf("position %d = %s, want %s (full: %+v)", i, got[i].Name, name, got)
		}
	}
}

func TestSortStationsUnrankedAlphabetical(t *testing.T) {
	stations := []schema.Station{
		{ID: "z", Name: "Zulu", Zone: 1},
		{ID: "m", Name: "Mike", Zone: 1},
		{ID: "a", Name: "Alpha", Zone: 1},
	}

	got := SortStations(stations, nil)

	wantNames := []string{"Alpha", "Mike", "Zulu"}
	for i, name := range wantNames {
		if got[i].Name != name {
			t.Fatalf("position %d = %s, want %s", i, got[i].Name, name)
		}
	}
}

func TestSortStationsIgnoresUnknownPriorityIDs(t *testing.T) {
	stations := []schema.Station{
		{ID: "a", Name: "Alpha", Zone: 1},
		{ID: "b", Name: "Bravo", Zone: 1},
	}
	priority := []string{"ghost", "b"}

	got := SortStations(stations, priority)

	if got[0].ID != "b" || got[1].ID != "a" {
		t.Errorf("unexpected order: %+v", got)
	}
}

func TestSortStationsDoesNotMutateInput(t *testing.T) {
	stations := []schema.Station{
		{ID: "b", Name: "Bravo", Zone: 1},
		{ID: "a", Name: "Alpha", Zone: 1},
	}
	original := make([]schema.Station, len(stations))
	copy(original, stations)

	_ = SortStations(stations, []string{"a"})

	if !reflect.DeepEqual(stations, original) {
		t.Errorf("input mutated: %+v", stations)
	}
}

func TestSortStationsDeterministic(t *testing.T) {
	stations := []schema.Station{
		{ID: "c", Name: "Same", Zone: 1},
		{ID: "a", Name: "Same", Zone: 2},
		{ID: "b", Name: "Other", Zone: 3},
	}
	priority := []string{"b"}

	first := SortStations(stations, priority)
	for i := 0; i < 10; i++ {
		if got := SortStations(stations, priority); !reflect.DeepEqual(got, first) {
			t.Fatalf("sort not deterministic: %+v vs %+v", got, first)
		}
	}
}
