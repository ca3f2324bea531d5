package repo

import (
	"cmp"
	"math"
	"slices"

	"zoneview/internal/schema"
)

// SortStations orders stations by the controller's priority list.
//
// Each station's sort key is (rank, name): rank is the index of its ID in
// priority, or effectively infinity when the ID is absent, so ranked
// stations come first in priority order and unranked stations follow in
// name order. Name breaks ties within equal ranks.
//
// Pure and deterministic; the input slice is not modified.
func SortStations(stations []schema.Station, priority []string) []schema.Station {
	rank := make(map[string]int, len(priority))
	for i, id := range priority {
		if _, ok := rank[id]; !ok {
			rank[id] = i
		}
	}

	rankOf := func(s schema.Station) int {
		if r, ok := rank[s.ID]; ok {
			return r
		}
		return math.MaxInt
	}

	out := slices.Clone(stations)
	slices.SortStableFunc(out, func(a, b schema.Station) int {
		if c := cmp.Compare(rankOf(a), rankOf(b)); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

// SortStationsAsync runs SortStations on its own goroutine and returns a
// channel carrying the single result. Large rosters sort off whatever
// path the caller is latency-sensitive about; combine it with a
// cancellation check at the receive site to abandon a stale sort.
func SortStationsAsync(stations []schema.Station, priority []string) <-chan []schema.Station {
	out := make(chan []schema.Station, 1)
	go func() {
		out <- SortStations(stations, priority)
	}()
	return out
}
