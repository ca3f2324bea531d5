package repo

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"zoneview/internal/schema"
	"zoneview/internal/store"
)

// resolvedPriority returns a cache that resolves instantly.
func resolvedPriority(ids ...string) *Cache[[]string] {
	return NewCache(
		func(ctx context.Context) ([]string, error) { return ids, nil },
		func() []string { return nil },
	)
}

// gatedPriority returns a cache whose producer blocks until release is closed.
func gatedPriority(release <-chan struct{}, ids ...string) *Cache[[]string] {
	return NewCache(
		func(ctx context.Context) ([]string, error) {
			<-release
			return ids, nil
		},
		func() []string { return nil },
	)
}

// recvUpdate reads the next update from the view or fails the test.
func recvUpdate(t *testing.T, v *View) []schema.Station {
	t.Helper()

	select {
	case stations, ok := <-v.Updates():
		if !ok {
			t.Fatal("updates channel closed unexpectedly")
		}
		return stations
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for view update")
		return nil
	}
}

func seedStations(t *testing.T, st *store.Store, stations ...schema.Station) {
	t.Helper()
	if err := st.UpsertAll(context.Background(), stations); err != nil {
		t.Fatalf("seeding store failed: %v", err)
	}
}

func TestViewCombinesAndSorts(t *testing.T) {
	st := setupTestStore(t)
	seedStations(t, st,
		schema.Station{ID: "a", Name: "Apple", Zone: 1},
		schema.Station{ID: "b", Name: "Banana", Zone: 1},
		schema.Station{ID: "c", Name: "Cherry", Zone: 1},
	)

	view := NewView(st, nil, resolvedPriority("b", "a"), testLogger())
	defer view.Close()

	view.SetFilter(schema.ZoneAll)

	got := recvUpdate(t, view)
	wantNames := []string{"Banana", "Apple", "Cherry"}
	for i, name := range wantNames {
		if got[i].Name != name {
			t.Fatalf("position %d = %s, want %s", i, got[i].Name, name)
		}
	}
}

func TestViewWaitsForBothSides(t *testing.T) {
	st := setupTestStore(t)
	seedStations(t, st, schema.Station{ID: "a", Name: "Apple", Zone: 1})

	release := make(chan struct{})
	view := NewView(st, nil, gatedPriority(release), testLogger())
	defer view.Close()

	view.SetFilter(schema.ZoneAll)

	// Roster is known but priority is still in flight: nothing downstream.
	select {
	case got := <-view.Updates():
		t.Fatalf("premature emission before priority resolved: %+v", got)
	case <-time.After(150 * time.Millisecond):
	}

	close(release)

	got := recvUpdate(t, view)
	if len(got) != 1 || got[0].ID != "a" {
		t.Errorf("unexpected first update: %+v", got)
	}
}

func TestViewEmitsOnStoreChange(t *testing.T) {
	st := setupTestStore(t)
	seedStations(t, st, schema.Station{ID: "a", Name: "Apple", Zone: 1})

	view := NewView(st, nil, resolvedPriority(), testLogger())
	defer view.Close()

	view.SetFilter(schema.ZoneAll)
	_ = recvUpdate(t, view)

	seedStations(t, st, schema.Station{ID: "b", Name: "Banana", Zone: 1})

	deadline := time.After(2 * time.Second)
	for {
		select {
		case got, ok := <-view.Updates():
			if !ok {
				t.Fatal("updates closed early")
			}
			if len(got) == 2 {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for post-upsert emission")
		}
	}
}

func TestViewEpochDiscard(t *testing.T) {
	st := setupTestStore(t)
	seedStations(t, st,
		schema.Station{ID: "a", Name: "Apple", Zone: 1},
		schema.Station{ID: "b", Name: "Banana", Zone: 2},
	)

	// Hold the priority fetch so zone 1's combination cannot complete
	// before the switch to zone 2.
	release := make(chan struct{})
	view := NewView(st, nil, gatedPriority(release), testLogger())
	defer view.Close()

	view.SetFilter(1)
	view.SetFilter(2)
	close(release)

	// Every delivered result must belong to zone 2, even though zone 1's
	// computation may finish after the switch.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case got, ok := <-view.Updates():
			if !ok {
				t.Fatal("updates closed early")
			}
			for _, s := range got {
				if s.Zone != 2 {
					t.Fatalf("stale zone %d result delivered after switch: %+v", s.Zone, got)
				}
			}
			if len(got) == 1 && got[0].ID == "b" {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for zone 2 result")
		}
	}
}

func TestViewFilterSwitchKeepsPriorityFetchAlive(t *testing.T) {
	st := setupTestStore(t)
	seedStations(t, st,
		schema.Station{ID: "a", Name: "Alpha", Zone: 2},
		schema.Station{ID: "z", Name: "Zebra", Zone: 2},
	)

	// Gate the producer and count invocations. Switching filters while the
	// first fetch is in flight must not cancel it; the new epoch joins the
	// same call and gets the real order, not the fallback.
	var calls atomic.Int32
	release := make(chan struct{})
	cache := NewCache(
		func(ctx context.Context) ([]string, error) {
			calls.Add(1)
			select {
			case <-release:
				return []string{"z", "a"}, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
		func() []string { return nil },
	)

	view := NewView(st, nil, cache, testLogger())
	defer view.Close()

	view.SetFilter(1)
	view.SetFilter(2)
	close(release)

	got := recvUpdate(t, view)
	if len(got) != 2 || got[0].Name != "Zebra" || got[1].Name != "Alpha" {
		t.Fatalf("roster not priority-sorted after filter switch: %+v", got)
	}
	if !cache.Resolved() {
		t.Error("priority order should be resolved after the fetch completes")
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("producer ran %d times, want 1", n)
	}
}

func TestViewConcurrentSetFilterAndClose(t *testing.T) {
	st := setupTestStore(t)
	seedStations(t, st, schema.Station{ID: "a", Name: "Apple", Zone: 1})

	view := NewView(st, nil, resolvedPriority(), testLogger())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(zone int) {
			defer wg.Done()
			view.SetFilter(zone)
		}(i % 3)
	}
	view.Close()
	wg.Wait()

	// Close must have fully drained the workers and closed the stream.
	for range view.Updates() {
	}
}

func TestViewCoalescesUnderBackpressure(t *testing.T) {
	st := setupTestStore(t)
	seedStations(t, st, schema.Station{ID: "s0", Name: "Gen 0", Zone: 1})

	view := NewView(st, nil, resolvedPriority(), testLogger())
	defer view.Close()

	view.SetFilter(schema.ZoneAll)
	_ = recvUpdate(t, view)

	// Three rapid updates while the consumer is not draining. Intermediate
	// states may be dropped; the final one must eventually be observable.
	for i := 1; i <= 3; i++ {
		seedStations(t, st, schema.Station{ID: "s0", Name: "Gen " + string(rune('0'+i)), Zone: 1})
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case got, ok := <-view.Updates():
			if !ok {
				t.Fatal("updates closed early")
			}
			if len(got) == 1 && got[0].Name == "Gen 3" {
				return
			}
		case <-deadline:
			t.Fatal("final state never delivered")
		}
	}
}

func TestViewCurrentTracksLastDelivery(t *testing.T) {
	st := setupTestStore(t)
	seedStations(t, st, schema.Station{ID: "a", Name: "Apple", Zone: 1})

	view := NewView(st, nil, resolvedPriority(), testLogger())
	defer view.Close()

	if view.Current() != nil {
		t.Error("Current should be nil before the first delivery")
	}

	view.SetFilter(schema.ZoneAll)
	got := recvUpdate(t, view)

	cur := view.Current()
	if len(cur) != len(got) || cur[0] != got[0] {
		t.Errorf("Current = %+v, want last update %+v", cur, got)
	}
}

func TestViewSetFilterTriggersRefresh(t *testing.T) {
	st := setupTestStore(t)
	src := &fakeSource{stations: []schema.Station{
		{ID: "st-a", Name: "Ambient", Zone: 1},
		{ID: "st-b", Name: "Blues", Zone: 2},
	}}
	engine := NewEngine(st, src, nil, testLogger())

	view := NewView(st, engine, resolvedPriority(), testLogger())
	defer view.Close()

	// The store starts empty; the refresh kicked off by SetFilter fills it.
	view.SetFilter(2)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case got, ok := <-view.Updates():
			if !ok {
				t.Fatal("updates closed early")
			}
			if len(got) == 1 && got[0].ID == "st-b" {
				return
			}
		case <-deadline:
			t.Fatal("refresh-driven update never arrived")
		}
	}
}

func TestViewCloseClosesUpdates(t *testing.T) {
	st := setupTestStore(t)
	view := NewView(st, nil, resolvedPriority(), testLogger())

	view.SetFilter(schema.ZoneAll)
	view.Close()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-view.Updates():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("updates channel never closed")
		}
	}
}
