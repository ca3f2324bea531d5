package repo

import (
	"context"
	"log"
	"os"
	"sync"

	"zoneview/internal/schema"
	"zoneview/internal/store"
)

// View combines the live local roster with the cached priority order into
// a sorted, auto-updating stream.
//
// A view has one active zone filter at a time. SetFilter switches the
// store subscription, cancels in-flight work from the previous filter, and
// concurrently triggers the matching engine refresh so consumers see
// locally-known data immediately while the network round trip runs.
//
// Results are published on a single-slot latest-wins channel: a consumer
// that falls behind misses intermediate states but always eventually
// observes the newest one. After a filter switch, no result computed under
// the old filter is ever delivered, even if its computation finishes later.
type View struct {
	store    *store.Store
	engine   *Engine
	priority *Cache[[]string]
	logger   *log.Logger

	mu      sync.Mutex
	epoch   uint64
	cancel  context.CancelFunc
	zone    int
	current []schema.Station
	closed  bool

	updates chan []schema.Station
	wg      sync.WaitGroup
}

// NewView creates a view over the given store, engine, and priority cache.
//
// engine may be nil, in which case filter switches do not trigger remote
// refreshes (offline mode). The view is idle until the first SetFilter.
func NewView(st *store.Store, engine *Engine, priority *Cache[[]string], logger *log.Logger) *View {
	if logger == nil {
		logger = log.New(os.Stderr, "[view] ", log.LstdFlags)
	}
	return &View{
		store:    st,
		engine:   engine,
		priority: priority,
		logger:   logger,
		zone:     schema.ZoneAll,
		updates:  make(chan []schema.Station, 1),
	}
}

// SetFilter switches the view to the given zone (schema.ZoneAll for the
// full roster).
//
// The previous filter's subscription and in-flight combine work are
// canceled; anything they still deliver is discarded. A refresh for the
// new filter is kicked off concurrently - its failure is logged, not
// surfaced, and the local roster stays last-known-good.
func (v *View) SetFilter(zone int) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	if v.cancel != nil {
		v.cancel()
	}
	v.epoch++
	epoch := v.epoch
	v.zone = zone
	ctx, cancel := context.WithCancel(context.Background())
	v.cancel = cancel
	// Add before releasing the lock so a concurrent Close cannot reach
	// wg.Wait between the closed check and the worker registration.
	v.wg.Add(2)
	v.mu.Unlock()

	go v.refresh(ctx, zone)
	go v.run(ctx, epoch, zone)
}

// Updates returns the coalescing stream of sorted rosters.
// The channel is closed by Close.
func (v *View) Updates() <-chan []schema.Station {
	return v.updates
}

// Current returns the most recently delivered roster, or nil if nothing
// has been delivered yet. Adapter for consumers that poll instead of
// ranging over Updates.
func (v *View) Current() []schema.Station {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Zone returns the active zone filter.
func (v *View) Zone() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.zone
}

// Close tears down the view: the active subscription is canceled, workers
// are drained, and the updates channel is closed.
func (v *View) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	if v.cancel != nil {
		v.cancel()
	}
	v.mu.Unlock()

	v.wg.Wait()
	close(v.updates)
}

// refresh triggers the engine for the given filter. Runs concurrently
// with the combine loop so consumers are never blocked on the network.
func (v *View) refresh(ctx context.Context, zone int) {
	defer v.wg.Done()

	if v.engine == nil {
		return
	}

	var err error
	if zone == schema.ZoneAll {
		err = v.engine.RefreshAll(ctx)
	} else {
		err = v.engine.RefreshZone(ctx, zone)
	}
	if err != nil && ctx.Err() == nil {
		v.logger.Printf("Refresh failed for %s, serving last known state: %v",
			schema.ZoneLabel(zone), err)
	}
}

// run is the combine loop for one filter epoch. It waits until both the
// roster and the priority order are known, then re-sorts and delivers on
// every upstream change. Sorting happens here, off the consumer's path.
func (v *View) run(ctx context.Context, epoch uint64, zone int) {
	defer v.wg.Done()

	sub := v.store.Observe(zone)
	defer sub.Close()

	// The priority order is process-scoped, not epoch-scoped: a filter
	// switch must not cancel the shared fetch, or every joiner of the
	// doomed attempt would be pinned to the fallback with no retry.
	prioCh := make(chan []string, 1)
	go func() {
		prioCh <- v.priority.Get(context.WithoutCancel(ctx))
	}()

	var (
		stations     []schema.Station
		priority     []string
		haveStations bool
		havePriority bool
	)

	for {
		select {
		case <-ctx.Done():
			return

		case p := <-prioCh:
			priority = p
			havePriority = true

		case snapshot, ok := <-sub.C():
			if !ok {
				return
			}
			stations = snapshot
			haveStations = true
		}

		if haveStations && havePriority {
			select {
			case <-ctx.Done():
				return
			case sorted := <-SortStationsAsync(stations, priority):
				v.deliver(epoch, sorted)
			}
		}
	}
}

// deliver publishes a sorted roster unless its epoch is stale. The epoch
// check and the channel swap happen under one lock so a SetFilter that
// raced with the computation always wins.
func (v *View) deliver(epoch uint64, stations []schema.Station) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed || epoch != v.epoch {
		return
	}
	v.current = stations

	select {
	case v.updates <- stations:
	default:
		select {
		case <-v.updates:
		default:
		}
		select {
		case v.updates <- stations:
		default:
		}
	}
}
