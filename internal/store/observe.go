package store

import (
	"context"
	"sync"

	"zoneview/internal/schema"
)

// Subscription is a live view of the store's content for one zone filter.
//
// The channel returned by C emits the current name-ordered station set once
// on subscribe and again after every committed write. Delivery is
// coalescing: if the consumer lags, intermediate snapshots are dropped and
// only the latest is kept. The channel is closed by Close (or when the
// store shuts down).
type Subscription struct {
	store *Store
	zone  int

	ch   chan []schema.Station
	kick chan struct{}
	done chan struct{}
	once sync.Once
}

// subscriberHub tracks active subscriptions and fans out change signals.
type subscriberHub struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
	wg   sync.WaitGroup
}

// Observe registers a live subscription for the given zone filter
// (schema.ZoneAll for the unfiltered roster).
//
// The subscription immediately emits the current store content, so a
// consumer sees locally-known data without waiting for any refresh.
// Callers MUST Close the subscription when done.
func (s *Store) Observe(zone int) *Subscription {
	sub := &Subscription{
		store: s,
		zone:  zone,
		ch:    make(chan []schema.Station, 1),
		kick:  make(chan struct{}, 1),
		done:  make(chan struct{}),
	}

	s.hub.mu.Lock()
	if s.hub.subs == nil {
		s.hub.subs = make(map[*Subscription]struct{})
	}
	s.hub.subs[sub] = struct{}{}
	s.hub.mu.Unlock()

	// Initial snapshot
	sub.kick <- struct{}{}

	s.hub.wg.Add(1)
	go sub.run()
	return sub
}

// notifyAll signals every subscription that the store content changed.
// The signal is non-blocking; a pending signal absorbs later ones.
func (h *subscriberHub) notifyAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs {
		select {
		case sub.kick <- struct{}{}:
		default:
		}
	}
}

// closeAll detaches every subscription, closing their channels.
func (h *subscriberHub) closeAll() {
	h.mu.Lock()
	subs := make([]*Subscription, 0, len(h.subs))
	for sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}

	// Wait for subscriber goroutines so no query races the connection close.
	h.wg.Wait()
}

// C returns the channel carrying station snapshots.
func (sub *Subscription) C() <-chan []schema.Station {
	return sub.ch
}

// Zone returns the zone filter this subscription was created with.
func (sub *Subscription) Zone() int {
	return sub.zone
}

// Close detaches the subscription from the store and closes its channel.
// Safe to call more than once.
func (sub *Subscription) Close() {
	sub.once.Do(func() {
		sub.store.hub.mu.Lock()
		delete(sub.store.hub.subs, sub)
		sub.store.hub.mu.Unlock()

		close(sub.done)
	})
}

// run re-queries the store on every change signal and publishes snapshots
// with latest-wins coalescing.
func (sub *Subscription) run() {
	defer sub.store.hub.wg.Done()
	defer close(sub.ch)

	for {
		select {
		case <-sub.done:
			return

		case <-sub.kick:
			stations, err := sub.store.ListStations(context.Background(), sub.zone)
			if err != nil {
				sub.store.logger.Printf("Warning: subscription query failed for %s: %v",
					schema.ZoneLabel(sub.zone), err)
				continue
			}

			// Latest-wins send: replace any undelivered snapshot.
			select {
			case sub.ch <- stations:
			default:
				select {
				case <-sub.ch:
				default:
				}
				select {
				case sub.ch <- stations:
				default:
				}
			}
		}
	}
}
