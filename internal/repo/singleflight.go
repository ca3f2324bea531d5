package repo

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache memoizes the result of one expensive, fallible computation.
//
// The first caller of Get becomes the initiator and runs the producer;
// concurrent callers join the in-flight computation and share its outcome.
// On success the value is cached for the remainder of the process and no
// further producer invocations happen. On failure every waiting caller
// receives the fallback value instead of an error, and the cache resets so
// the next caller after the failure starts a fresh attempt.
//
// At most one producer invocation is in flight at any time.
type Cache[T any] struct {
	produce  func(ctx context.Context) (T, error)
	fallback func() T

	group singleflight.Group

	mu       sync.RWMutex
	resolved bool
	value    T
}

// NewCache creates a cache around the given producer.
//
// fallback must be a pure function returning the substitute value handed to
// callers when the producer fails. It must not be nil.
//
// Example:
//
//	priority := repo.NewCache(
//	    client.FetchPriority,
//	    func() []string { return nil }, // unranked on failure
//	)
func NewCache[T any](produce func(ctx context.Context) (T, error), fallback func() T) *Cache[T] {
	return &Cache[T]{
		produce:  produce,
		fallback: fallback,
	}
}

// Get returns the cached value, joining or starting the producer as needed.
//
// Safe for concurrent use. The fast path (already resolved) takes a read
// lock only; callers never block each other while the producer runs, beyond
// joining the shared in-flight computation itself.
func (c *Cache[T]) Get(ctx context.Context) T {
	c.mu.RLock()
	if c.resolved {
		v := c.value
		c.mu.RUnlock()
		return v
	}
	c.mu.RUnlock()

	v, err, _ := c.group.Do("value", func() (any, error) {
		// A previous call may have resolved while we waited for the group.
		c.mu.RLock()
		if c.resolved {
			v := c.value
			c.mu.RUnlock()
			return v, nil
		}
		c.mu.RUnlock()

		val, err := c.produce(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.value = val
		c.resolved = true
		c.mu.Unlock()
		return val, nil
	})

	if err != nil {
		// Failed attempts are not memoized by the group, so the next
		// Get after this wave retries the producer.
		return c.fallback()
	}
	return v.(T)
}

// Resolved reports whether a successful value has been cached.
func (c *Cache[T]) Resolved() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resolved
}
