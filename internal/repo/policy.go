package repo

import "context"

// RefreshPolicy decides whether the engine should hit the controller
// before serving local data.
//
// Implementations must be pure and total: no error path, no side effects.
// A real implementation could consult last-fetch timestamps or record
// counts from the store without callers changing.
type RefreshPolicy interface {
	// ShouldRefresh reports whether a remote refresh is warranted.
	ShouldRefresh(ctx context.Context) bool
}

// AlwaysRefresh refreshes on every request.
//
// TODO: replace with a staleness check once the controller exposes a
// roster version or last-modified signal.
type AlwaysRefresh struct{}

// ShouldRefresh implements RefreshPolicy.
func (AlwaysRefresh) ShouldRefresh(context.Context) bool { return true }

// NeverRefresh suppresses remote refreshes entirely. Used for offline
// operation and in tests that must not touch the network.
type NeverRefresh struct{}

// ShouldRefresh implements RefreshPolicy.
func (NeverRefresh) ShouldRefresh(context.Context) bool { return false }
