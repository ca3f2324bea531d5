package repo

import (
	"context"
	"fmt"
	"log"
	"os"

	"zoneview/internal/schema"
	"zoneview/internal/store"
)

// Source is the controller surface the engine pulls rosters from.
// *remote.Client satisfies it.
type Source interface {
	// FetchAll returns the full station roster.
	FetchAll(ctx context.Context) ([]schema.Station, error)

	// FetchZone returns the roster scoped to one zone.
	FetchZone(ctx context.Context, zone int) ([]schema.Station, error)
}

// Engine synchronizes the local store with the controller.
//
// Each refresh is one fetch followed by one all-or-nothing upsert, so
// repeated calls with the same remote state converge the store without
// drift, and out-of-order completions are harmless (last write wins per
// station ID). Fetch failures are returned to the caller unretried; the
// store keeps its last-known-good content.
type Engine struct {
	store  *store.Store
	source Source
	policy RefreshPolicy
	logger *log.Logger
}

// NewEngine creates a sync engine.
//
// If policy is nil, AlwaysRefresh is used. If logger is nil, a default
// logger writing to stderr is used.
func NewEngine(st *store.Store, source Source, policy RefreshPolicy, logger *log.Logger) *Engine {
	if policy == nil {
		policy = AlwaysRefresh{}
	}
	if logger == nil {
		logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	return &Engine{
		store:  st,
		source: source,
		policy: policy,
		logger: logger,
	}
}

// RefreshAll pulls the full roster from the controller into the store.
//
// Returns nil without fetching when the policy declines. A fetch failure
// wraps *remote.FetchError and leaves the store untouched.
func (e *Engine) RefreshAll(ctx context.Context) error {
	if !e.policy.ShouldRefresh(ctx) {
		e.logger.Printf("Refresh skipped by policy (%s)", schema.ZoneLabel(schema.ZoneAll))
		return nil
	}

	stations, err := e.source.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("refresh all zones: %w", err)
	}

	if err := e.store.UpsertAll(ctx, stations); err != nil {
		return fmt.Errorf("refresh all zones: %w", err)
	}

	e.logger.Printf("Refreshed %d stations (all zones)", len(stations))
	return nil
}

// RefreshZone pulls one zone's roster from the controller into the store.
// schema.ZoneAll delegates to RefreshAll.
func (e *Engine) RefreshZone(ctx context.Context, zone int) error {
	if zone == schema.ZoneAll {
		return e.RefreshAll(ctx)
	}

	if !e.policy.ShouldRefresh(ctx) {
		e.logger.Printf("Refresh skipped by policy (%s)", schema.ZoneLabel(zone))
		return nil
	}

	stations, err := e.source.FetchZone(ctx, zone)
	if err != nil {
		return fmt.Errorf("refresh %s: %w", schema.ZoneLabel(zone), err)
	}

	if err := e.store.UpsertAll(ctx, stations); err != nil {
		return fmt.Errorf("refresh %s: %w", schema.ZoneLabel(zone), err)
	}

	e.logger.Printf("Refreshed %d stations (%s)", len(stations), schema.ZoneLabel(zone))
	return nil
}
