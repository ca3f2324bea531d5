// Package repo implements zoneview's refresh/cache/combine core.
//
// # Overview
//
// The package sits between the local SQLite store and the controller API
// and does three jobs:
//
//  1. Memoize the controller's expensive priority-order computation so it
//     runs at most once per process, with concurrent callers sharing one
//     in-flight fetch (Cache).
//  2. Pull fresh rosters from the controller into the local store when the
//     refresh policy allows it (Engine).
//  3. Combine the live local roster with the priority order into a sorted,
//     auto-updating view delivered to any number of consumers (View).
//
// # Data flow
//
//	consumer sets a zone filter
//	     ↓
//	View switches its store subscription and kicks a refresh
//	     ↓
//	Engine: controller API → store.UpsertAll (replace by ID)
//	     ↓
//	store emits the updated roster → View recombines with the cached
//	priority order, sorts off the delivery path, and publishes the
//	result on a latest-wins channel
//
// # Delivery discipline
//
// View.Updates is a single-slot coalescing channel: a slow consumer is
// guaranteed to eventually observe the latest roster but may miss
// intermediate states. Switching the zone filter bumps an internal epoch;
// results computed under an older epoch are discarded at the delivery
// boundary, so a consumer never sees data for a filter it has left.
package repo
