// Package store provides the local SQLite cache of the station roster.
//
// The store is the system's only persistent state. It keeps a single
// stations table, replaced record-by-record on refresh (upsert by ID),
// and notifies live subscribers after every committed write so views can
// re-query without polling.
//
// The database runs in embedded mode with WAL for concurrent reads
// during writes. Multiple readers and one writer can share a store.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"zoneview/internal/schema"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Store wraps the SQLite connection with roster-specific operations and
// the in-process change notification hub.
type Store struct {
	conn   *sql.DB
	path   string
	logger *log.Logger

	hub subscriberHub
}

// Open creates a store backed by the SQLite database at path.
//
// The database is opened in embedded mode with WAL for concurrent reads.
// If the file doesn't exist it is created; call InitSchema before first use.
//
// The caller MUST call Close() when done.
//
// Example:
//
//	st, err := store.Open(".zoneview/stations.db", nil)
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
func Open(path string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.New(os.Stderr, "[store] ", log.LstdFlags)
	}

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	st := &Store{
		conn:   conn,
		path:   path,
		logger: logger,
	}

	// Enable WAL mode for concurrent reads
	if _, err := st.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := st.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return st, nil
}

// Close closes the database connection after detaching all subscribers.
// Performs a WAL checkpoint to ensure all changes are persisted.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}

	s.hub.closeAll()

	if _, err := s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		s.logger.Printf("Warning: failed to checkpoint WAL: %v", err)
	}

	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	s.conn = nil
	return nil
}

// InitSchema creates the stations table and indexes if they don't exist.
// Idempotent - safe to call multiple times.
func (s *Store) InitSchema(ctx context.Context) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS stations (
		id   TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		zone INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_stations_zone ON stations(zone);
	CREATE INDEX IF NOT EXISTS idx_stations_name ON stations(name);
	`

	if _, err := s.conn.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

// UpsertAll writes a batch of stations in one transaction, replacing on ID
// conflict. The write is all-or-nothing: if any station fails validation or
// any statement errors, nothing is applied.
//
// Subscribers registered through Observe are notified after the commit.
func (s *Store) UpsertAll(ctx context.Context, stations []schema.Station) error {
	for i := range stations {
		if err := stations[i].Validate(); err != nil {
			return fmt.Errorf("invalid station %q: %w", stations[i].ID, err)
		}
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
	INSERT INTO stations (id, name, zone) VALUES (?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		zone = excluded.zone
	`

	for i := range stations {
		st := &stations[i]
		if _, err := tx.ExecContext(ctx, query, st.ID, st.Name, st.Zone); err != nil {
			return fmt.Errorf("failed to upsert station %q: %w", st.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit upsert: %w", err)
	}

	s.hub.notifyAll()
	return nil
}

// ListStations returns stations ordered by name (ID as tie-break).
// Pass schema.ZoneAll to list every zone.
func (s *Store) ListStations(ctx context.Context, zone int) ([]schema.Station, error) {
	query := "SELECT id, name, zone FROM stations ORDER BY name, id"
	args := []any{}
	if zone != schema.ZoneAll {
		query = "SELECT id, name, zone FROM stations WHERE zone = ? ORDER BY name, id"
		args = append(args, zone)
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stations: %w", err)
	}
	defer rows.Close()

	var stations []schema.Station
	for rows.Next() {
		var st schema.Station
		if err := rows.Scan(&st.ID, &st.Name, &st.Zone); err != nil {
			return nil, fmt.Errorf("failed to scan station: %w", err)
		}
		stations = append(stations, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stations: %w", err)
	}

	return stations, nil
}

// CountStations returns the number of stations matching the zone filter.
func (s *Store) CountStations(ctx context.Context, zone int) (int, error) {
	query := "SELECT COUNT(*) FROM stations"
	args := []any{}
	if zone != schema.ZoneAll {
		query += " WHERE zone = ?"
		args = append(args, zone)
	}

	var count int
	if err := s.conn.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count stations: %w", err)
	}
	return count, nil
}
