// Package schema defines the station data model shared across zoneview.
//
// A station is one entry in the roster of a multi-zone audio controller:
// an identifier, a display name, and the zone it belongs to. Stations are
// immutable values; a refresh replaces them wholesale by ID.
package schema

import "fmt"

// ZoneAll is the sentinel zone meaning "no zone filter".
const ZoneAll = -1

// Station represents one roster entry from the controller.
//
// Equality is structural: two stations are the same iff all fields match.
// IDs are unique within the roster; the controller is the source of truth.
type Station struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Zone int    `json:"zone"`
}

// Validate checks that the station has valid field values.
func (s *Station) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("id is required")
	}
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Zone < 0 && s.Zone != ZoneAll {
		return fmt.Errorf("zone must be non-negative (got %d)", s.Zone)
	}
	if s.Zone == ZoneAll {
		return fmt.Errorf("station cannot belong to the all-zones sentinel")
	}
	return nil
}

// ZoneLabel returns a human-readable label for a zone filter value.
func ZoneLabel(zone int) string {
	if zone == ZoneAll {
		return "all zones"
	}
	return fmt.Sprintf("zone %d", zone)
}
