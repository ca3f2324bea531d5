package dashboard

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"zoneview/internal/repo"
	"zoneview/internal/schema"
)

// RosterData is the payload of a MessageTypeRoster message.
type RosterData struct {
	Zone     int              `json:"zone"`
	Count    int              `json:"count"`
	Stations []schema.Station `json:"stations"`
}

// Feed bridges a repo.View to the dashboard server: every combined view
// emission becomes one roster broadcast.
type Feed struct {
	server *Server
	view   *repo.View
	logger *log.Logger
}

// NewFeed creates a feed publishing view updates through server.
func NewFeed(server *Server, view *repo.View, logger *log.Logger) *Feed {
	if logger == nil {
		logger = log.Default()
	}
	return &Feed{
		server: server,
		view:   view,
		logger: logger,
	}
}

// Run forwards view updates until ctx is canceled or the view closes.
// Blocks; run it in its own goroutine.
func (f *Feed) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case stations, ok := <-f.view.Updates():
			if !ok {
				return
			}
			msg, err := RosterMessage(f.view.Zone(), stations)
			if err != nil {
				f.logger.Printf("Failed to build roster message: %v", err)
				continue
			}
			f.server.Broadcast(msg)
		}
	}
}

// Snapshot returns the view's current roster as a message, for the
// server's connect-time snapshot hook. ok is false before the first
// combined result exists.
func (f *Feed) Snapshot() (Message, bool) {
	stations := f.view.Current()
	if stations == nil {
		return Message{}, false
	}
	msg, err := RosterMessage(f.view.Zone(), stations)
	if err != nil {
		return Message{}, false
	}
	return msg, true
}

// RosterMessage builds a roster broadcast message.
func RosterMessage(zone int, stations []schema.Station) (Message, error) {
	data, err := json.Marshal(RosterData{
		Zone:     zone,
		Count:    len(stations),
		Stations: stations,
	})
	if err != nil {
		return Message{}, err
	}
	return Message{
		Type:      MessageTypeRoster,
		Timestamp: time.Now(),
		Data:      data,
	}, nil
}
