// Package remote provides the HTTP client for the zone controller API.
//
// The controller exposes a small JSON API:
//
//	GET /api/stations          → full station roster
//	GET /api/stations?zone=N   → roster scoped to one zone
//	GET /api/priority          → ordered list of station IDs (custom priority)
//
// All failures are reported as *FetchError. The client imposes a request
// timeout through its http.Client; nothing in the core layers above adds
// another one.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"zoneview/internal/schema"
)

// DefaultTimeout bounds a single controller API call.
const DefaultTimeout = 30 * time.Second

// Client talks to the zone controller's HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a controller API client for the given base URL.
//
// If httpClient is nil, a default client with DefaultTimeout is used.
//
// Example:
//
//	client := remote.NewClient("http://amp.local:9090", nil)
//	stations, err := client.FetchAll(ctx)
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// FetchAll returns the controller's full station roster.
func (c *Client) FetchAll(ctx context.Context) ([]schema.Station, error) {
	var stations []schema.Station
	if err := c.getJSON(ctx, "stations", "/api/stations", nil, &stations); err != nil {
		return nil, err
	}
	return stations, nil
}

// FetchZone returns the roster scoped to a single zone.
func (c *Client) FetchZone(ctx context.Context, zone int) ([]schema.Station, error) {
	query := url.Values{"zone": []string{strconv.Itoa(zone)}}
	var stations []schema.Station
	if err := c.getJSON(ctx, "stations", "/api/stations", query, &stations); err != nil {
		return nil, err
	}
	return stations, nil
}

// FetchPriority returns the user's custom station ordering as a list of
// station IDs, highest priority first. Computing this is expensive on the
// controller side, which is why callers memoize the result.
func (c *Client) FetchPriority(ctx context.Context) ([]string, error) {
	var ids []string
	if err := c.getJSON(ctx, "priority", "/api/priority", nil, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// getJSON performs a GET against the controller and decodes the JSON body.
// Every failure path is wrapped in *FetchError.
func (c *Client) getJSON(ctx context.Context, op, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &FetchError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &FetchError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &FetchError{Op: op, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &FetchError{Op: op, Err: fmt.Errorf("decoding response: %w", err)}
	}

	return nil
}
