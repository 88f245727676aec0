// Package overpass queries the Overpass API for named OSM features.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"

	"whodunnit/pkg/request"
)

// Element is one node or way from an Overpass response. Ways carry
// their centroid in Center instead of Lat/Lon.
type Element struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    float64           `json:"lat,omitempty"`
	Lon    float64           `json:"lon,omitempty"`
	Center *Center           `json:"center,omitempty"`
	Tags   map[string]string `json:"tags,omitempty"`
}

// Center is the centroid of a way.
type Center struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Position returns the element's coordinates, preferring the node
// position and falling back to the way centroid.
func (e *Element) Position() (lat, lon float64, ok bool) {
	if e.Lat != 0 || e.Lon != 0 {
		return e.Lat, e.Lon, true
	}
	if e.Center != nil && (e.Center.Lat != 0 || e.Center.Lon != 0) {
		return e.Center.Lat, e.Center.Lon, true
	}
	return 0, 0, false
}

// Client executes queries against a single Overpass endpoint.
type Client struct {
	request  *request.Client
	endpoint string
}

// NewClient creates a new Overpass client for the given interpreter URL.
func NewClient(r *request.Client, endpoint string) *Client {
	return &Client{request: r, endpoint: endpoint}
}

// Endpoint returns the interpreter URL this client talks to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Execute runs an Overpass QL query and returns the raw elements.
func (c *Client) Execute(ctx context.Context, query string) ([]Element, error) {
	body, err := c.request.Post(ctx, c.endpoint, []byte(query), "text/plain")
	if err != nil {
		return nil, fmt.Errorf("overpass query: %w", err)
	}

	var resp struct {
		Elements []Element `json:"elements"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode json: %w", err)
	}
	return resp.Elements, nil
}
