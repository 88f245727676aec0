// Package geocode wraps the Nominatim search API for place lookup and
// settlement autocomplete.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/paulmach/orb"

	"whodunnit/pkg/request"
)

// Address holds the structured address details of a search result.
type Address struct {
	City        string `json:"city,omitempty"`
	Town        string `json:"town,omitempty"`
	Village     string `json:"village,omitempty"`
	County      string `json:"county,omitempty"`
	State       string `json:"state,omitempty"`
	Country     string `json:"country,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
}

// Place is a single Nominatim search result.
type Place struct {
	Name        string
	DisplayName string
	Lat         float64
	Lon         float64
	Class       string
	Type        string
	BoundingBox *orb.Bound
	Address     Address
}

// Settlement reports whether the place is usable as a party location:
// a town-like place, anything with county/state context, or an
// administrative boundary (counties frequently come back as those).
func (p *Place) Settlement() bool {
	switch p.Type {
	case "city", "town", "village", "hamlet", "municipality":
		return true
	}
	if p.Address.County != "" || p.Address.State != "" {
		return true
	}
	return p.Class == "boundary" && p.Type == "administrative"
}

// Client handles Nominatim API interactions.
type Client struct {
	request *request.Client
	baseURL string
}

// NewClient creates a new Nominatim client.
func NewClient(r *request.Client, baseURL string) *Client {
	return &Client{request: r, baseURL: baseURL}
}

// Search performs a free-text place search.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Place, error) {
	if limit <= 0 {
		limit = 6
	}

	u, err := url.Parse(c.baseURL + "/search")
	if err != nil {
		return nil, fmt.Errorf("invalid nominatim url: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("addressdetails", "1")
	q.Set("limit", strconv.Itoa(limit))
	u.RawQuery = q.Encode()

	cacheKey := fmt.Sprintf("nominatim:search:%s:%d", query, limit)
	body, err := c.request.Get(ctx, u.String(), cacheKey)
	if err != nil {
		return nil, fmt.Errorf("nominatim search: %w", err)
	}

	var raw []struct {
		Name        string   `json:"name"`
		DisplayName string   `json:"display_name"`
		Lat         string   `json:"lat"`
		Lon         string   `json:"lon"`
		Class       string   `json:"class"`
		Type        string   `json:"type"`
		BoundingBox []string `json:"boundingbox"`
		Address     Address  `json:"address"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode json: %w", err)
	}

	places := make([]Place, 0, len(raw))
	for _, r := range raw {
		p := Place{
			Name:        r.Name,
			DisplayName: r.DisplayName,
			Class:       r.Class,
			Type:        r.Type,
			Address:     r.Address,
		}
		p.Lat, _ = strconv.ParseFloat(r.Lat, 64)
		p.Lon, _ = strconv.ParseFloat(r.Lon, 64)
		if b, ok := parseBoundingBox(r.BoundingBox); ok {
			p.BoundingBox = &b
		}
		places = append(places, p)
	}
	return places, nil
}

// SearchSettlements searches and keeps only town-like results.
func (c *Client) SearchSettlements(ctx context.Context, query string, limit int) ([]Place, error) {
	places, err := c.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	filtered := places[:0]
	for _, p := range places {
		if p.Settlement() {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// parseBoundingBox converts Nominatim's [south, north, west, east]
// string quadruple into an orb.Bound.
func parseBoundingBox(bb []string) (orb.Bound, bool) {
	if len(bb) != 4 {
		return orb.Bound{}, false
	}
	south, err1 := strconv.ParseFloat(bb[0], 64)
	north, err2 := strconv.ParseFloat(bb[1], 64)
	west, err3 := strconv.ParseFloat(bb[2], 64)
	east, err4 := strconv.ParseFloat(bb[3], 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return orb.Bound{}, false
	}
	return orb.Bound{
		Min: orb.Point{west, south},
		Max: orb.Point{east, north},
	}, true
}
