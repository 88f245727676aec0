package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"whodunnit/pkg/geocode"
)

const defaultSearchLimit = 5

// Geocoder searches for settlements matching a free-text query.
type Geocoder interface {
	SearchSettlements(ctx context.Context, query string, limit int) ([]geocode.Place, error)
}

// SearchHandler serves the location autocomplete.
type SearchHandler struct {
	geocoder Geocoder
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(g Geocoder) *SearchHandler {
	return &SearchHandler{geocoder: g}
}

// PlaceDTO is one autocomplete suggestion.
type PlaceDTO struct {
	Name        string  `json:"name"`
	DisplayName string  `json:"displayName"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

// HandleSearch handles GET /api/search?q=..&limit=..
func (h *SearchHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if len(query) < 2 {
		http.Error(w, "query too short", http.StatusBadRequest)
		return
	}

	limit := defaultSearchLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		if val, err := strconv.Atoi(s); err == nil && val > 0 && val <= 20 {
			limit = val
		}
	}

	places, err := h.geocoder.SearchSettlements(r.Context(), query, limit)
	if err != nil {
		slog.Error("Settlement search failed", "query", query, "error", err)
		http.Error(w, "search failed", http.StatusBadGateway)
		return
	}

	results := make([]PlaceDTO, 0, len(places))
	for _, p := range places {
		results = append(results, PlaceDTO{
			Name:        p.Name,
			DisplayName: p.DisplayName,
			Lat:         p.Lat,
			Lon:         p.Lon,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(results); err != nil {
		slog.Error("Failed to encode search results", "error", err)
	}
}
