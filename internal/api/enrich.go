package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"whodunnit/pkg/model"
)

// Enricher resolves local context for a coordinate.
type Enricher interface {
	Resolve(ctx context.Context, lat, lon float64, name string) (*model.LocalEnrichment, error)
}

// EnrichHandler serves local-enrichment lookups for the location picker.
type EnrichHandler struct {
	resolver Enricher
}

// NewEnrichHandler creates a new enrichment handler.
func NewEnrichHandler(r Enricher) *EnrichHandler {
	return &EnrichHandler{resolver: r}
}

// HandleEnrich handles GET /api/enrich?lat=..&lon=..&name=..
func (h *EnrichHandler) HandleEnrich(w http.ResponseWriter, r *http.Request) {
	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		http.Error(w, "invalid lat", http.StatusBadRequest)
		return
	}
	lon, err := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err != nil {
		http.Error(w, "invalid lon", http.StatusBadRequest)
		return
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		http.Error(w, "coordinates out of range", http.StatusBadRequest)
		return
	}
	name := r.URL.Query().Get("name")

	le, err := h.resolver.Resolve(r.Context(), lat, lon, name)
	if err != nil {
		slog.Error("Enrichment failed", "lat", lat, "lon", lon, "error", err)
		http.Error(w, "enrichment failed", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(le); err != nil {
		slog.Error("Failed to encode enrichment", "error", err)
	}
}
