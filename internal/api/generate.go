package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"whodunnit/pkg/model"
	"whodunnit/pkg/store"
)

// ScriptGenerator produces a full mystery script from a party config.
type ScriptGenerator interface {
	Generate(ctx context.Context, cfg *model.MysteryConfig, selected []model.POI) (*store.ScriptRecord, error)
}

// GenerateHandler runs script generation requests.
type GenerateHandler struct {
	gen ScriptGenerator
}

// NewGenerateHandler creates a new generation handler.
func NewGenerateHandler(g ScriptGenerator) *GenerateHandler {
	return &GenerateHandler{gen: g}
}

// GenerateRequest is the POST /api/generate body.
type GenerateRequest struct {
	Config       model.MysteryConfig `json:"config"`
	SelectedPOIs []model.POI         `json:"selectedPOIs,omitempty"`
}

// HandleGenerate handles POST /api/generate.
func (h *GenerateHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	rec, err := h.gen.Generate(r.Context(), &req.Config, req.SelectedPOIs)
	if err != nil {
		slog.Error("Script generation failed", "holiday", req.Config.HolidayLabel(), "error", err)
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(rec); err != nil {
		slog.Error("Failed to encode generated script", "error", err)
	}
}
