package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"whodunnit/pkg/store"
)

// ScriptHandler serves stored scripts.
type ScriptHandler struct {
	scripts store.ScriptStore
}

// NewScriptHandler creates a new script handler.
func NewScriptHandler(s store.ScriptStore) *ScriptHandler {
	return &ScriptHandler{scripts: s}
}

// ScriptSummaryDTO is one entry in the script list.
type ScriptSummaryDTO struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Holiday  string `json:"holiday"`
	Location string `json:"location,omitempty"`
	Players  int    `json:"players"`
}

// HandleList handles GET /api/scripts.
func (h *ScriptHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		if val, err := strconv.Atoi(s); err == nil && val > 0 {
			limit = val
		}
	}

	recs, err := h.scripts.ListScripts(r.Context(), limit)
	if err != nil {
		slog.Error("Failed to list scripts", "error", err)
		http.Error(w, "failed to list scripts", http.StatusInternalServerError)
		return
	}

	results := make([]ScriptSummaryDTO, 0, len(recs))
	for _, rec := range recs {
		results = append(results, ScriptSummaryDTO{
			ID:       rec.ID,
			Title:    rec.Title,
			Holiday:  rec.Holiday,
			Location: rec.Location,
			Players:  len(rec.Config.Players),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(results); err != nil {
		slog.Error("Failed to encode script list", "error", err)
	}
}

// HandleGet handles GET /api/scripts/{id}.
func (h *ScriptHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "script id required", http.StatusBadRequest)
		return
	}

	rec, err := h.scripts.GetScript(r.Context(), id)
	if err != nil {
		slog.Error("Failed to load script", "id", id, "error", err)
		http.Error(w, "failed to load script", http.StatusInternalServerError)
		return
	}
	if rec == nil {
		http.Error(w, "script not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(rec); err != nil {
		slog.Error("Failed to encode script", "error", err)
	}
}
