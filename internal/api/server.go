// Package api exposes the HTTP surface of the server: enrichment
// lookups, settlement search, script generation and stored scripts.
package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"whodunnit/pkg/version"
)

// NewServer creates and configures the HTTP server.
// It accepts handlers for all API endpoints and a shutdownFunc for graceful shutdown.
func NewServer(addr string, enrichH *EnrichHandler, searchH *SearchHandler, genH *GenerateHandler, scriptsH *ScriptHandler, stats *StatsHandler, shutdown func()) *http.Server {
	mux := http.NewServeMux()

	// 1. Health Endpoint
	mux.HandleFunc("GET /health", handleHealth)

	// 2. Version Endpoint
	mux.HandleFunc("GET /api/version", handleVersion)

	// 3. Stats Endpoint
	mux.Handle("GET /api/stats", stats)

	// 4. Location Endpoints
	mux.HandleFunc("GET /api/enrich", enrichH.HandleEnrich)
	mux.HandleFunc("GET /api/search", searchH.HandleSearch)

	// 5. Script Endpoints
	mux.HandleFunc("POST /api/generate", genH.HandleGenerate)
	mux.HandleFunc("GET /api/scripts", scriptsH.HandleList)
	mux.HandleFunc("GET /api/scripts/{id}", scriptsH.HandleGet)

	// 6. Shutdown Endpoint
	mux.HandleFunc("POST /api/shutdown", func(w http.ResponseWriter, r *http.Request) {
		slog.Info("Graceful shutdown initiated via API")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("Shutting down...")); err != nil {
			slog.Error("Failed to write shutdown response", "error", err)
		}
		// Call shutdown in a goroutine to allow response to flush
		go func() {
			time.Sleep(100 * time.Millisecond)
			shutdown()
		}()
	})

	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 300 * time.Second, // script generation can take minutes
		IdleTimeout:  60 * time.Second,
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Failed to write health response", "error", err)
	}
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := fmt.Fprintf(w, `{"version": "%s"}`, version.Version); err != nil {
		slog.Error("Failed to write version response", "error", err)
	}
}
