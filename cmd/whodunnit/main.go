package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"whodunnit/internal/api"
	"whodunnit/pkg/config"
	"whodunnit/pkg/db"
	"whodunnit/pkg/enrich"
	"whodunnit/pkg/geocode"
	"whodunnit/pkg/llm"
	"whodunnit/pkg/llm/gemini"
	"whodunnit/pkg/llm/mock"
	"whodunnit/pkg/llm/openai"
	"whodunnit/pkg/logging"
	"whodunnit/pkg/mystery"
	"whodunnit/pkg/overpass"
	"whodunnit/pkg/probe"
	"whodunnit/pkg/prompt"
	"whodunnit/pkg/request"
	"whodunnit/pkg/store"
	"whodunnit/pkg/tracker"
	"whodunnit/pkg/version"
	"whodunnit/pkg/weather"
	"whodunnit/pkg/wikipedia"
)

var (
	configPath = flag.String("config", "configs/whodunnit.yaml", "Path to config file")
	initConfig = flag.Bool("init-config", false, "Generate default config file and exit")
)

func main() {
	flag.Parse()

	// API keys may live in a local .env during development.
	_ = godotenv.Load()

	if *initConfig {
		if err := config.GenerateDefault(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Config file generated: %s\n", *configPath)
		return
	}

	if err := run(context.Background(), *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	appCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&appCfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("Whodunnit Started", "version", version.Version)

	dbConn, err := db.Init(appCfg.DB.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbConn.Close()

	if err := dbConn.PruneCache(30 * 24 * time.Hour); err != nil {
		slog.Warn("Cache pruning failed", "error", err)
	}

	st := store.NewSQLiteStore(dbConn)
	tr := tracker.New()
	reqClient := request.NewWithConfig(st, tr, request.ClientConfig{
		Retries:   appCfg.Request.Retries,
		Timeout:   time.Duration(appCfg.Request.Timeout),
		BaseDelay: time.Duration(appCfg.Request.Backoff.BaseDelay),
		MaxDelay:  time.Duration(appCfg.Request.Backoff.MaxDelay),
	})

	// Upstream clients
	primary := overpass.NewClient(reqClient, appCfg.Enrich.OverpassPrimary)
	secondary := overpass.NewClient(reqClient, appCfg.Enrich.OverpassSecondary)
	geocoder := geocode.NewClient(reqClient, appCfg.Enrich.NominatimURL)
	weatherClient := weather.NewClient(reqClient, appCfg.Enrich.OpenMeteoURL)
	wikiClient := wikipedia.NewClient(reqClient, appCfg.Enrich.WikipediaURL)

	// Enrichment pipeline
	fetcher := enrich.NewFetcher(primary, secondary, geocoder, &appCfg.Enrich)
	resolver := enrich.NewResolver(&appCfg.Enrich, st, weatherClient, fetcher, tr)

	// Script generation
	provider, err := initProvider(appCfg, reqClient, tr)
	if err != nil {
		return fmt.Errorf("failed to initialize LLM provider: %w", err)
	}

	promptMgr, err := prompt.NewManager()
	if err != nil {
		return fmt.Errorf("failed to load prompt templates: %w", err)
	}

	generator := mystery.NewGenerator(provider, promptMgr, resolver, wikiClient, st, appCfg.Game)

	// Startup Probes
	probes := []probe.Probe{
		{
			Name:     "LLM Provider",
			Check:    provider.HealthCheck,
			Critical: appCfg.LLM.Provider != "mock",
		},
	}
	results := probe.Run(ctx, probes)
	if err := probe.AnalyzeResults(results); err != nil {
		return fmt.Errorf("startup checks failed: %w", err)
	}

	return runServer(ctx, appCfg, resolver, geocoder, generator, st, tr)
}

// initProvider selects the configured LLM backend. "mock" answers with a
// canned script and needs no API key.
func initProvider(cfg *config.Config, rc *request.Client, tr *tracker.Tracker) (llm.Provider, error) {
	switch cfg.LLM.Provider {
	case "gemini", "":
		return gemini.NewClient(cfg.LLM, "logs/gemini.log", tr)
	case "openai":
		return openai.NewClient(cfg.LLM, rc)
	case "mock":
		p := mock.New()
		p.JSONResponse = mockScript
		return p, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}

func runServer(ctx context.Context, cfg *config.Config, resolver *enrich.Resolver, geocoder *geocode.Client, generator *mystery.Generator, st store.Store, tr *tracker.Tracker) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	shutdownFunc := func() { quit <- syscall.SIGTERM }

	srv := api.NewServer(cfg.Server.Address,
		api.NewEnrichHandler(resolver),
		api.NewSearchHandler(geocoder),
		api.NewGenerateHandler(generator),
		api.NewScriptHandler(st),
		api.NewStatsHandler(tr),
		shutdownFunc,
	)

	srv.Handler = loggingMiddleware(srv.Handler)

	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case <-quit:
		slog.Info("Shutting down server...")
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.RequestLogger.Info("Request Processed", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
