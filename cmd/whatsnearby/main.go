// Package main provides a debugging CLI tool that runs the local
// enrichment pipeline for a coordinate and prints the result: admin
// context, weather, and the scored nearby places with the chosen
// primary. Useful for checking what a party location will feed into
// the script prompt.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"whodunnit/pkg/config"
	"whodunnit/pkg/db"
	"whodunnit/pkg/enrich"
	"whodunnit/pkg/geocode"
	"whodunnit/pkg/overpass"
	"whodunnit/pkg/request"
	"whodunnit/pkg/store"
	"whodunnit/pkg/tracker"
	"whodunnit/pkg/weather"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfgPath := flag.String("config", "configs/whodunnit.yaml", "Path to config file")
	lat := flag.Float64("lat", 0, "Latitude")
	lon := flag.Float64("lon", 0, "Longitude")
	name := flag.String("name", "", "Place name (enables the bounding-box fallback)")
	asJSON := flag.Bool("json", false, "Print the raw enrichment record as JSON")
	flag.Parse()

	if *lat == 0 && *lon == 0 {
		flag.Usage()
		return fmt.Errorf("lat and lon are required")
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	database, err := db.Init(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	st := store.NewSQLiteStore(database)
	tr := tracker.New()
	rc := request.NewWithConfig(st, tr, request.ClientConfig{
		Retries:   cfg.Request.Retries,
		Timeout:   time.Duration(cfg.Request.Timeout),
		BaseDelay: time.Duration(cfg.Request.Backoff.BaseDelay),
		MaxDelay:  time.Duration(cfg.Request.Backoff.MaxDelay),
	})

	primary := overpass.NewClient(rc, cfg.Enrich.OverpassPrimary)
	secondary := overpass.NewClient(rc, cfg.Enrich.OverpassSecondary)
	geocoder := geocode.NewClient(rc, cfg.Enrich.NominatimURL)
	weatherClient := weather.NewClient(rc, cfg.Enrich.OpenMeteoURL)

	fetcher := enrich.NewFetcher(primary, secondary, geocoder, &cfg.Enrich)
	resolver := enrich.NewResolver(&cfg.Enrich, st, weatherClient, fetcher, tr)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	start := time.Now()
	le, err := resolver.Resolve(ctx, *lat, *lon, *name)
	if err != nil {
		return fmt.Errorf("enrichment failed: %w", err)
	}
	elapsed := time.Since(start).Round(time.Millisecond)

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(le)
	}

	fmt.Printf("Position: %.4f, %.4f (%s)\n", *lat, *lon, elapsed)
	if le.CanonicalName != "" {
		fmt.Printf("Name: %s\n", le.CanonicalName)
	}
	if len(le.Admin) > 0 {
		fmt.Printf("Admin: %v\n", le.Admin)
	}
	if le.Population != nil {
		fmt.Printf("Population: %d\n", *le.Population)
	}
	if le.CurrentWeather != nil {
		fmt.Printf("Weather: %.1f°C (code %s)\n", le.CurrentWeather.TempC, le.CurrentWeather.Condition)
	}

	if len(le.TopPOIs) == 0 {
		fmt.Println("\nNo nearby places found.")
		return nil
	}

	fmt.Printf("\nNearby places (%d):\n", len(le.TopPOIs))
	for _, p := range le.TopPOIs {
		marker := "  "
		if le.PrimaryPOI != nil && p.Name == le.PrimaryPOI.Name {
			marker = "* "
		}
		score := enrich.Score(&p)
		fmt.Printf("%s%-40s %-12s %5dm  score=%d\n", marker, p.Name, p.Type, p.DistanceMeters, score)
	}
	if le.PrimaryPOI != nil {
		fmt.Printf("\nPrimary: %s (%s)\n", le.PrimaryPOI.Name, le.PrimaryPOI.Type)
	}

	return nil
}
