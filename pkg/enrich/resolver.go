// Package enrich resolves a coordinate to local context for script
// generation: nearby points of interest, current weather, and whatever
// administrative detail earlier lookups left in the cache.
package enrich

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"whodunnit/pkg/config"
	"whodunnit/pkg/model"
	"whodunnit/pkg/store"
	"whodunnit/pkg/tracker"
)

const providerName = "enrich"

// WeatherFetcher fetches a current-conditions snapshot.
type WeatherFetcher interface {
	Fetch(ctx context.Context, lat, lon float64) (*model.Weather, error)
}

// Resolver produces LocalEnrichment records. Each instance owns its
// cache store and coalescer, so tests get full isolation from fresh
// instances.
type Resolver struct {
	cache   store.CacheStore
	weather WeatherFetcher
	pois    POIFetcher
	tracker *tracker.Tracker

	poiTTL     time.Duration
	weatherTTL time.Duration

	inflight *inflightMap
	now      func() time.Time
}

// NewResolver creates a Resolver with the configured TTLs.
func NewResolver(cfg *config.EnrichConfig, cache store.CacheStore, weather WeatherFetcher, pois POIFetcher, tr *tracker.Tracker) *Resolver {
	return &Resolver{
		cache:      cache,
		weather:    weather,
		pois:       pois,
		tracker:    tr,
		poiTTL:     time.Duration(cfg.POITTL),
		weatherTTL: time.Duration(cfg.WeatherTTL),
		inflight:   newInflightMap(),
		now:        time.Now,
	}
}

// Resolve returns the local enrichment for a coordinate. Upstream
// failures degrade to empty or nil fields; the only error returned is
// the caller's own context expiring while waiting on a coalesced
// resolution.
func (r *Resolver) Resolve(ctx context.Context, lat, lon float64, name string) (*model.LocalEnrichment, error) {
	key := Key(lat, lon)

	c, owner := r.inflight.begin(key)
	if !owner {
		r.tracker.TrackCoalesced(providerName)
		select {
		case <-c.done:
			return c.val, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	out := r.doResolve(ctx, lat, lon, name, key)
	r.inflight.finish(key, c, out)
	return out, nil
}

func (r *Resolver) doResolve(ctx context.Context, lat, lon float64, name, key string) *model.LocalEnrichment {
	cached, age, hit := r.readCache(ctx, key)

	useCachedPOIs := hit && age < r.poiTTL && len(cached.TopPOIs) > 0
	useCachedWeather := hit && age < r.weatherTTL && cached.CurrentWeather != nil

	// An empty cached POI list is indistinguishable from a failed fetch
	// and must not become a permanent false negative. Persist a cleaned
	// record so later reads skip this correction.
	if hit && cached.TopPOIs != nil && len(cached.TopPOIs) == 0 {
		cleaned := *cached
		cleaned.TopPOIs = nil
		cleaned.PrimaryPOI = nil
		r.writeCache(ctx, key, &cleaned)
		cached = &cleaned
	}

	if useCachedPOIs || useCachedWeather {
		r.tracker.TrackCacheHit(providerName)
	} else {
		r.tracker.TrackCacheMiss(providerName)
	}

	var (
		weather   *model.Weather
		poiResult Result
	)

	// Both branches degrade on failure instead of propagating it, so
	// the group never cancels one branch because of the other.
	g, gctx := errgroup.WithContext(context.WithoutCancel(ctx))

	g.Go(func() error {
		if useCachedWeather {
			weather = cached.CurrentWeather
			return nil
		}
		w, err := r.weather.Fetch(gctx, lat, lon)
		if err != nil {
			slog.Warn("weather fetch failed", "lat", lat, "lon", lon, "error", err)
			return nil
		}
		weather = w
		return nil
	})

	g.Go(func() error {
		if useCachedPOIs {
			poiResult = reuseCachedPOIs(cached)
			return nil
		}
		poiResult = r.pois.Fetch(gctx, lat, lon, name)
		return nil
	})

	_ = g.Wait()

	out := &model.LocalEnrichment{
		CanonicalName:  name,
		Coordinates:    model.Coordinates{Lat: lat, Lon: lon},
		TopPOIs:        poiResult.POIs,
		PrimaryPOI:     poiResult.Primary,
		CurrentWeather: weather,
	}
	// Fields with no fresh-fetch path of their own survive from the
	// cached record.
	if cached != nil {
		if out.CanonicalName == "" {
			out.CanonicalName = cached.CanonicalName
		}
		out.Country = cached.Country
		out.Admin = cached.Admin
		out.Population = cached.Population
		out.Timezone = cached.Timezone
		out.ElevationMeters = cached.ElevationMeters
		out.NotableFacts = cached.NotableFacts
		out.WikiTitle = cached.WikiTitle
	}

	r.writeCache(ctx, key, out)
	return out
}

// reuseCachedPOIs re-filters a fresh cached POI list through the deny
// list (the list may have grown since the record was written) and
// re-derives the primary POI if the cached one no longer passes.
func reuseCachedPOIs(cached *model.LocalEnrichment) Result {
	filtered := FilterDenied(cached.TopPOIs)

	var primary *model.POI
	if cached.PrimaryPOI != nil && !Denied(cached.PrimaryPOI.Type) {
		primary = cached.PrimaryPOI
	}
	if primary == nil && len(filtered) > 0 {
		primary = &filtered[0]
	}
	return Result{POIs: filtered, Primary: primary}
}
