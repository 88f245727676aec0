package enrich

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"whodunnit/pkg/config"
	"whodunnit/pkg/geo"
	"whodunnit/pkg/geocode"
	"whodunnit/pkg/model"
	"whodunnit/pkg/overpass"
)

// wideRadiusCap limits how many POIs the wide-radius tier returns;
// distant hits are only a last resort and should not crowd the list.
const wideRadiusCap = 6

// Result is the outcome of the POI fetch chain. POIs is deny-list
// filtered and nearest-first; Primary is a member of POIs or nil.
type Result struct {
	POIs    []model.POI
	Primary *model.POI
}

// POIFetcher resolves nearby POIs for a coordinate.
type POIFetcher interface {
	Fetch(ctx context.Context, lat, lon float64, name string) Result
}

// Fetcher runs the tiered POI fetch chain: primary endpoint at standard
// radius, secondary endpoint on outage, wide radius on empty results,
// and finally a geocoder bounding-box search when a place name is known.
type Fetcher struct {
	primary   *overpass.Client
	secondary *overpass.Client
	geocoder  *geocode.Client

	standardRadius int
	wideRadius     int
	maxPOIs        int
}

// NewFetcher creates a Fetcher using the configured radii and limits.
func NewFetcher(primary, secondary *overpass.Client, geocoder *geocode.Client, cfg *config.EnrichConfig) *Fetcher {
	return &Fetcher{
		primary:        primary,
		secondary:      secondary,
		geocoder:       geocoder,
		standardRadius: int(cfg.StandardRadius),
		wideRadius:     int(cfg.WideRadius),
		maxPOIs:        cfg.MaxPOIs,
	}
}

// Fetch walks the tiers until one produces at least one POI surviving
// the deny list. All upstream failures degrade to the next tier; an
// empty Result is a normal outcome, not an error.
func (f *Fetcher) Fetch(ctx context.Context, lat, lon float64, name string) Result {
	// Tier 1: primary endpoint, standard radius
	query := overpass.BuildAroundQuery(lat, lon, f.standardRadius)
	elements, err := f.primary.Execute(ctx, query)
	if err != nil {
		slog.Warn("primary overpass endpoint failed", "endpoint", f.primary.Endpoint(), "error", err)
	}

	// Tier 2: secondary endpoint, only on zero raw elements
	if len(elements) == 0 {
		elements, err = f.secondary.Execute(ctx, query)
		if err != nil {
			slog.Warn("secondary overpass endpoint failed", "endpoint", f.secondary.Endpoint(), "error", err)
		}
	}

	raw := parseElements(lat, lon, elements, f.maxPOIs)
	if filtered := FilterDenied(raw); len(filtered) > 0 {
		return Result{POIs: filtered, Primary: pickPrimary(raw, filtered)}
	}

	// Tier 3: primary endpoint, wide radius
	if r, ok := f.fetchWide(ctx, lat, lon); ok {
		return r
	}

	// Tier 4: geocoder bounding box, only with a name to resolve
	if name != "" {
		if r, ok := f.fetchBBox(ctx, lat, lon, name); ok {
			return r
		}
	}

	return Result{}
}

func (f *Fetcher) fetchWide(ctx context.Context, lat, lon float64) (Result, bool) {
	elements, err := f.primary.Execute(ctx, overpass.BuildAroundQuery(lat, lon, f.wideRadius))
	if err != nil {
		slog.Warn("wide-radius overpass query failed", "error", err)
		return Result{}, false
	}

	raw := parseElements(lat, lon, elements, wideRadiusCap)
	filtered := FilterDenied(raw)
	if len(filtered) == 0 {
		return Result{}, false
	}
	return Result{POIs: filtered, Primary: &filtered[0]}, true
}

func (f *Fetcher) fetchBBox(ctx context.Context, lat, lon float64, name string) (Result, bool) {
	places, err := f.geocoder.Search(ctx, name, 1)
	if err != nil {
		slog.Warn("geocoder bbox lookup failed", "name", name, "error", err)
		return Result{}, false
	}
	if len(places) == 0 || places[0].BoundingBox == nil {
		return Result{}, false
	}

	elements, err := f.primary.Execute(ctx, overpass.BuildBBoxQuery(*places[0].BoundingBox))
	if err != nil {
		slog.Warn("bbox overpass query failed", "name", name, "error", err)
		return Result{}, false
	}

	filtered := FilterDenied(parseElements(lat, lon, elements, f.maxPOIs))
	if len(filtered) == 0 {
		return Result{}, false
	}
	return Result{POIs: filtered, Primary: SelectPrimary(filtered)}, true
}

// pickPrimary scores the pre-deny-list raw set, falling back to the
// first filtered entry if the raw winner is itself denied. The returned
// pointer always aliases a member of filtered.
func pickPrimary(raw, filtered []model.POI) *model.POI {
	winner := SelectPrimary(raw)
	if winner != nil && !Denied(winner.Type) {
		for i := range filtered {
			if filtered[i] == *winner {
				return &filtered[i]
			}
		}
	}
	return &filtered[0]
}

// parseElements converts raw Overpass elements to POIs: named features
// only, no major roadways, no administrative sub-localities. Output is
// nearest-first and capped.
func parseElements(lat, lon float64, elements []overpass.Element, limit int) []model.POI {
	var pois []model.POI
	for i := range elements {
		e := &elements[i]
		tags := e.Tags
		if tags == nil {
			continue
		}
		switch tags["highway"] {
		case "motorway", "motorway_link", "trunk", "trunk_link":
			continue
		}
		name := tags["name"]
		if name == "" {
			continue
		}
		switch tags["place"] {
		case "suburb", "neighbourhood", "locality":
			continue
		}
		elat, elon, ok := e.Position()
		if !ok {
			continue
		}

		d := geo.Distance(geo.Point{Lat: lat, Lon: lon}, geo.Point{Lat: elat, Lon: elon})
		pois = append(pois, model.POI{
			Name:           name,
			Type:           poiType(tags),
			DistanceMeters: int(math.Round(d)),
			Wikidata:       tags["wikidata"],
			Wikipedia:      tags["wikipedia"],
		})
	}

	sort.SliceStable(pois, func(i, j int) bool {
		return pois[i].DistanceMeters < pois[j].DistanceMeters
	})
	if len(pois) > limit {
		pois = pois[:limit]
	}
	return pois
}

// poiType derives the display category from the first matching tag.
// The order is fixed; "place" is the catch-all.
func poiType(tags map[string]string) string {
	for _, key := range []string{"amenity", "tourism", "historic", "shop", "leisure", "office", "building"} {
		if v := tags[key]; v != "" {
			return v
		}
	}
	return "place"
}
