package enrich

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"whodunnit/pkg/config"
	"whodunnit/pkg/geocode"
	"whodunnit/pkg/overpass"
	"whodunnit/pkg/request"
	"whodunnit/pkg/tracker"
)

type nopCache struct{}

func (nopCache) GetCache(ctx context.Context, key string) ([]byte, bool)       { return nil, false }
func (nopCache) HasCache(ctx context.Context, key string) (bool, error)        { return false, nil }
func (nopCache) SetCache(ctx context.Context, key string, val []byte) error    { return nil }
func (nopCache) ListCacheKeys(ctx context.Context, p string) ([]string, error) { return nil, nil }

const emptyElements = `{"elements": []}`

// museumAndBank puts a museum 200m and a bank 50m from the Edinburgh
// test origin (55.9533, -3.1883). 0.0018 degrees of longitude is about
// 112m at that latitude.
const museumAndBank = `{"elements": [
	{"type": "node", "id": 1, "lat": 55.9551, "lon": -3.1883, "tags": {"name": "National Museum", "tourism": "museum"}},
	{"type": "node", "id": 2, "lat": 55.95375, "lon": -3.1883, "tags": {"name": "High St Bank", "amenity": "bank"}}
]}`

type chainFixture struct {
	fetcher        *Fetcher
	primaryCalls   *int
	secondaryCalls *int
	nominatimCalls *int
}

// newChainFixture wires a Fetcher against three stub servers. Handlers
// get the request body (Overpass) or query (Nominatim) and return a
// JSON response.
func newChainFixture(t *testing.T, primaryHandler, secondaryHandler func(body string) string, nominatimHandler func(q string) string) chainFixture {
	t.Helper()

	var pCalls, sCalls, nCalls int
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pCalls++
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(primaryHandler(string(body))))
	}))
	t.Cleanup(primary.Close)

	secondary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sCalls++
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(secondaryHandler(string(body))))
	}))
	t.Cleanup(secondary.Close)

	nominatim := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nCalls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(nominatimHandler(r.URL.Query().Get("q"))))
	}))
	t.Cleanup(nominatim.Close)

	rc := request.New(nopCache{}, tracker.New())
	cfg := &config.EnrichConfig{StandardRadius: 5000, WideRadius: 20000, MaxPOIs: 12}
	f := NewFetcher(
		overpass.NewClient(rc, primary.URL),
		overpass.NewClient(rc, secondary.URL),
		geocode.NewClient(rc, nominatim.URL),
		cfg,
	)
	return chainFixture{fetcher: f, primaryCalls: &pCalls, secondaryCalls: &sCalls, nominatimCalls: &nCalls}
}

func alwaysEmpty(string) string { return emptyElements }

func TestFetch_Tier1(t *testing.T) {
	fx := newChainFixture(t,
		func(string) string { return museumAndBank },
		alwaysEmpty,
		func(string) string { return "[]" },
	)

	res := fx.fetcher.Fetch(context.Background(), 55.9533, -3.1883, "Edinburgh")

	if len(res.POIs) != 1 || res.POIs[0].Name != "National Museum" {
		t.Fatalf("Expected only the museum, got %+v", res.POIs)
	}
	if res.Primary == nil || res.Primary.Name != "National Museum" {
		t.Errorf("Primary = %+v", res.Primary)
	}
	if *fx.secondaryCalls != 0 {
		t.Errorf("Secondary endpoint called %d times, want 0", *fx.secondaryCalls)
	}
	if *fx.primaryCalls != 1 {
		t.Errorf("Primary endpoint called %d times, want 1", *fx.primaryCalls)
	}
}

func TestFetch_Tier2_SecondaryFallback(t *testing.T) {
	fx := newChainFixture(t,
		alwaysEmpty,
		func(body string) string {
			if !strings.Contains(body, "around:5000") {
				t.Errorf("Secondary got non-standard-radius query: %s", body)
			}
			return museumAndBank
		},
		func(string) string { return "[]" },
	)

	res := fx.fetcher.Fetch(context.Background(), 55.9533, -3.1883, "")

	if len(res.POIs) != 1 || res.POIs[0].Name != "National Museum" {
		t.Fatalf("Expected secondary results, got %+v", res.POIs)
	}
	if *fx.secondaryCalls != 1 {
		t.Errorf("Secondary calls = %d, want 1", *fx.secondaryCalls)
	}
	// Tiers 3/4 must not run once tier 2 produced filtered POIs
	if *fx.primaryCalls != 1 {
		t.Errorf("Primary calls = %d, want 1", *fx.primaryCalls)
	}
	if *fx.nominatimCalls != 0 {
		t.Errorf("Nominatim calls = %d, want 0", *fx.nominatimCalls)
	}
}

func TestFetch_Tier3_WideRadius(t *testing.T) {
	fx := newChainFixture(t,
		func(body string) string {
			if strings.Contains(body, "around:20000") {
				return `{"elements": [
					{"type": "node", "id": 9, "lat": 55.99, "lon": -3.19, "tags": {"name": "The Witchery", "amenity": "restaurant"}}
				]}`
			}
			return emptyElements
		},
		alwaysEmpty,
		func(string) string { return "[]" },
	)

	res := fx.fetcher.Fetch(context.Background(), 55.9533, -3.1883, "")

	if len(res.POIs) != 1 || res.POIs[0].Name != "The Witchery" {
		t.Fatalf("Expected wide-radius result, got %+v", res.POIs)
	}
	if res.Primary == nil || res.Primary.Name != "The Witchery" {
		t.Errorf("Primary = %+v", res.Primary)
	}
	// standard radius, then wide radius
	if *fx.primaryCalls != 2 {
		t.Errorf("Primary calls = %d, want 2", *fx.primaryCalls)
	}
}

func TestFetch_Tier4_BoundingBox(t *testing.T) {
	fx := newChainFixture(t,
		func(body string) string {
			if strings.Contains(body, "node(55.8") { // bbox query
				return `{"elements": [
					{"type": "node", "id": 7, "lat": 55.90, "lon": -3.20, "tags": {"name": "City Art Centre", "amenity": "arts_centre"}}
				]}`
			}
			return emptyElements
		},
		alwaysEmpty,
		func(q string) string {
			if q != "Edinburgh" {
				t.Errorf("Nominatim query = %q", q)
			}
			return `[{"name": "Edinburgh", "display_name": "Edinburgh", "lat": "55.9533", "lon": "-3.1883",
				"boundingbox": ["55.8184", "55.9919", "-3.4495", "-3.0744"]}]`
		},
	)

	res := fx.fetcher.Fetch(context.Background(), 55.9533, -3.1883, "Edinburgh")

	if len(res.POIs) != 1 || res.POIs[0].Name != "City Art Centre" {
		t.Fatalf("Expected bbox result, got %+v", res.POIs)
	}
	if *fx.nominatimCalls != 1 {
		t.Errorf("Nominatim calls = %d, want 1", *fx.nominatimCalls)
	}
}

func TestFetch_AllTiersExhausted(t *testing.T) {
	fx := newChainFixture(t, alwaysEmpty, alwaysEmpty, func(string) string { return "[]" })

	res := fx.fetcher.Fetch(context.Background(), 55.9533, -3.1883, "Edinburgh")

	if len(res.POIs) != 0 || res.Primary != nil {
		t.Errorf("Expected empty result, got %+v", res)
	}
}

func TestFetch_NoNameSkipsTier4(t *testing.T) {
	fx := newChainFixture(t, alwaysEmpty, alwaysEmpty, func(string) string { return "[]" })

	_ = fx.fetcher.Fetch(context.Background(), 55.9533, -3.1883, "")

	if *fx.nominatimCalls != 0 {
		t.Errorf("Nominatim called without a name, calls = %d", *fx.nominatimCalls)
	}
}

func TestParseElements(t *testing.T) {
	elements := []overpass.Element{
		{Type: "node", Lat: 55.96, Lon: -3.19, Tags: map[string]string{"name": "A9", "highway": "trunk"}},
		{Type: "node", Lat: 55.96, Lon: -3.19, Tags: map[string]string{"amenity": "cafe"}}, // unnamed
		{Type: "node", Lat: 55.96, Lon: -3.19, Tags: map[string]string{"name": "Stockbridge", "place": "suburb"}},
		{Type: "node", Lat: 55.9551, Lon: -3.1883, Tags: map[string]string{"name": "National Museum", "tourism": "museum", "amenity": "arts_centre", "wikidata": "Q123"}},
		{Type: "way", Center: &overpass.Center{Lat: 55.9537, Lon: -3.1883}, Tags: map[string]string{"name": "Some Office", "office": "company"}},
		{Type: "node", Lat: 55.96, Lon: -3.19, Tags: map[string]string{"name": "Plain Place"}},
	}

	pois := parseElements(55.9533, -3.1883, elements, 12)

	if len(pois) != 3 {
		t.Fatalf("Expected 3 POIs, got %d: %+v", len(pois), pois)
	}
	// Nearest-first
	if pois[0].Name != "Some Office" || pois[1].Name != "National Museum" {
		t.Errorf("Sort order wrong: %+v", pois)
	}
	// amenity beats tourism in the tag priority list
	if pois[1].Type != "arts_centre" {
		t.Errorf("Type priority wrong: %s", pois[1].Type)
	}
	if pois[0].Type != "company" {
		t.Errorf("office tag not used: %s", pois[0].Type)
	}
	if pois[2].Type != "place" {
		t.Errorf("default type wrong: %s", pois[2].Type)
	}
	if pois[1].Wikidata != "Q123" {
		t.Errorf("Wikidata not carried: %+v", pois[1])
	}

	capped := parseElements(55.9533, -3.1883, elements, 2)
	if len(capped) != 2 {
		t.Errorf("Cap not applied: %d", len(capped))
	}
}
