package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"whodunnit/pkg/config"
	"whodunnit/pkg/geocode"
	"whodunnit/pkg/model"
	"whodunnit/pkg/overpass"
	"whodunnit/pkg/request"
	"whodunnit/pkg/tracker"
	"whodunnit/pkg/weather"
)

// memCache is an in-memory store.CacheStore for resolver tests.
type memCache struct {
	mu sync.Mutex
	m  map[string][]byte
}

func newMemCache() *memCache { return &memCache{m: make(map[string][]byte)} }

func (c *memCache) GetCache(ctx context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[key]
	return v, ok
}

func (c *memCache) HasCache(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.m[key]
	return ok, nil
}

func (c *memCache) SetCache(ctx context.Context, key string, val []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = val
	return nil
}

func (c *memCache) ListCacheKeys(ctx context.Context, prefix string) ([]string, error) {
	return nil, nil
}

type stubWeather struct {
	w     *model.Weather
	err   error
	calls int32
}

func (s *stubWeather) Fetch(ctx context.Context, lat, lon float64) (*model.Weather, error) {
	atomic.AddInt32(&s.calls, 1)
	return s.w, s.err
}

type stubPOIs struct {
	res   Result
	calls int32
	gate  chan struct{} // when set, Fetch blocks until closed
}

func (s *stubPOIs) Fetch(ctx context.Context, lat, lon float64, name string) Result {
	atomic.AddInt32(&s.calls, 1)
	if s.gate != nil {
		<-s.gate
	}
	return s.res
}

func testConfig() *config.EnrichConfig {
	return &config.EnrichConfig{
		StandardRadius: 5000,
		WideRadius:     20000,
		MaxPOIs:        12,
		POITTL:         config.Duration(24 * time.Hour),
		WeatherTTL:     config.Duration(10 * time.Minute),
	}
}

func museumResult() Result {
	pois := []model.POI{{Name: "National Museum", Type: "museum", DistanceMeters: 200}}
	return Result{POIs: pois, Primary: &pois[0]}
}

// seed writes a cache envelope with the given age directly into the store.
func seed(t *testing.T, cache *memCache, key string, age time.Duration, value *model.LocalEnrichment) {
	t.Helper()
	raw, err := json.Marshal(envelope{TS: time.Now().Add(-age).UnixMilli(), Value: value})
	if err != nil {
		t.Fatal(err)
	}
	_ = cache.SetCache(context.Background(), key, raw)
}

func TestResolve_Coalescing(t *testing.T) {
	cache := newMemCache()
	w := &stubWeather{w: &model.Weather{TempC: 5, Condition: "3"}}
	pois := &stubPOIs{res: museumResult(), gate: make(chan struct{})}
	tr := tracker.New()
	r := NewResolver(testConfig(), cache, w, pois, tr)

	const n = 4
	results := make([]*model.LocalEnrichment, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := r.Resolve(context.Background(), 55.9533, -3.1883, "Edinburgh")
			if err != nil {
				t.Errorf("Resolve failed: %v", err)
			}
			results[i] = res
		}(i)
	}

	// Let the callers pile up behind the gated POI fetch
	time.Sleep(100 * time.Millisecond)
	close(pois.gate)
	wg.Wait()

	if c := atomic.LoadInt32(&pois.calls); c != 1 {
		t.Errorf("POI fetch chains = %d, want 1", c)
	}
	if c := atomic.LoadInt32(&w.calls); c != 1 {
		t.Errorf("Weather fetches = %d, want 1", c)
	}
	for i := 1; i < n; i++ {
		if results[i] != results[0] {
			t.Errorf("Caller %d got a different record", i)
		}
	}
	if tr.Snapshot()[providerName].Coalesced == 0 {
		t.Error("Expected coalesced calls to be tracked")
	}

	// A later call starts a fresh resolution
	if _, err := r.Resolve(context.Background(), 55.9533, -3.1883, "Edinburgh"); err != nil {
		t.Fatal(err)
	}
	// POIs are now cached, so the chain still ran only once
	if c := atomic.LoadInt32(&pois.calls); c != 1 {
		t.Errorf("POI fetch chains after cache fill = %d, want 1", c)
	}
}

func TestResolve_EmptyPOIPoisoning(t *testing.T) {
	cache := newMemCache()
	key := Key(55.9533, -3.1883)

	// A fresh cached record with an explicitly empty POI list, as a
	// failed earlier fetch would have written it
	raw := fmt.Sprintf(
		`{"ts": %d, "value": {"coordinates": {"lat": 55.9533, "lon": -3.1883}, "topPOIs": [], "currentWeather": {"tempC": 2, "condition": "71"}}}`,
		time.Now().Add(-time.Minute).UnixMilli())
	_ = cache.SetCache(context.Background(), key, []byte(raw))

	w := &stubWeather{w: &model.Weather{TempC: 99}}
	pois := &stubPOIs{res: museumResult()}
	r := NewResolver(testConfig(), cache, w, pois, tracker.New())

	res, err := r.Resolve(context.Background(), 55.9533, -3.1883, "")
	if err != nil {
		t.Fatal(err)
	}

	// Empty list forced a fresh POI fetch
	if atomic.LoadInt32(&pois.calls) != 1 {
		t.Error("Expected POI fetch despite fresh cache entry")
	}
	if len(res.TopPOIs) != 1 || res.TopPOIs[0].Name != "National Museum" {
		t.Errorf("TopPOIs = %+v", res.TopPOIs)
	}
	// Weather was fresh, so it must come from the cache, not the stub
	if atomic.LoadInt32(&w.calls) != 0 {
		t.Error("Weather refetched despite fresh cached value")
	}
	if res.CurrentWeather == nil || res.CurrentWeather.TempC != 2 {
		t.Errorf("CurrentWeather = %+v", res.CurrentWeather)
	}
}

func TestResolve_CachedPOIsRefiltered(t *testing.T) {
	cache := newMemCache()
	key := Key(55.9533, -3.1883)

	pub := model.POI{Name: "The Crown", Type: "pub", DistanceMeters: 80}
	seed(t, cache, key, time.Minute, &model.LocalEnrichment{
		TopPOIs: []model.POI{
			pub,
			{Name: "City Museum", Type: "museum", DistanceMeters: 400},
		},
		PrimaryPOI:     &pub,
		CurrentWeather: &model.Weather{TempC: 7},
	})

	pois := &stubPOIs{res: museumResult()}
	r := NewResolver(testConfig(), cache, &stubWeather{}, pois, tracker.New())

	res, err := r.Resolve(context.Background(), 55.9533, -3.1883, "")
	if err != nil {
		t.Fatal(err)
	}

	if atomic.LoadInt32(&pois.calls) != 0 {
		t.Error("Expected cached POIs to be reused")
	}
	if len(res.TopPOIs) != 1 || res.TopPOIs[0].Name != "City Museum" {
		t.Errorf("Deny list not re-applied to cached POIs: %+v", res.TopPOIs)
	}
	// The cached primary is now denied, so the first survivor takes over
	if res.PrimaryPOI == nil || res.PrimaryPOI.Name != "City Museum" {
		t.Errorf("PrimaryPOI = %+v", res.PrimaryPOI)
	}
}

func TestResolve_PartialFailureIsolation(t *testing.T) {
	t.Run("WeatherFails", func(t *testing.T) {
		w := &stubWeather{err: errors.New("forecast service down")}
		r := NewResolver(testConfig(), newMemCache(), w, &stubPOIs{res: museumResult()}, tracker.New())

		res, err := r.Resolve(context.Background(), 55.9533, -3.1883, "Edinburgh")
		if err != nil {
			t.Fatal(err)
		}
		if res.CurrentWeather != nil {
			t.Errorf("CurrentWeather = %+v, want nil", res.CurrentWeather)
		}
		if len(res.TopPOIs) != 1 {
			t.Errorf("POI branch degraded with the weather branch: %+v", res.TopPOIs)
		}
	})

	t.Run("POIsEmpty", func(t *testing.T) {
		w := &stubWeather{w: &model.Weather{TempC: 5, Condition: "3"}}
		r := NewResolver(testConfig(), newMemCache(), w, &stubPOIs{}, tracker.New())

		res, err := r.Resolve(context.Background(), 55.9533, -3.1883, "Edinburgh")
		if err != nil {
			t.Fatal(err)
		}
		if len(res.TopPOIs) != 0 || res.PrimaryPOI != nil {
			t.Errorf("Expected empty POI fields, got %+v", res)
		}
		if res.CurrentWeather == nil || res.CurrentWeather.TempC != 5 {
			t.Errorf("Weather branch degraded with the POI branch: %+v", res.CurrentWeather)
		}
	})
}

func TestResolve_WeatherTTLIndependent(t *testing.T) {
	cache := newMemCache()
	key := Key(55.9533, -3.1883)

	// 30 minutes old: POIs still fresh (24h TTL), weather stale (10m TTL)
	seed(t, cache, key, 30*time.Minute, &model.LocalEnrichment{
		TopPOIs:        []model.POI{{Name: "City Museum", Type: "museum", DistanceMeters: 400}},
		CurrentWeather: &model.Weather{TempC: 7},
	})

	w := &stubWeather{w: &model.Weather{TempC: -1, Condition: "73"}}
	pois := &stubPOIs{res: museumResult()}
	r := NewResolver(testConfig(), cache, w, pois, tracker.New())

	res, err := r.Resolve(context.Background(), 55.9533, -3.1883, "")
	if err != nil {
		t.Fatal(err)
	}

	if atomic.LoadInt32(&w.calls) != 1 {
		t.Error("Expected fresh weather fetch for stale cached weather")
	}
	if atomic.LoadInt32(&pois.calls) != 0 {
		t.Error("Expected cached POIs to be reused")
	}
	if res.CurrentWeather == nil || res.CurrentWeather.TempC != -1 {
		t.Errorf("CurrentWeather = %+v", res.CurrentWeather)
	}
}

func TestResolve_MergePreservesCachedFields(t *testing.T) {
	cache := newMemCache()
	key := Key(55.9533, -3.1883)

	pop := int64(526470)
	tz := "Europe/London"
	elev := 47.0
	wiki := "Edinburgh"
	// Older than both TTLs, so everything gets refetched
	seed(t, cache, key, 25*time.Hour, &model.LocalEnrichment{
		CanonicalName:   "Edinburgh",
		Country:         "United Kingdom",
		Admin:           []string{"Scotland", "City of Edinburgh"},
		Population:      &pop,
		Timezone:        &tz,
		ElevationMeters: &elev,
		NotableFacts:    []string{"Hosts the world's largest arts festival."},
		WikiTitle:       &wiki,
		TopPOIs:         []model.POI{{Name: "Old Entry", Type: "museum", DistanceMeters: 1}},
		CurrentWeather:  &model.Weather{TempC: 3},
	})

	w := &stubWeather{w: &model.Weather{TempC: 5, Condition: "3"}}
	pois := &stubPOIs{res: museumResult()}
	r := NewResolver(testConfig(), cache, w, pois, tracker.New())

	res, err := r.Resolve(context.Background(), 55.9533, -3.1883, "")
	if err != nil {
		t.Fatal(err)
	}

	if atomic.LoadInt32(&pois.calls) != 1 || atomic.LoadInt32(&w.calls) != 1 {
		t.Error("Expected both branches to refetch")
	}
	if res.Country != "United Kingdom" {
		t.Errorf("Country = %s", res.Country)
	}
	if len(res.Admin) != 2 || res.Admin[0] != "Scotland" {
		t.Errorf("Admin = %v", res.Admin)
	}
	if res.Population == nil || *res.Population != 526470 {
		t.Errorf("Population = %v", res.Population)
	}
	if res.Timezone == nil || *res.Timezone != "Europe/London" {
		t.Errorf("Timezone = %v", res.Timezone)
	}
	if res.ElevationMeters == nil || *res.ElevationMeters != 47.0 {
		t.Errorf("ElevationMeters = %v", res.ElevationMeters)
	}
	if len(res.NotableFacts) != 1 {
		t.Errorf("NotableFacts = %v", res.NotableFacts)
	}
	if res.WikiTitle == nil || *res.WikiTitle != "Edinburgh" {
		t.Errorf("WikiTitle = %v", res.WikiTitle)
	}
	// No name argument: the cached canonical name survives
	if res.CanonicalName != "Edinburgh" {
		t.Errorf("CanonicalName = %s", res.CanonicalName)
	}
	// Fresh fetch results replace the stale POI list
	if len(res.TopPOIs) != 1 || res.TopPOIs[0].Name != "National Museum" {
		t.Errorf("TopPOIs = %+v", res.TopPOIs)
	}
}

// TestResolve_EndToEnd wires real fetchers against stub HTTP services:
// Edinburgh coordinates, a museum 200m out, a bank 50m out, 5 degrees
// and WMO code 3 from the forecast service.
func TestResolve_EndToEnd(t *testing.T) {
	overpassSvr := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		_, _ = rw.Write([]byte(`{"elements": [
			{"type": "node", "id": 1, "lat": 55.9551, "lon": -3.1883, "tags": {"name": "National Museum", "tourism": "museum"}},
			{"type": "node", "id": 2, "lat": 55.95375, "lon": -3.1883, "tags": {"name": "High St Bank", "amenity": "bank"}}
		]}`))
	}))
	defer overpassSvr.Close()

	weatherSvr := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		_, _ = rw.Write([]byte(`{
			"current_weather": {"temperature": 5.0, "weathercode": 3},
			"daily": {"sunrise": ["2025-12-20T08:42"], "sunset": ["2025-12-20T15:39"]}
		}`))
	}))
	defer weatherSvr.Close()

	nominatimSvr := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		_, _ = rw.Write([]byte("[]"))
	}))
	defer nominatimSvr.Close()

	cfg := testConfig()
	rc := request.New(newMemCache(), tracker.New())
	fetcher := NewFetcher(
		overpass.NewClient(rc, overpassSvr.URL),
		overpass.NewClient(rc, overpassSvr.URL),
		geocode.NewClient(rc, nominatimSvr.URL),
		cfg,
	)
	r := NewResolver(cfg, newMemCache(), weather.NewClient(rc, weatherSvr.URL), fetcher, tracker.New())

	res, err := r.Resolve(context.Background(), 55.9533, -3.1883, "Edinburgh")
	if err != nil {
		t.Fatal(err)
	}

	if res.CanonicalName != "Edinburgh" {
		t.Errorf("CanonicalName = %s", res.CanonicalName)
	}
	if len(res.TopPOIs) != 1 || res.TopPOIs[0].Name != "National Museum" {
		t.Fatalf("Expected only the museum in topPOIs, got %+v", res.TopPOIs)
	}
	if res.TopPOIs[0].DistanceMeters < 190 || res.TopPOIs[0].DistanceMeters > 210 {
		t.Errorf("Museum distance = %dm, want ~200m", res.TopPOIs[0].DistanceMeters)
	}
	if res.PrimaryPOI == nil || res.PrimaryPOI.Name != "National Museum" {
		t.Errorf("PrimaryPOI = %+v", res.PrimaryPOI)
	}
	if res.CurrentWeather == nil || res.CurrentWeather.TempC != 5 || res.CurrentWeather.Condition != "3" {
		t.Errorf("CurrentWeather = %+v", res.CurrentWeather)
	}

	// The persisted record must carry the key derived from the rounded coordinates
	wantKey := fmt.Sprintf("%s55.9533:-3.1883", KeyPrefix)
	if wantKey != Key(55.9533, -3.1883) {
		t.Fatalf("key mismatch: %s", wantKey)
	}
}
