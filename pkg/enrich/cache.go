package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"whodunnit/pkg/model"
)

// KeyPrefix namespaces enrichment records in the shared cache store.
const KeyPrefix = "localEnrich:"

// Key returns the cache key for a coordinate, rounded to 4 decimal
// places (~11 m) so nearby lookups share an entry.
func Key(lat, lon float64) string {
	return fmt.Sprintf("%s%.4f:%.4f", KeyPrefix, lat, lon)
}

// envelope is the persisted cache record: the enrichment value plus
// its write timestamp in epoch milliseconds. Freshness is judged by
// the reader, per field group.
type envelope struct {
	TS    int64                  `json:"ts"`
	Value *model.LocalEnrichment `json:"value"`
}

func (r *Resolver) readCache(ctx context.Context, key string) (*model.LocalEnrichment, time.Duration, bool) {
	raw, hit := r.cache.GetCache(ctx, key)
	if !hit {
		return nil, 0, false
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Value == nil {
		// Malformed entries count as misses
		return nil, 0, false
	}

	age := r.now().Sub(time.UnixMilli(env.TS))
	return env.Value, age, true
}

// writeCache persists an enrichment record. Failures are logged and
// swallowed: caching is an optimization, not a correctness requirement.
func (r *Resolver) writeCache(ctx context.Context, key string, value *model.LocalEnrichment) {
	raw, err := json.Marshal(envelope{TS: r.now().UnixMilli(), Value: value})
	if err != nil {
		slog.Debug("enrichment cache encode failed", "key", key, "error", err)
		return
	}
	if err := r.cache.SetCache(ctx, key, raw); err != nil {
		slog.Debug("enrichment cache write failed", "key", key, "error", err)
	}
}
