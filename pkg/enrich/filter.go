package enrich

import "whodunnit/pkg/model"

// denied lists POI types that make useless clue backdrops for a party
// game. Cached records are re-filtered on every read so additions here
// take effect without waiting for the cache to expire.
var denied = map[string]struct{}{
	"bank":        {},
	"atm":         {},
	"parking":     {},
	"toilets":     {},
	"fuel":        {},
	"taxi":        {},
	"police":      {},
	"hospital":    {},
	"pub":         {},
	"bar":         {},
	"kindergarten": {},
	"hairdresser": {},
}

// Denied reports whether the POI type is on the deny list.
func Denied(poiType string) bool {
	_, ok := denied[poiType]
	return ok
}

// FilterDenied returns the POIs whose type passes the deny list,
// preserving order.
func FilterDenied(pois []model.POI) []model.POI {
	var out []model.POI
	for _, p := range pois {
		if !Denied(p.Type) {
			out = append(out, p)
		}
	}
	return out
}
