package enrich

import "whodunnit/pkg/model"

// typePrecedence ranks POI categories by how well they anchor a mystery
// scene. The values are deliberate: a museum beats a cafe at equal
// distance, and anything unranked scores far behind everything ranked.
var typePrecedence = map[string]int{
	"museum":      1,
	"monument":    2,
	"castle":      2,
	"gallery":     3,
	"theatre":     3,
	"arts_centre": 3,
	"cinema":      4,
	"park":        5,
	"restaurant":  6,
	"cafe":        7,
	"hotel":       8,
}

const defaultPrecedence = 20

// Score rates a POI as a primary-POI candidate. Lower is better:
// externally documented places get a head start, ranked categories
// beat unranked ones, and every started kilometer of distance costs
// a point.
func Score(p *model.POI) int {
	score := 5
	if p.HasExternalID() {
		score = 0
	}
	tp, ok := typePrecedence[p.Type]
	if !ok {
		tp = defaultPrecedence
	}
	return score + tp + p.DistanceMeters/1000
}

// SelectPrimary returns the lowest-scoring POI, or nil for an empty
// slice. Ties keep the earlier (nearer, since input is distance-sorted)
// candidate.
func SelectPrimary(pois []model.POI) *model.POI {
	var best *model.POI
	bestScore := 0
	for i := range pois {
		s := Score(&pois[i])
		if best == nil || s < bestScore {
			best = &pois[i]
			bestScore = s
		}
	}
	return best
}
