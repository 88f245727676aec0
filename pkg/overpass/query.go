package overpass

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"
)

// featureClass is one OSM tag key with the values worth showing to
// party guests. Order is fixed so generated queries are stable.
type featureClass struct {
	key    string
	values []string
}

var allowedFeatures = []featureClass{
	{"amenity", []string{
		"arts_centre", "cafe", "cinema", "gallery", "guest_house",
		"hotel", "library", "marketplace", "museum", "place_of_worship",
		"restaurant", "theatre", "town_hall",
	}},
	{"tourism", []string{"museum", "attraction"}},
	{"historic", []string{"monument", "castle", "memorial"}},
	{"leisure", []string{"park", "playground"}},
	{"shop", []string{"books", "bakery"}},
}

// escapeRegex escapes Overpass regex metacharacters in a tag value.
func escapeRegex(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '-', '/', '\\', '^', '$', '*', '+', '?', '.', '(', ')', '|', '[', ']', '{', '}':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// BuildAroundQuery returns an Overpass QL query for named features within
// radius meters of the given point. Tag-filtered clauses come first, then
// catch-all [name] clauses so sparse areas still return something.
func BuildAroundQuery(lat, lon float64, radius int) string {
	var clauses []string
	for _, fc := range allowedFeatures {
		if len(fc.values) == 0 {
			continue
		}
		escaped := make([]string, len(fc.values))
		for i, v := range fc.values {
			escaped[i] = escapeRegex(v)
		}
		regex := strings.Join(escaped, "|")
		clauses = append(clauses,
			fmt.Sprintf(`node(around:%d,%f,%f)[name][%s~"^(%s)$"];`, radius, lat, lon, fc.key, regex),
			fmt.Sprintf(`way(around:%d,%f,%f)[name][%s~"^(%s)$"];`, radius, lat, lon, fc.key, regex),
		)
	}
	clauses = append(clauses,
		fmt.Sprintf(`node(around:%d,%f,%f)[name];`, radius, lat, lon),
		fmt.Sprintf(`way(around:%d,%f,%f)[name];`, radius, lat, lon),
	)

	return fmt.Sprintf("[out:json][timeout:15];\n(\n%s\n);\nout center 40;",
		strings.Join(clauses, "\n"))
}

// BuildBBoxQuery returns an Overpass QL query for all named features
// inside the bounding box.
func BuildBBoxQuery(b orb.Bound) string {
	south, north := b.Min[1], b.Max[1]
	west, east := b.Min[0], b.Max[0]
	return fmt.Sprintf(`[out:json][timeout:20];
(
node(%f,%f,%f,%f)[name];
way(%f,%f,%f,%f)[name];
);
out center 40;`,
		south, west, north, east,
		south, west, north, east)
}
