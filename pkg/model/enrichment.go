package model

// Coordinates is a WGS84 lat/lon pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// POI is a named place near the party location, built from raw OSM elements.
// Instances are immutable once created; a newer enrichment replaces them wholesale.
type POI struct {
	Name           string `json:"name"`
	Type           string `json:"type"` // OSM-like category tag, "place" if unrecognized
	DistanceMeters int    `json:"distanceMeters"`

	// External identifiers, when the element carries them.
	Wikidata  string `json:"wikidata,omitempty"`
	Wikipedia string `json:"wikipedia,omitempty"`
}

// HasExternalID reports whether the POI is linked to Wikidata or Wikipedia.
func (p *POI) HasExternalID() bool {
	return p.Wikidata != "" || p.Wikipedia != ""
}

// Weather is a current-conditions snapshot from the forecast service.
type Weather struct {
	TempC     float64 `json:"tempC"`
	Condition string  `json:"condition,omitempty"` // WMO weather code as string
	Sunrise   string  `json:"sunrise,omitempty"`
	Sunset    string  `json:"sunset,omitempty"`
}

// LocalEnrichment is the merged local-context record for a coordinate.
// All fields degrade to zero values independently; a missing branch never
// invalidates the record.
type LocalEnrichment struct {
	CanonicalName   string      `json:"canonicalName,omitempty"`
	Country         string      `json:"country,omitempty"`
	Admin           []string    `json:"admin,omitempty"` // administrative path, largest-to-smallest
	Population      *int64      `json:"population,omitempty"`
	Timezone        *string     `json:"timezone,omitempty"`
	ElevationMeters *float64    `json:"elevationMeters,omitempty"`
	Coordinates     Coordinates `json:"coordinates"`
	TopPOIs         []POI       `json:"topPOIs,omitempty"` // nearest-first, deny-list filtered
	PrimaryPOI      *POI        `json:"primaryPOI,omitempty"`
	NotableFacts    []string    `json:"notableFacts,omitempty"`
	CurrentWeather  *Weather    `json:"currentWeather,omitempty"`
	WikiTitle       *string     `json:"wikiTitle,omitempty"`
}
