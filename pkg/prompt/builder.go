package prompt

import (
	"fmt"
	"strings"

	"whodunnit/pkg/model"
)

// PlayerSlot is one anonymized player line for the prompt. Real names
// never reach the model; characters are mapped back by index afterwards.
type PlayerSlot struct {
	Index int
	Age   string
	Sex   string
}

// POILine is a nearby place offered to the model as a clue location.
type POILine struct {
	Name           string
	Type           string
	DistanceMeters int
}

func (p POILine) String() string {
	s := fmt.Sprintf("%s (%s)", p.Name, p.Type)
	if p.DistanceMeters > 0 {
		s += fmt.Sprintf(", %dm", p.DistanceMeters)
	}
	return s
}

// MysteryData feeds the mystery generation templates.
type MysteryData struct {
	HolidayLabel string
	Tone         string
	Rounds       int
	Players      []PlayerSlot
	Location     string
	SettingNotes string

	// Optional enrichment, empty strings disable their sections.
	WikiNote        string
	AdminNote       string
	PopulationNote  string
	WeatherNote     string
	POIList         string // short "name (type)" summary for the context note
	POILines        string // detailed list with distance for the usage rules
	SelectedPOINote string
}

// NewMysteryData assembles template data from the party config and
// whatever enrichment is available. Both enrichment arguments may be
// nil; maxPOIs caps how many places the prompt offers as clue spots.
func NewMysteryData(cfg *model.MysteryConfig, le *model.LocalEnrichment, wikiExtract string, selected []model.POI, maxPOIs int) MysteryData {
	data := MysteryData{
		HolidayLabel: cfg.HolidayLabel(),
		Tone:         cfg.Tone,
		Rounds:       cfg.Rounds,
		Location:     cfg.Location,
		SettingNotes: cfg.SettingNotes,
	}

	for i, p := range cfg.Players {
		age := p.Age
		if age == "" {
			age = "unspecified"
		}
		sex := p.Sex
		if sex == "" {
			sex = "unspecified"
		}
		data.Players = append(data.Players, PlayerSlot{Index: i + 1, Age: age, Sex: sex})
	}

	if wikiExtract != "" {
		data.WikiNote = firstSentences(wikiExtract, 4)
	}

	if le != nil {
		if len(le.Admin) > 0 {
			data.AdminNote = fmt.Sprintf("Located in %s.", strings.Join(le.Admin, ", "))
		}
		if le.Population != nil {
			data.PopulationNote = fmt.Sprintf("Population approx %d.", *le.Population)
		}
		if le.CurrentWeather != nil && le.CurrentWeather.TempC != 0 {
			data.WeatherNote = fmt.Sprintf("Weather around %.0f°C.", le.CurrentWeather.TempC)
		}

		pois := le.TopPOIs
		if len(pois) > maxPOIs {
			pois = pois[:maxPOIs]
		}
		var short, long []string
		for _, p := range pois {
			short = append(short, fmt.Sprintf("%s (%s)", p.Name, p.Type))
			long = append(long, POILine{Name: p.Name, Type: p.Type, DistanceMeters: p.DistanceMeters}.String())
		}
		data.POIList = strings.Join(short, "; ")
		data.POILines = strings.Join(long, "; ")
	}

	if len(selected) > 0 {
		var sel []string
		for _, p := range selected {
			if p.Type != "" {
				sel = append(sel, fmt.Sprintf("%s (%s)", p.Name, p.Type))
			} else {
				sel = append(sel, p.Name)
			}
		}
		data.SelectedPOINote = strings.Join(sel, "; ")
	}

	return data
}

// firstSentences returns the first n sentences of a prose extract,
// closed with a period.
func firstSentences(text string, n int) string {
	parts := strings.SplitN(text, ". ", n+1)
	if len(parts) > n {
		parts = parts[:n]
	}
	out := strings.Join(parts, ". ")
	out = strings.TrimSuffix(out, ".")
	return out + "."
}
