package model

// Holiday options offered by the form. "Other" uses CustomHoliday.
const (
	HolidayChristmas = "Christmas"
	HolidayNewYear   = "New Year"
	HolidayHannukah  = "Hannukah"
	HolidayKwanzaa   = "Kwanzaa"
	HolidaySolstice  = "Winter Solstice"
	HolidayOther     = "Other"
)

// Player is one participant as entered by the organiser.
type Player struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Age  string `json:"age"` // "adult" or "child"
	Sex  string `json:"sex"` // "M", "F", "Prefer not to say"
}

// MysteryConfig is the party configuration submitted by the form.
type MysteryConfig struct {
	Holiday             string       `json:"holiday"`
	CustomHoliday       string       `json:"customHoliday,omitempty"`
	Location            string       `json:"location,omitempty"`
	LocationCoords      *Coordinates `json:"locationCoords,omitempty"`
	EnableWikiEnrichment bool        `json:"enableWikiEnrichment,omitempty"`
	Rounds              int          `json:"rounds"`
	SettingNotes        string       `json:"settingNotes,omitempty"`
	Tone                string       `json:"tone"` // "light", "mixed", "serious"
	Players             []Player     `json:"players"`
}

// HolidayLabel returns the display label for the configured holiday.
func (c *MysteryConfig) HolidayLabel() string {
	if c.Holiday == HolidayOther && c.CustomHoliday != "" {
		return c.CustomHoliday
	}
	return c.Holiday
}

// CharacterScript is one player's generated character sheet.
type CharacterScript struct {
	PlayerName         string   `json:"playerName"`
	CharacterName      string   `json:"characterName"`
	CostumeDescription string   `json:"costumeDescription"`
	Personality        string   `json:"personality"`
	SecretBackstory    string   `json:"secretBackstory"`
	PerRoundLines      []string `json:"perRoundLines"` // one entry per round
}

// InspectorSegment is the between-rounds narration read by the inspector.
type InspectorSegment struct {
	Round       int    `json:"round"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// MysteryScriptResult is the full generated game, parsed from the model output.
type MysteryScriptResult struct {
	Title                  string             `json:"title"`
	Overview               string             `json:"overview"`
	HowToPlay              string             `json:"howToPlay"`
	Characters             []CharacterScript  `json:"characters"`
	InspectorSegments      []InspectorSegment `json:"inspectorSegments"`
	FinalGuessInstructions string             `json:"finalGuessInstructions"`
}
