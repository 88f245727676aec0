// Package mystery turns a party configuration into a complete generated
// game script, pulling in local enrichment and Wikipedia context when
// coordinates or a place name are available.
package mystery

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"whodunnit/pkg/config"
	"whodunnit/pkg/llm"
	"whodunnit/pkg/model"
	"whodunnit/pkg/prompt"
	"whodunnit/pkg/store"
	"whodunnit/pkg/wikipedia"
)

// Enricher resolves local context for a coordinate.
type Enricher interface {
	Resolve(ctx context.Context, lat, lon float64, name string) (*model.LocalEnrichment, error)
}

// WikiResolver finds a town's Wikipedia summary.
type WikiResolver interface {
	ResolveTown(ctx context.Context, town string, coords *model.Coordinates) (*wikipedia.Summary, error)
}

// Generator produces mystery scripts. Enrichment sources are optional;
// a failing or absent source degrades the prompt, never the generation.
type Generator struct {
	provider llm.Provider
	prompts  *prompt.Manager
	enricher Enricher
	wiki     WikiResolver
	scripts  store.ScriptStore
	game     config.GameConfig
}

// NewGenerator creates a Generator. enricher, wiki and scripts may be nil.
func NewGenerator(p llm.Provider, pm *prompt.Manager, enricher Enricher, wiki WikiResolver, scripts store.ScriptStore, game config.GameConfig) *Generator {
	return &Generator{
		provider: p,
		prompts:  pm,
		enricher: enricher,
		wiki:     wiki,
		scripts:  scripts,
		game:     game,
	}
}

// Generate builds the prompt, runs the model and persists the result.
// selected optionally names places the organiser wants used as clue
// locations.
func (g *Generator) Generate(ctx context.Context, cfg *model.MysteryConfig, selected []model.POI) (*store.ScriptRecord, error) {
	if err := g.applyDefaults(cfg); err != nil {
		return nil, err
	}

	le := g.enrichLocation(ctx, cfg)
	extract := g.wikiExtract(ctx, cfg)

	data := prompt.NewMysteryData(cfg, le, extract, selected, g.game.MaxPromptPOIs)

	system, err := g.prompts.System()
	if err != nil {
		return nil, fmt.Errorf("rendering system prompt: %w", err)
	}
	userPrompt, err := g.prompts.Mystery(data)
	if err != nil {
		return nil, fmt.Errorf("rendering mystery prompt: %w", err)
	}

	var result model.MysteryScriptResult
	if err := g.provider.GenerateJSON(ctx, llm.IntentMystery, system, userPrompt, &result); err != nil {
		return nil, fmt.Errorf("script generation failed: %w", err)
	}

	if result.Title == "" || len(result.Characters) == 0 {
		return nil, fmt.Errorf("model returned an incomplete script (title=%q, characters=%d)", result.Title, len(result.Characters))
	}

	remapPlayerNames(&result, cfg.Players)

	rec := &store.ScriptRecord{
		ID:       uuid.NewString(),
		Title:    result.Title,
		Holiday:  cfg.HolidayLabel(),
		Location: cfg.Location,
		Config:   *cfg,
		Result:   result,
	}

	if g.scripts != nil {
		if err := g.scripts.SaveScript(ctx, rec); err != nil {
			// The script is already generated; losing persistence is
			// not worth losing the result over.
			slog.Error("Failed to persist generated script", "id", rec.ID, "error", err)
		}
	}

	return rec, nil
}

func (g *Generator) applyDefaults(cfg *model.MysteryConfig) error {
	if len(cfg.Players) == 0 {
		return fmt.Errorf("at least one player is required")
	}
	if cfg.HolidayLabel() == "" {
		return fmt.Errorf("a holiday or occasion is required")
	}
	if cfg.Rounds <= 0 {
		cfg.Rounds = g.game.DefaultRounds
	}
	if cfg.Tone == "" {
		cfg.Tone = g.game.DefaultTone
	}
	return nil
}

// enrichLocation resolves local context when coordinates are present.
// Errors degrade to a plain prompt.
func (g *Generator) enrichLocation(ctx context.Context, cfg *model.MysteryConfig) *model.LocalEnrichment {
	if g.enricher == nil || cfg.LocationCoords == nil {
		return nil
	}

	le, err := g.enricher.Resolve(ctx, cfg.LocationCoords.Lat, cfg.LocationCoords.Lon, cfg.Location)
	if err != nil {
		slog.Warn("Local enrichment failed", "location", cfg.Location, "error", err)
		return nil
	}
	return le
}

// wikiExtract fetches the town summary when enabled. Errors degrade to
// a plain prompt.
func (g *Generator) wikiExtract(ctx context.Context, cfg *model.MysteryConfig) string {
	if g.wiki == nil || cfg.Location == "" || !cfg.EnableWikiEnrichment {
		return ""
	}

	summary, err := g.wiki.ResolveTown(ctx, cfg.Location, cfg.LocationCoords)
	if err != nil {
		slog.Warn("Wiki enrichment failed", "location", cfg.Location, "error", err)
		return ""
	}
	if !summary.Usable() {
		return ""
	}
	return summary.Extract
}

// remapPlayerNames replaces the model's playerName output with the real
// names from the config, matched by position. Real names never entered
// the prompt, so this is the only place they join the script.
func remapPlayerNames(result *model.MysteryScriptResult, players []model.Player) {
	for i := range result.Characters {
		ch := &result.Characters[i]
		switch {
		case i < len(players) && players[i].Name != "":
			ch.PlayerName = players[i].Name
		case ch.PlayerName == "":
			ch.PlayerName = fmt.Sprintf("Player %d", i+1)
		}
	}
}
