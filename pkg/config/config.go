package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Request RequestConfig `yaml:"request"`
	Log     LogConfig     `yaml:"log"`
	DB      DBConfig      `yaml:"db"`
	Server  ServerConfig  `yaml:"server"`
	Enrich  EnrichConfig  `yaml:"enrich"`
	LLM     LLMConfig     `yaml:"llm"`
	Game    GameConfig    `yaml:"game"`
}

// RequestConfig holds HTTP request settings.
type RequestConfig struct {
	Retries int           `yaml:"retries"`
	Timeout Duration      `yaml:"timeout"`
	Backoff BackoffConfig `yaml:"backoff"`
}

// BackoffConfig holds exponential backoff settings.
type BackoffConfig struct {
	BaseDelay Duration `yaml:"base_delay"`
	MaxDelay  Duration `yaml:"max_delay"`
}

// EnrichConfig holds settings for the local enrichment resolver.
// Endpoints are configurable so tests can point the clients at local servers.
type EnrichConfig struct {
	StandardRadius Distance `yaml:"standard_radius"` // POI search radius, tiers 1-2
	WideRadius     Distance `yaml:"wide_radius"`     // tier 3 retry radius
	MaxPOIs        int      `yaml:"max_pois"`        // cap on returned POIs
	POITTL         Duration `yaml:"poi_ttl"`         // cache freshness for POI data
	WeatherTTL     Duration `yaml:"weather_ttl"`     // cache freshness for weather data

	OverpassPrimary   string `yaml:"overpass_primary"`
	OverpassSecondary string `yaml:"overpass_secondary"`
	NominatimURL      string `yaml:"nominatim_url"`
	OpenMeteoURL      string `yaml:"open_meteo_url"`
	WikipediaURL      string `yaml:"wikipedia_url"`
}

// LLMConfig holds settings for the script-generation model provider.
type LLMConfig struct {
	Provider string            `yaml:"provider"` // "gemini", "openai", "mock"
	Model    string            `yaml:"model"`
	Key      string            `yaml:"key"`
	BaseURL  string            `yaml:"base_url"` // OpenAI-compatible root, ignored by gemini
	Profiles map[string]string `yaml:"profiles"` // intent -> model override
}

// GameConfig holds mystery-generation defaults applied when the form omits them.
type GameConfig struct {
	DefaultRounds int    `yaml:"default_rounds"`
	DefaultTone   string `yaml:"default_tone"` // "light", "mixed", "serious"
	MaxPromptPOIs int    `yaml:"max_prompt_pois"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server   LogSettings `yaml:"server"`
	Requests LogSettings `yaml:"requests"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Request: RequestConfig{
			Retries: 3,
			Timeout: Duration(30 * time.Second),
			Backoff: BackoffConfig{
				BaseDelay: Duration(500 * time.Millisecond),
				MaxDelay:  Duration(30 * time.Second),
			},
		},
		Log: LogConfig{
			Server: LogSettings{
				Path:  "./logs/server.log",
				Level: "INFO",
			},
			Requests: LogSettings{
				Path:  "./logs/requests.log",
				Level: "INFO",
			},
		},
		DB: DBConfig{
			Path: "./data/whodunnit.db",
		},
		Server: ServerConfig{
			Address: "localhost:2140",
		},
		Enrich: EnrichConfig{
			StandardRadius: Distance(5000),
			WideRadius:     Distance(20000),
			MaxPOIs:        12,
			POITTL:         Duration(24 * time.Hour),
			WeatherTTL:     Duration(10 * time.Minute),

			OverpassPrimary:   "https://overpass-api.de/api/interpreter",
			OverpassSecondary: "https://overpass.kumi.systems/api/interpreter",
			NominatimURL:      "https://nominatim.openstreetmap.org",
			OpenMeteoURL:      "https://api.open-meteo.com",
			WikipediaURL:      "https://en.wikipedia.org",
		},
		LLM: LLMConfig{
			Provider: "gemini",
			Model:    "gemini-2.5-flash-lite",
			Key:      "",
			Profiles: map[string]string{
				"mystery": "gemini-2.5-flash",
			},
		},
		Game: GameConfig{
			DefaultRounds: 3,
			DefaultTone:   "light",
			MaxPromptPOIs: 6,
		},
	}
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// If the file exists, it merges defaults with existing values but does NOT save
// back to disk (to preserve user formatting and comments).
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}

		// Load keys from env if empty (as a fallback, but do NOT save back to disk)
		if cfg.LLM.Key == "" {
			switch cfg.LLM.Provider {
			case "openai":
				cfg.LLM.Key = os.Getenv("OPENAI_API_KEY")
			default:
				cfg.LLM.Key = os.Getenv("GEMINI_API_KEY")
			}
		}

		if err := cfg.validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	// If file does not exist, save defaults
	if err := Save(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config file: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Enrich.MaxPOIs <= 0 {
		return fmt.Errorf("enrich.max_pois must be positive, got %d", c.Enrich.MaxPOIs)
	}
	if c.Enrich.WideRadius < c.Enrich.StandardRadius {
		return fmt.Errorf("enrich.wide_radius (%v) must not be smaller than standard_radius (%v)",
			float64(c.Enrich.WideRadius), float64(c.Enrich.StandardRadius))
	}
	switch c.Game.DefaultTone {
	case "light", "mixed", "serious":
	default:
		return fmt.Errorf("game.default_tone must be light, mixed or serious, got %q", c.Game.DefaultTone)
	}
	return nil
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Whodunnit Configuration
# -----------------------
# Supported Units:
#   Duration: ns, us (or µs), ms, s, m, h, d (day), w (week)
#   Distance: m (meters), km (kilometers)

`)
	data = append(header, data...)

	// Inject comments for enum fields.
	reProvider := regexp.MustCompile(`(?m)^(\s+)provider:`)
	data = reProvider.ReplaceAll(data, []byte("${1}# Options: gemini, openai, mock\n${1}provider:"))

	reTone := regexp.MustCompile(`(?m)^(\s+)default_tone:`)
	data = reTone.ReplaceAll(data, []byte("${1}# Options: light, mixed, serious\n${1}default_tone:"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil // File exists, do nothing
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return Save(path, DefaultConfig())
}
