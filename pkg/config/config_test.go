package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "whodunnit.yaml")

	tests := []struct {
		name          string
		setup         func()
		validate      func(*testing.T, *Config)
		checkFile     func(*testing.T)
		expectedError bool
	}{
		{
			name:  "NewFile_Defaults",
			setup: func() {}, // No file
			validate: func(t *testing.T, cfg *Config) {
				if cfg.LLM.Provider != "gemini" {
					t.Errorf("expected default provider 'gemini', got '%s'", cfg.LLM.Provider)
				}
				if cfg.Enrich.MaxPOIs != 12 {
					t.Errorf("expected max_pois default 12, got %d", cfg.Enrich.MaxPOIs)
				}
				if time.Duration(cfg.Enrich.POITTL) != 24*time.Hour {
					t.Errorf("expected poi_ttl default 24h, got %v", time.Duration(cfg.Enrich.POITTL))
				}
				if time.Duration(cfg.Enrich.WeatherTTL) != 10*time.Minute {
					t.Errorf("expected weather_ttl default 10m, got %v", time.Duration(cfg.Enrich.WeatherTTL))
				}
			},
			checkFile: func(t *testing.T) {
				content, err := os.ReadFile(configPath)
				if err != nil {
					t.Fatalf("failed to read config file: %v", err)
				}
				if !strings.Contains(string(content), "overpass_primary: https://overpass-api.de/api/interpreter") {
					t.Error("config file missing default overpass endpoint")
				}
				if !strings.Contains(string(content), "# Options: gemini, openai, mock") {
					t.Error("config file missing provider options comment")
				}
			},
		},
		{
			name: "ExistingFile_Override",
			setup: func() {
				err := os.WriteFile(configPath, []byte("llm:\n  provider: mock\nenrich:\n  standard_radius: 2km\n  max_pois: 5\n"), 0o644)
				if err != nil {
					t.Fatalf("failed to setup test file: %v", err)
				}
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.LLM.Provider != "mock" {
					t.Errorf("expected provider 'mock', got '%s'", cfg.LLM.Provider)
				}
				if float64(cfg.Enrich.StandardRadius) != 2000 {
					t.Errorf("expected standard_radius 2000, got %v", float64(cfg.Enrich.StandardRadius))
				}
				if cfg.Enrich.MaxPOIs != 5 {
					t.Errorf("expected max_pois 5, got %d", cfg.Enrich.MaxPOIs)
				}
				// Unset fields keep their defaults.
				if float64(cfg.Enrich.WideRadius) != 20000 {
					t.Errorf("expected wide_radius default 20000, got %v", float64(cfg.Enrich.WideRadius))
				}
			},
			checkFile: func(t *testing.T) {
				content, err := os.ReadFile(configPath)
				if err != nil {
					t.Fatalf("failed to read config file: %v", err)
				}
				// Load must not rewrite a user's file.
				if !strings.Contains(string(content), "standard_radius: 2km") {
					t.Error("config file should preserve user formatting")
				}
			},
		},
		{
			name: "InvalidTone",
			setup: func() {
				err := os.WriteFile(configPath, []byte("game:\n  default_tone: spooky\n"), 0o644)
				if err != nil {
					t.Fatalf("failed to setup test file: %v", err)
				}
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Remove(configPath)
			tt.setup()

			cfg, err := Load(configPath)
			if tt.expectedError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() failed: %v", err)
			}
			if tt.validate != nil {
				tt.validate(t, cfg)
			}
			if tt.checkFile != nil {
				tt.checkFile(t)
			}
		})
	}
}

func TestGenerateDefault(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "sub", "whodunnit.yaml")

	if err := GenerateDefault(configPath); err != nil {
		t.Fatalf("GenerateDefault() failed: %v", err)
	}
	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("expected config file to exist: %v", err)
	}
	mtime := info.ModTime()

	// Second call must leave the existing file alone.
	if err := GenerateDefault(configPath); err != nil {
		t.Fatalf("GenerateDefault() second call failed: %v", err)
	}
	info2, _ := os.Stat(configPath)
	if !info2.ModTime().Equal(mtime) {
		t.Error("GenerateDefault overwrote an existing file")
	}
}
