package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/thenoetrevino/taskroll/internal/config/colors"
)

func TestThemeFileLoading(t *testing.T) {
	dir := isolate(t)

	themeContent := []byte(`theme:
  accent: "#FF0000"
  blocked: "#00FF00"
  warning: "#0000FF"
`)
	themeFile := filepath.Join(dir, "theme.yaml")
	if err := os.WriteFile(themeFile, themeContent, 0o644); err != nil {
		t.Fatalf("Failed to write theme file: %v", err)
	}
	t.Setenv(EnvThemeFile, themeFile)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify theme was merged
	if cfg.ColorScheme.Accent != "#FF0000" {
		t.Errorf("Expected accent to be #FF0000, got %s", cfg.ColorScheme.Accent)
	}
	if cfg.ColorScheme.Blocked != "#00FF00" {
		t.Errorf("Expected blocked to be #00FF00, got %s", cfg.ColorScheme.Blocked)
	}
	if cfg.ColorScheme.Warning != "#0000FF" {
		t.Errorf("Expected warning to be #0000FF, got %s", cfg.ColorScheme.Warning)
	}

	// Verify other colors still have defaults
	if cfg.ColorScheme.Critical == "" {
		t.Error("Expected critical to have default value")
	}
}

func TestPresetsAreComplete(t *testing.T) {
	for _, name := range colors.Presets {
		scheme := colors.GetPreset(name)
		if scheme.Preset != name {
			t.Errorf("GetPreset(%q) returned preset %q", name, scheme.Preset)
		}
		before := *scheme
		scheme.ApplyDefaults()
		if *scheme != before {
			t.Errorf("Preset %q has unset colors", name)
		}
	}

	if got := colors.GetPreset("nonexistent").Preset; got != "default" {
		t.Errorf("Unknown preset fell back to %q, want default", got)
	}
}
