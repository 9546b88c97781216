package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dendrolab/ringscan"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfigFromFile(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.View.MaxZoom != 18 || cfg.Detect.Algorithm != string(ringscan.Classification) {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfigFromFile(writeConfig(t, `
[[source.layers]]
url = "https://tiles.example.org/{z}/{x}/{y}.png"
headers = { Authorization = "Bearer x" }

[pipeline]
passes = [{ kernel = "sharpen", strength = 0.8 }]

[detect]
algorithm = "ed"

[detect.settings]
min_gap = 4
annual = true
`))
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Source.Layers) != 1 || cfg.Source.Layers[0].Headers["Authorization"] != "Bearer x" {
		t.Errorf("layers = %+v", cfg.Source.Layers)
	}
	if len(cfg.Pipeline.Passes) != 1 || cfg.Pipeline.Passes[0].Strength != 0.8 {
		t.Errorf("passes = %+v", cfg.Pipeline.Passes)
	}
	if cfg.Detect.Settings.MinGap != 4 || !cfg.Detect.Settings.Annual {
		t.Errorf("settings = %+v", cfg.Detect.Settings)
	}
	// Unset settings keep their defaults.
	if cfg.Detect.Settings.ColPercentile != ringscan.DefaultSettings().ColPercentile {
		t.Errorf("ColPercentile = %v, want default", cfg.Detect.Settings.ColPercentile)
	}
}

func TestLoadConfigRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown key", "[view]\nzoom = 3\n", "unknown config keys: view.zoom"},
		{"both url and dir", "[[source.layers]]\nurl = \"x\"\ndir = \"y\"\n", "exactly one of url and dir"},
		{"projection", "[view]\ncrs = \"lambert\"\n", "unknown projection"},
		{"zoom range", "[view]\nmin_zoom = 5\nmax_zoom = 2\n", "zoom range 5..2"},
		{"duration", "[sampler]\ntile_wait = \"soon\"\n", "sampler.tile_wait"},
		{"pass", "[pipeline]\npasses = [{ kernel = \"nosuch\", strength = 1.0 }]\n", "pipeline.passes"},
		{"algorithm", "[detect]\nalgorithm = \"zz\"\n", "detect.algorithm"},
		{"direction", "[detect]\ndirection = \"up\"\n", "detect.direction"},
		{"syntax", "[view\n", "failed to decode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfigFromFile(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestConfigSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "config.toml")
	cfg := NewDefaultConfig()
	cfg.View.CRS = "simple"
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}
	got, err := LoadConfigFromFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.View.CRS != "simple" || got.Sampler.TileWait != cfg.Sampler.TileWait {
		t.Errorf("reloaded config = %+v", got.View)
	}
}
