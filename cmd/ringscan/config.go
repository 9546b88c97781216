package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"

	"github.com/dendrolab/ringscan"
	"github.com/dendrolab/ringscan/internal/convolve"
	"github.com/dendrolab/ringscan/internal/detect"
	"github.com/dendrolab/ringscan/internal/geom"
	"github.com/dendrolab/ringscan/internal/placement"
	"github.com/dendrolab/ringscan/internal/tilesource"
)

// defaultConfigPath is $XDG_CONFIG_HOME/ringscan/config.toml.
func defaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.toml")
}

type Config struct {
	Source   SourceConfig   `toml:"source"`
	View     ViewConfig     `toml:"view"`
	Pipeline PipelineConfig `toml:"pipeline"`
	Sampler  SamplerConfig  `toml:"sampler"`
	Detect   DetectConfig   `toml:"detect"`
	Log      LogConfig      `toml:"log"`
}

type LayerConfig struct {
	URL     string            `toml:"url"`
	Dir     string            `toml:"dir"`
	Ext     string            `toml:"ext"`
	Headers map[string]string `toml:"headers"`
}

type SourceConfig struct {
	Layers  []LayerConfig `toml:"layers"`
	Timeout string        `toml:"timeout"`
}

type ViewConfig struct {
	CRS      string `toml:"crs"` // "mercator" or "simple"
	TileSize int    `toml:"tile_size"`
	MinZoom  int    `toml:"min_zoom"`
	MaxZoom  int    `toml:"max_zoom"`
	Prefetch int    `toml:"prefetch"`
	Capacity int    `toml:"capacity"`
	CSS      string `toml:"css"`
}

type PipelineConfig struct {
	Backend  string                `toml:"backend"` // "", "cpu" or "wgpu"
	Workers  int                   `toml:"workers"`
	PoolSize int                   `toml:"pool_size"`
	Program  string                `toml:"program"` // optional WGSL file replacing the built-in program
	Passes   []ringscan.FilterPass `toml:"passes"`
}

type SamplerConfig struct {
	MaxSubdivisions    int    `toml:"max_subdivisions"`
	TileWait           string `toml:"tile_wait"`
	MaxCanvasDimension int    `toml:"max_canvas_dimension"`
	MaxCanvasArea      int    `toml:"max_canvas_area"`
}

type DetectConfig struct {
	Algorithm string            `toml:"algorithm"`
	Direction string            `toml:"direction"`
	Settings  ringscan.Settings `toml:"settings"`
}

type LogConfig struct {
	Level    string `toml:"level"`
	Language string `toml:"language"`
}

func NewDefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Timeout: "15s",
		},
		View: ViewConfig{
			CRS:      "mercator",
			TileSize: geom.DefaultTileSize,
			MinZoom:  0,
			MaxZoom:  18,
			Prefetch: 1,
			Capacity: 512,
		},
		Pipeline: PipelineConfig{
			PoolSize: convolve.DefaultPoolSize,
		},
		Sampler: SamplerConfig{
			MaxSubdivisions:    32,
			TileWait:           "20s",
			MaxCanvasDimension: 8192,
			MaxCanvasArea:      8192 * 4096,
		},
		Detect: DetectConfig{
			Algorithm: string(ringscan.Classification),
			Direction: "forward",
			Settings:  ringscan.DefaultSettings(),
		},
		Log: LogConfig{
			Level:    "warn",
			Language: "en",
		},
	}
}

func LoadConfigFromFile(path string) (*Config, error) {
	config := NewDefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config, nil // no config file, return defaults
	}

	md, err := toml.DecodeFile(path, config)
	if err != nil {
		return nil, fmt.Errorf("failed to decode TOML config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}

	return config, config.Validate()
}

// Validate checks the fields that the engine would otherwise reject late.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Source.Layers) > tilesource.MaxLayers {
		errs = append(errs, fmt.Errorf("source: %d layers, at most %d", len(c.Source.Layers), tilesource.MaxLayers))
	}
	for i, l := range c.Source.Layers {
		if (l.URL == "") == (l.Dir == "") {
			errs = append(errs, fmt.Errorf("source.layers[%d]: set exactly one of url and dir", i))
		}
	}
	if _, err := c.crs(); err != nil {
		errs = append(errs, err)
	}
	if c.View.MinZoom < 0 || c.View.MaxZoom < c.View.MinZoom {
		errs = append(errs, fmt.Errorf("view: zoom range %d..%d", c.View.MinZoom, c.View.MaxZoom))
	}
	for _, d := range []struct{ name, value string }{
		{"source.timeout", c.Source.Timeout},
		{"sampler.tile_wait", c.Sampler.TileWait},
	} {
		if _, err := time.ParseDuration(d.value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", d.name, err))
		}
	}
	if err := convolve.ValidatePasses(c.Pipeline.Passes); err != nil {
		errs = append(errs, fmt.Errorf("pipeline.passes: %w", err))
	}
	if _, err := detect.Lookup(detect.Kind(c.Detect.Algorithm)); err != nil {
		errs = append(errs, fmt.Errorf("detect.algorithm: %w", err))
	}
	if _, err := placement.ParseDirection(c.Detect.Direction); err != nil {
		errs = append(errs, fmt.Errorf("detect.direction: %w", err))
	}
	if err := c.Detect.Settings.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *Config) crs() (geom.CRS, error) {
	switch strings.ToLower(c.View.CRS) {
	case "mercator", "":
		return geom.WebMercator{TileSize: c.View.TileSize}, nil
	case "simple":
		return geom.Simple{}, nil
	}
	return nil, fmt.Errorf("view.crs: unknown projection %q", c.View.CRS)
}

// Save writes the config to path, creating its directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close() // nolint: errcheck
	return toml.NewEncoder(f).Encode(c)
}
