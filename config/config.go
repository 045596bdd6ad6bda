// Package config provides configuration loading and access for the gallery
// and its effect engines.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/cardfx/fluid"
	"github.com/pthm-cable/cardfx/spring"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Gallery   GalleryConfig   `yaml:"gallery"`
	Fluid     fluid.Options   `yaml:"fluid"`
	Stretch   spring.Options  `yaml:"stretch"`
	Edge      spring.Options  `yaml:"edge"`
	Source    SourceConfig    `yaml:"source"`
	Fade      FadeConfig      `yaml:"fade"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// EffectKind names the effect a card runs.
type EffectKind string

const (
	EffectFluid   EffectKind = "fluid"   // fluid distortion
	EffectStretch EffectKind = "stretch" // whole-surface spring warp
	EffectEdge    EffectKind = "edge"    // edge-only spring warp
	EffectVideo   EffectKind = "video"   // plain video, no engine
)

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	TargetFPS  int     `yaml:"target_fps"`
	Title      string  `yaml:"title"`
	PixelRatio float64 `yaml:"pixel_ratio"` // 0 = ask the window
}

// GalleryConfig holds the card grid layout.
type GalleryConfig struct {
	Columns          int          `yaml:"columns"`
	Gap              float64      `yaml:"gap"`
	Padding          float64      `yaml:"padding"`
	CardAspect       float64      `yaml:"card_aspect"`       // width / height
	VisibilityMargin float64      `yaml:"visibility_margin"` // pixels around the screen counted as visible
	ScrollSpeed      float64      `yaml:"scroll_speed"`      // pixels per wheel notch
	Cards            []CardConfig `yaml:"cards"`
}

// CardConfig describes one card.
type CardConfig struct {
	Name   string     `yaml:"name"`
	Effect EffectKind `yaml:"effect"`
	Video  string     `yaml:"video"`  // frame directory, or "noise:<seed>"
	Poster string     `yaml:"poster"` // image path; empty = first video frame
	Seed   uint32     `yaml:"seed"`   // 0 = hash of video and poster
}

// SourceConfig holds frame source parameters.
type SourceConfig struct {
	FPS          float64 `yaml:"fps"`
	NoiseWidth   int     `yaml:"noise_width"`
	NoiseHeight  int     `yaml:"noise_height"`
	NoiseScale   float64 `yaml:"noise_scale"`
	NoiseSpeed   float64 `yaml:"noise_speed"`
	BufferFrames int     `yaml:"buffer_frames"` // advances before a procedural source is ready
}

// FadeConfig holds the poster to live crossfade spring.
type FadeConfig struct {
	AngularFrequency float64 `yaml:"angular_frequency"`
	Damping          float64 `yaml:"damping"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
	StatsInterval       float64 `yaml:"stats_interval"` // seconds between perf log lines
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	ScreenW32  float32 // Screen.Width as float32
	ScreenH32  float32 // Screen.Height as float32
	DT         float64 // 1 / TargetFPS
	CardIndex  map[string]int
	Procedural int // number of cards on a noise source
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)
	if c.Screen.TargetFPS > 0 {
		c.Derived.DT = 1 / float64(c.Screen.TargetFPS)
	} else {
		c.Derived.DT = 1.0 / 60
	}

	// Effect variants are fixed by section.
	c.Stretch.Variant = spring.VariantWhole
	c.Edge.Variant = spring.VariantEdge

	// Synthesize one card per effect if none specified
	if len(c.Gallery.Cards) == 0 {
		c.Gallery.Cards = []CardConfig{
			{Name: "fluid", Effect: EffectFluid, Video: "noise:1"},
			{Name: "stretch", Effect: EffectStretch, Video: "noise:2"},
			{Name: "edge", Effect: EffectEdge, Video: "noise:3"},
			{Name: "video", Effect: EffectVideo, Video: "noise:4"},
		}
	}

	c.Derived.CardIndex = make(map[string]int, len(c.Gallery.Cards))
	c.Derived.Procedural = 0
	for i := range c.Gallery.Cards {
		card := &c.Gallery.Cards[i]
		if card.Name == "" {
			card.Name = fmt.Sprintf("card-%d", i)
		}
		if card.Effect == "" {
			card.Effect = EffectFluid
		}
		if IsNoise(card.Video) {
			c.Derived.Procedural++
		}
		c.Derived.CardIndex[card.Name] = i
	}
}

func (c *Config) validate() error {
	if c.Screen.Width <= 0 || c.Screen.Height <= 0 {
		return fmt.Errorf("screen size must be positive, got %dx%d", c.Screen.Width, c.Screen.Height)
	}
	if c.Gallery.Columns < 1 {
		return fmt.Errorf("gallery.columns must be at least 1, got %d", c.Gallery.Columns)
	}
	if c.Gallery.CardAspect <= 0 {
		return fmt.Errorf("gallery.card_aspect must be positive, got %v", c.Gallery.CardAspect)
	}
	for _, card := range c.Gallery.Cards {
		switch card.Effect {
		case EffectFluid, EffectStretch, EffectEdge, EffectVideo:
		default:
			return fmt.Errorf("card %q: unknown effect %q", card.Name, card.Effect)
		}
		if card.Video == "" {
			return fmt.Errorf("card %q: video is required", card.Name)
		}
	}
	if err := c.Fluid.Validate(); err != nil {
		return fmt.Errorf("fluid: %w", err)
	}
	if err := c.Stretch.Validate(); err != nil {
		return fmt.Errorf("stretch: %w", err)
	}
	if err := c.Edge.Validate(); err != nil {
		return fmt.Errorf("edge: %w", err)
	}
	return nil
}

// FluidOptions returns the fluid engine tunables for a card. A card seed
// overrides the configured one.
func (c *Config) FluidOptions(card CardConfig) fluid.Options {
	o := c.Fluid
	if card.Seed != 0 {
		o.Seed = card.Seed
	}
	return o
}

// SpringOptions returns the spring tunables for an effect kind. It reports
// false for kinds that do not run a spring engine.
func (c *Config) SpringOptions(kind EffectKind) (spring.Options, bool) {
	switch kind {
	case EffectStretch:
		return c.Stretch, true
	case EffectEdge:
		return c.Edge, true
	}
	return spring.Options{}, false
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
