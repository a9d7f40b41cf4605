package drift

import (
	"fmt"
	"math/rand/v2"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SceneConfig describes a scene in YAML: the window, the image manifest, and
// optionally a particle field and a lane scroller.
type SceneConfig struct {
	Window   WindowConfig     `yaml:"window"`
	Assets   []Asset          `yaml:"assets"`
	Field    *FieldSection    `yaml:"field"`
	Scroller *ScrollerSection `yaml:"scroller"`
}

// WindowConfig sizes the host window.
type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
	TPS    int    `yaml:"tps"`
}

// FieldSection is the YAML form of FieldConfig.
type FieldSection struct {
	Interval   int        `yaml:"interval"`
	VelocityX  [2]float64 `yaml:"velocity_x"`
	VelocityY  [2]float64 `yaml:"velocity_y"`
	Capacity   int        `yaml:"capacity"`
	Spawn      string     `yaml:"spawn"` // top, bottom or point
	Point      [2]float64 `yaml:"point"`
	NoRotation bool       `yaml:"no_rotation"`
	MinDrift   float64    `yaml:"min_drift"`
	FadeIn     int        `yaml:"fade_in"` // ticks
	Blend      string     `yaml:"blend"` // normal, add, screen or none
	Seed       uint64     `yaml:"seed"`
	// Assets lists the manifest IDs the field spawns. Empty means all.
	Assets []string `yaml:"assets"`
}

// ScrollerSection is the YAML form of ScrollerConfig.
type ScrollerSection struct {
	Colors     []string     `yaml:"colors"`
	AvatarSize float64      `yaml:"avatar_size"`
	Padding    float64      `yaml:"padding"`
	FontSize   float64      `yaml:"font_size"`
	FontWeight string       `yaml:"font_weight"`
	FontFamily string       `yaml:"font_family"`
	Rows       int          `yaml:"rows"`
	Speed      float64      `yaml:"speed"`
	MinSpace   int          `yaml:"min_space"`
	MaxSpace   int          `yaml:"max_space"`
	Loop       bool         `yaml:"loop"`
	Background bool         `yaml:"background"`
	Seed       uint64       `yaml:"seed"`
	Items      []ItemConfig `yaml:"items"`
}

// ItemConfig is one scroller message. Avatar names a manifest asset.
type ItemConfig struct {
	Avatar string `yaml:"avatar"`
	Name   string `yaml:"name"`
	Text   string `yaml:"text"`
	Color  string `yaml:"color"`
}

// LoadSceneConfig reads and parses a YAML scene file.
func LoadSceneConfig(path string) (*SceneConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("drift: read scene config: %w", err)
	}
	cfg, err := ParseSceneConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, path)
	}
	return cfg, nil
}

// ParseSceneConfig parses YAML scene data, applies defaults and validates
// the result.
func ParseSceneConfig(data []byte) (*SceneConfig, error) {
	var cfg SceneConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("drift: parse scene config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *SceneConfig) applyDefaults() {
	if c.Window.Width == 0 {
		c.Window.Width = 750
	}
	if c.Window.Height == 0 {
		c.Window.Height = 1334
	}
	if c.Window.Title == "" {
		c.Window.Title = "drift"
	}
	if c.Window.TPS == 0 {
		c.Window.TPS = 60
	}
}

func (c *SceneConfig) validate() error {
	if c.Window.Width < 0 || c.Window.Height < 0 || c.Window.TPS < 0 {
		return fmt.Errorf("drift: window size and tps must be positive")
	}

	ids := make(map[string]bool, len(c.Assets))
	for i, a := range c.Assets {
		if a.Src == "" {
			return fmt.Errorf("drift: asset %d has no src", i)
		}
		ids[a.key()] = true
	}

	if f := c.Field; f != nil {
		if _, err := f.FieldConfig(); err != nil {
			return err
		}
		for _, id := range f.Assets {
			if !ids[id] {
				return fmt.Errorf("drift: field asset %q is not in the manifest", id)
			}
		}
	}

	if s := c.Scroller; s != nil {
		if s.Rows < 0 {
			return fmt.Errorf("drift: scroller rows %d must be positive", s.Rows)
		}
		if s.Colors != nil {
			if _, err := ParsePalette(s.Colors); err != nil {
				return err
			}
		}
		if _, err := ParseFontWeight(s.FontWeight); err != nil {
			return err
		}
		for i, it := range s.Items {
			if it.Avatar != "" && !ids[it.Avatar] {
				return fmt.Errorf("drift: scroller item %d avatar %q is not in the manifest", i, it.Avatar)
			}
		}
	}
	return nil
}

// FieldAssets returns the manifest entries the field spawns from.
func (c *SceneConfig) FieldAssets() []Asset {
	if c.Field == nil || len(c.Field.Assets) == 0 {
		return c.Assets
	}
	want := make(map[string]bool, len(c.Field.Assets))
	for _, id := range c.Field.Assets {
		want[id] = true
	}
	var out []Asset
	for _, a := range c.Assets {
		if want[a.key()] {
			out = append(out, a)
		}
	}
	return out
}

// FieldConfig converts the section to a FieldConfig. Zero values keep the
// FieldConfig defaults.
func (f FieldSection) FieldConfig() (FieldConfig, error) {
	cfg := FieldConfig{
		Interval:   f.Interval,
		VelocityX:  Range{f.VelocityX[0], f.VelocityX[1]},
		VelocityY:  Range{f.VelocityY[0], f.VelocityY[1]},
		Capacity:   f.Capacity,
		Point:      Vec2{f.Point[0], f.Point[1]},
		NoRotation: f.NoRotation,
		MinDrift:   f.MinDrift,
		FadeIn:     f.FadeIn,
	}
	if cfg.VelocityX.Min > cfg.VelocityX.Max || cfg.VelocityY.Min > cfg.VelocityY.Max {
		return FieldConfig{}, fmt.Errorf("drift: field velocity ranges must be [min, max]")
	}
	if f.Capacity < 0 || f.Interval < 0 || f.MinDrift < 0 || f.FadeIn < 0 {
		return FieldConfig{}, fmt.Errorf("drift: field interval, capacity, min_drift and fade_in must not be negative")
	}

	switch strings.ToLower(f.Spawn) {
	case "", "top":
		cfg.Spawn = SpawnTop
	case "bottom":
		cfg.Spawn = SpawnBottom
	case "point":
		cfg.Spawn = SpawnPoint
	default:
		return FieldConfig{}, fmt.Errorf("drift: unknown spawn region %q", f.Spawn)
	}

	switch strings.ToLower(f.Blend) {
	case "", "normal":
		cfg.BlendMode = BlendNormal
	case "add":
		cfg.BlendMode = BlendAdd
	case "screen":
		cfg.BlendMode = BlendScreen
	case "none":
		cfg.BlendMode = BlendNone
	default:
		return FieldConfig{}, fmt.Errorf("drift: unknown blend mode %q", f.Blend)
	}

	if f.Seed != 0 {
		cfg.Rand = rand.New(rand.NewPCG(f.Seed, f.Seed))
	}
	return cfg, nil
}

// ScrollerConfig converts the section to a ScrollerConfig drawing to target.
// Avatars are looked up in assets, which may be nil when no item has one.
func (s ScrollerSection) ScrollerConfig(target Surface, assets *AssetSet) ScrollerConfig {
	cfg := ScrollerConfig{
		Target:     target,
		Colors:     s.Colors,
		AvatarSize: s.AvatarSize,
		Padding:    s.Padding,
		FontSize:   s.FontSize,
		FontWeight: s.FontWeight,
		FontFamily: s.FontFamily,
		Rows:       s.Rows,
		Speed:      s.Speed,
		MinSpace:   s.MinSpace,
		MaxSpace:   s.MaxSpace,
		Loop:       s.Loop,
		Background: s.Background,
	}
	if s.Seed != 0 {
		cfg.Rand = rand.New(rand.NewPCG(s.Seed, s.Seed))
	}
	cfg.List = make([]LaneItem, 0, len(s.Items))
	for _, it := range s.Items {
		item := LaneItem{Name: it.Name, Text: it.Text, Color: it.Color}
		if it.Avatar != "" && assets != nil {
			item.Avatar, _ = assets.Image(it.Avatar)
		}
		cfg.List = append(cfg.List, item)
	}
	return cfg
}
