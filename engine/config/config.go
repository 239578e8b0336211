package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/parcel/engine/core"
	"github.com/spaghettifunk/parcel/engine/systems"
)

const (
	BACKEND_HEADLESS = "headless"
	BACKEND_VULKAN   = "vulkan"
)

// Config is the engine configuration, usually read from a TOML file.
type Config struct {
	// The application name, used in logs and by the backend.
	ApplicationName string `toml:"application_name"`
	// One of debug, info, warn, error, fatal.
	LogLevel string `toml:"log_level"`
	Backend  string `toml:"backend"`
	// Frames to run before stopping. 0 runs until the engine is stopped.
	Frames uint64 `toml:"frames"`
	// TargetFPS caps the frame rate. 0 disables the cap.
	TargetFPS float64 `toml:"target_fps"`
	// Workers building scene geometry. 0 builds on the render thread.
	Workers int `toml:"workers"`

	SceneFile  string `toml:"scene_file"`
	WatchScene bool   `toml:"watch_scene"`

	Skins     []string                 `toml:"skins"`
	Renderers []systems.RendererConfig `toml:"renderers"`
}

// Default returns a configuration with one renderer per layout, drawing
// with the headless backend.
func Default() *Config {
	return &Config{
		ApplicationName: "Parcel",
		LogLevel:        "info",
		Backend:         BACKEND_HEADLESS,
		TargetFPS:       60,
		Workers:         4,
		Renderers: []systems.RendererConfig{
			{Name: "world", Layout: systems.LAYOUT_LIT, OwnsObjects: true},
			{Name: "terrain", Layout: systems.LAYOUT_INDEXED_LIT, OwnsObjects: true},
			{Name: "ui", Layout: systems.LAYOUT_SPRITE, OwnsObjects: true},
		},
	}
}

// Load reads the file at path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config '%s': %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config '%s': %w", path, err)
	}
	return c, nil
}

// Parse decodes data over the defaults. Keys missing from data keep their
// default value; a renderers list replaces the default renderers.
func Parse(data []byte) (*Config, error) {
	c := Default()
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(c); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return nil, fmt.Errorf("line %d column %d: %s: %w", row, col, decodeErr.Error(), core.ErrInvalidConfig)
		}
		var strictErr *toml.StrictMissingError
		if errors.As(err, &strictErr) {
			return nil, fmt.Errorf("%s: %w", strictErr.String(), core.ErrInvalidConfig)
		}
		return nil, fmt.Errorf("%s: %w", err.Error(), core.ErrInvalidConfig)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	var errs []error
	if _, err := core.ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level '%s': %w", c.LogLevel, err))
	}
	switch c.Backend {
	case BACKEND_HEADLESS, BACKEND_VULKAN:
	default:
		errs = append(errs, fmt.Errorf("unknown backend '%s'", c.Backend))
	}
	if c.TargetFPS < 0 {
		errs = append(errs, fmt.Errorf("target_fps must not be negative"))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative"))
	}
	if c.WatchScene && c.SceneFile == "" {
		errs = append(errs, fmt.Errorf("watch_scene needs a scene_file"))
	}
	if len(c.Renderers) == 0 {
		errs = append(errs, fmt.Errorf("at least one renderer is required"))
	}
	names := make(map[string]bool, len(c.Renderers))
	for i, r := range c.Renderers {
		if r.Name == "" {
			errs = append(errs, fmt.Errorf("renderer %d has no name", i))
		} else if names[r.Name] {
			errs = append(errs, fmt.Errorf("renderer '%s' configured twice", r.Name))
		}
		names[r.Name] = true
		if _, err := systems.LayoutByName(r.Layout); err != nil {
			errs = append(errs, fmt.Errorf("renderer '%s': %w", r.Name, err))
		}
	}
	for _, skin := range c.Skins {
		if skin == "" {
			errs = append(errs, fmt.Errorf("skin names must not be empty"))
			break
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", core.ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Level returns the parsed log level. Validate must have succeeded.
func (c *Config) Level() core.LogLevel {
	level, err := core.ParseLogLevel(c.LogLevel)
	if err != nil {
		return core.InfoLevel
	}
	return level
}
