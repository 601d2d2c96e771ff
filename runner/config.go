package runner

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/gnoswap-labs/probify/formatter"
	"github.com/gnoswap-labs/probify/internal"
	"github.com/gnoswap-labs/probify/internal/symbolic"
)

// DefaultConfigPath is the configuration file looked up when none is given.
const DefaultConfigPath = ".probify.yaml"

// ErrInvalidConfig is returned for configuration values out of range.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the overall configuration. Values from the YAML file
// can be overridden by PROBIFY_* environment variables.
type Config struct {
	Name    string       `yaml:"name"`
	Output  string       `yaml:"output" env:"PROBIFY_OUTPUT"`
	MaxRows int          `yaml:"max_rows" env:"PROBIFY_MAX_ROWS"`
	Render  RenderConfig `yaml:"render"`
}

// RenderConfig holds the presentation settings handed to the formatter.
type RenderConfig struct {
	DecimalPlaces          int     `yaml:"decimal_places" env:"PROBIFY_DECIMAL_PLACES"`
	MinLabelPercent        float64 `yaml:"min_label_percent" env:"PROBIFY_MIN_LABEL_PERCENT"`
	BarWidth               int     `yaml:"bar_width" env:"PROBIFY_BAR_WIDTH"`
	ShowConfidenceInterval bool    `yaml:"show_confidence_interval" env:"PROBIFY_SHOW_CONFIDENCE_INTERVAL"`
	ConfidenceLevel        float64 `yaml:"confidence_level" env:"PROBIFY_CONFIDENCE_LEVEL"`
	Color                  bool    `yaml:"color" env:"PROBIFY_COLOR"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	opts := formatter.DefaultOptions()
	return Config{
		Name:   "probify",
		Output: symbolic.DefaultOutput,
		Render: RenderConfig{
			DecimalPlaces:          opts.DecimalPlaces,
			MinLabelPercent:        opts.MinLabelPercent,
			BarWidth:               opts.BarWidth,
			ShowConfidenceInterval: opts.ShowConfidenceInterval,
			ConfidenceLevel:        opts.ConfidenceLevel,
			Color:                  opts.Color,
		},
	}
}

// Options converts the render settings for the formatter.
func (c RenderConfig) Options() formatter.Options {
	return formatter.Options{
		DecimalPlaces:          c.DecimalPlaces,
		MinLabelPercent:        c.MinLabelPercent,
		BarWidth:               c.BarWidth,
		ShowConfidenceInterval: c.ShowConfidenceInterval,
		ConfidenceLevel:        c.ConfidenceLevel,
		Color:                  c.Color,
	}
}

// Engine returns the engine settings.
func (c Config) Engine() internal.Config {
	return internal.Config{Output: c.Output, MaxRows: c.MaxRows}
}

// Validate reports values the engine or the formatter cannot use.
func (c Config) Validate() error {
	switch {
	case c.MaxRows < 0:
		return fmt.Errorf("%w: max_rows must not be negative", ErrInvalidConfig)
	case c.Render.DecimalPlaces < 0:
		return fmt.Errorf("%w: decimal_places must not be negative", ErrInvalidConfig)
	case c.Render.BarWidth < 0:
		return fmt.Errorf("%w: bar_width must not be negative", ErrInvalidConfig)
	case c.Render.ConfidenceLevel <= 0 || c.Render.ConfidenceLevel > 1:
		return fmt.Errorf("%w: confidence_level must be in (0, 1]", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads the configuration file on top of the defaults and
// applies environment overrides. A missing file at the default path is
// not an error.
func LoadConfig(configurationPath string) (Config, error) {
	config := DefaultConfig()

	explicit := configurationPath != ""
	if !explicit {
		configurationPath = DefaultConfigPath
	}
	err := parseConfigurationFile(configurationPath, &config)
	if err != nil && (explicit || !errors.Is(err, os.ErrNotExist)) {
		return Config{}, err
	}

	if err := env.Parse(&config); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func parseConfigurationFile(configurationPath string, config *Config) error {
	// Read the configuration file
	f, err := os.Open(configurationPath)
	if err != nil {
		return err
	}
	defer f.Close()

	// Parse the configuration file
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("error parsing %s: %w", configurationPath, err)
	}
	return nil
}

// WriteConfig stores config as YAML at configurationPath.
func WriteConfig(configurationPath string, config Config) error {
	d, err := yaml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(configurationPath, d, 0o644)
}
