// Package config loads sniffy settings from a YAML file and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chmouel/sniffy/internal/language"
)

// DefaultPath is the configuration file looked up in the working directory.
const DefaultPath = ".sniffy.yaml"

// Config holds every setting that can come from the configuration file.
type Config struct {
	Format  string   `yaml:"format"` // table, json, csv, html
	Jobs    int      `yaml:"jobs"`   // 0 = GOMAXPROCS
	Hidden  bool     `yaml:"hidden"`
	Exclude []string `yaml:"exclude"`
	Exact   bool     `yaml:"exact"`
	Cache   string   `yaml:"cache"`
	NoColor bool     `yaml:"no_color"`

	Logging   LoggingConfig       `yaml:"logging"`
	Badge     BadgeConfig         `yaml:"badge"`
	Watch     WatchConfig         `yaml:"watch"`
	Languages []language.Language `yaml:"languages"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// BadgeConfig configures SVG badge colours.
type BadgeConfig struct {
	Kind   string  `yaml:"kind"`   // code, comments
	Red    float64 `yaml:"red"`    // comment density below this is red
	Yellow float64 `yaml:"yellow"` // below this is yellow, otherwise green
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	Debounce string `yaml:"debounce"`
}

// ValidFormats lists the accepted output formats.
var ValidFormats = []string{"table", "json", "csv", "html"}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Format:  "table",
		Logging: LoggingConfig{Level: "warn"},
		Badge: BadgeConfig{
			Kind:   "code",
			Red:    10,
			Yellow: 20,
		},
		Watch: WatchConfig{Debounce: "500ms"},
	}
}

// Load loads configuration from a YAML file. A missing file is not an error
// when optional is true; the defaults are returned instead.
func Load(path string, optional bool) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case os.IsNotExist(err) && optional:
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnvOverrides()
	cfg.normalize()

	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if f := os.Getenv("SNIFFY_FORMAT"); f != "" {
		c.Format = f
	}
	if j := os.Getenv("SNIFFY_JOBS"); j != "" {
		if n, err := strconv.Atoi(j); err == nil {
			c.Jobs = n
		}
	}
	if p := os.Getenv("SNIFFY_CACHE"); p != "" {
		c.Cache = p
	}
	// https://no-color.org: any value, even empty, disables colour.
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		c.NoColor = true
	}
}

// normalize lower-cases the enumerated settings so "JSON" from the
// environment or the file is accepted like "json".
func (c *Config) normalize() {
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
	c.Badge.Kind = strings.ToLower(strings.TrimSpace(c.Badge.Kind))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
}

// DebounceDuration returns the watch debounce as a duration.
func (c *Config) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !ValidFormat(c.Format) {
		return fmt.Errorf("invalid format: %s (valid: %v)", c.Format, ValidFormats)
	}
	if c.Jobs < 0 {
		return fmt.Errorf("invalid jobs: %d (must be >= 0)", c.Jobs)
	}
	switch c.Badge.Kind {
	case "", "code", "comments":
	default:
		return fmt.Errorf("invalid badge kind: %s (valid: code, comments)", c.Badge.Kind)
	}
	if c.Badge.Red > c.Badge.Yellow {
		return fmt.Errorf("badge thresholds out of order: red %.1f > yellow %.1f", c.Badge.Red, c.Badge.Yellow)
	}
	for i, l := range c.Languages {
		if l.Name == "" {
			return fmt.Errorf("languages[%d]: name is required", i)
		}
		if len(l.Extensions) == 0 {
			return fmt.Errorf("language %s: at least one extension is required", l.Name)
		}
		for _, p := range l.BlockComments {
			if p.Start == "" || p.End == "" {
				return fmt.Errorf("language %s: block comments need both start and end", l.Name)
			}
		}
	}
	return nil
}

// ValidFormat reports whether f is an accepted output format.
func ValidFormat(f string) bool {
	for _, v := range ValidFormats {
		if f == v {
			return true
		}
	}
	return false
}
