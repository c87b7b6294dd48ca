package recurrence

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the limits of the recurrence engine
type Config struct {
	// MaxOccurrences caps the occurrence count of a rule and the default
	// number of results of a calculation.
	MaxOccurrences int `yaml:"max_occurrences"`
	// MaxInterval caps the interval of a rule.
	MaxInterval int `yaml:"max_interval"`
	// MaxOperations bounds the candidate dates examined by one calculation.
	MaxOperations int `yaml:"max_operations"`
	// NoEndYears is how far an unbounded series is expanded.
	NoEndYears int `yaml:"no_end_years"`
	// FirstDayOfWeek orders the days of a weekly block.
	FirstDayOfWeek time.Weekday `yaml:"first_day_of_week"`

	Cache CacheConfig `yaml:"cache"`

	Logger *slog.Logger `yaml:"-"`
}

// DefaultConfig provides the limits used in production
var DefaultConfig = Config{
	MaxOccurrences: 365,
	MaxInterval:    999,
	MaxOperations:  50000,
	NoEndYears:     4,
	FirstDayOfWeek: time.Monday,
	Cache:          DisabledCacheConfig,
}

// CachedConfig is DefaultConfig with result caching turned on
var CachedConfig = Config{
	MaxOccurrences: 365,
	MaxInterval:    999,
	MaxOperations:  50000,
	NoEndYears:     4,
	FirstDayOfWeek: time.Monday,
	Cache:          DefaultCacheConfig,
}

// WithNoEndYears returns a copy expanding unbounded series for n years.
func (c Config) WithNoEndYears(n int) Config {
	c.NoEndYears = n
	return c
}

// WithLogger returns a copy logging to l.
func (c Config) WithLogger(l *slog.Logger) Config {
	c.Logger = l
	return c
}

// LoadConfig reads a YAML file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML on top of DefaultConfig.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch {
	case c.MaxOccurrences <= 0:
		return fmt.Errorf("max_occurrences must be positive, got %d", c.MaxOccurrences)
	case c.MaxInterval <= 0:
		return fmt.Errorf("max_interval must be positive, got %d", c.MaxInterval)
	case c.MaxOperations <= 0:
		return fmt.Errorf("max_operations must be positive, got %d", c.MaxOperations)
	case c.NoEndYears <= 0:
		return fmt.Errorf("no_end_years must be positive, got %d", c.NoEndYears)
	case c.FirstDayOfWeek < time.Sunday || c.FirstDayOfWeek > time.Saturday:
		return fmt.Errorf("first_day_of_week must be 0..6, got %d", c.FirstDayOfWeek)
	}
	return nil
}

// withDefaults fills zero limits from DefaultConfig.
func (c Config) withDefaults() Config {
	if c.MaxOccurrences <= 0 {
		c.MaxOccurrences = DefaultConfig.MaxOccurrences
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = DefaultConfig.MaxInterval
	}
	if c.MaxOperations <= 0 {
		c.MaxOperations = DefaultConfig.MaxOperations
	}
	if c.NoEndYears <= 0 {
		c.NoEndYears = DefaultConfig.NoEndYears
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}
