package config

import (
	"fmt"
	"math"
	"time"

	"github.com/dmitrijs2005/avifconv/internal/models"
)

// Config holds runtime settings for the avifconv CLI.
type Config struct {
	OutputDir  string
	Mode       string
	Quality    float64
	Locale     string
	BatchDelay time.Duration
	Progress   bool
	LogLevel   string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.OutputDir = "./converted"
	c.Mode = "jpg"
	c.Quality = 0.9
	c.Locale = "es"
	c.BatchDelay = 100 * time.Millisecond
	c.Progress = true
	c.LogLevel = "warn"
}

// Format is the output format selected by Mode.
func (c *Config) Format() models.Format {
	f, _ := models.ParseFormat(c.Mode)
	return f
}

// Validate rejects values the converter would refuse later.
func (c *Config) Validate() error {
	if _, ok := models.ParseFormat(c.Mode); !ok {
		return fmt.Errorf("mode %q: want jpg or png", c.Mode)
	}
	if math.IsNaN(c.Quality) || c.Quality < 0 || c.Quality > 1 {
		return fmt.Errorf("quality %v: want a value between 0 and 1", c.Quality)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output directory must not be empty")
	}
	if c.BatchDelay < 0 {
		return fmt.Errorf("batch delay %v must not be negative", c.BatchDelay)
	}
	return nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// a config file (if given) and command-line flags. Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)
	parseFlags(cfg)
	return cfg
}
