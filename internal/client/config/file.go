package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/avifconv/internal/flagx"
	"github.com/dmitrijs2005/avifconv/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the configuration. Pointer fields tell
// an absent key from a zero value.
type FileConfig struct {
	OutputDir  string          `json:"output_dir" yaml:"output_dir"`
	Mode       string          `json:"mode" yaml:"mode"`
	Quality    *float64        `json:"quality" yaml:"quality"`
	Locale     string          `json:"locale" yaml:"locale"`
	BatchDelay *timex.Duration `json:"batch_delay" yaml:"batch_delay"`
	Progress   *bool           `json:"progress" yaml:"progress"`
	LogLevel   string          `json:"log_level" yaml:"log_level"`
}

// parseFile overlays cfg with the file named by -c / -config. It panics when
// the file cannot be read or decoded.
func parseFile(cfg *Config) {
	path := flagx.ConfigFileFlags()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var fc FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		panic(err)
	}

	fc.apply(cfg)
}

func (fc *FileConfig) apply(cfg *Config) {
	if fc.OutputDir != "" {
		cfg.OutputDir = fc.OutputDir
	}
	if fc.Mode != "" {
		cfg.Mode = fc.Mode
	}
	if fc.Quality != nil {
		cfg.Quality = *fc.Quality
	}
	if fc.Locale != "" {
		cfg.Locale = fc.Locale
	}
	if fc.BatchDelay != nil {
		cfg.BatchDelay = fc.BatchDelay.Duration
	}
	if fc.Progress != nil {
		cfg.Progress = *fc.Progress
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
}
