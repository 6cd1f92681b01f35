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

// FileConfig is the on-disk configuration. Absent keys keep the value set
// by earlier layers.
type FileConfig struct {
	WatchDir    string          `json:"watch_dir" yaml:"watch_dir"`
	OutputDir   string          `json:"output_dir" yaml:"output_dir"`
	Format      string          `json:"format" yaml:"format"`
	Quality     *float64        `json:"quality" yaml:"quality"`
	GRPCAddr    string          `json:"grpc_addr" yaml:"grpc_addr"`
	MetricsAddr *string         `json:"metrics_addr" yaml:"metrics_addr"`
	Debounce    *timex.Duration `json:"debounce" yaml:"debounce"`
	Locale      string          `json:"locale" yaml:"locale"`
	LogLevel    string          `json:"log_level" yaml:"log_level"`
}

// parseFile loads the file named by -c or -config into config. YAML is
// chosen by the .yaml/.yml extension, JSON otherwise. Read or decode errors
// panic.
func parseFile(config *Config) {
	path := flagx.ConfigFileFlags()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		panic(err)
	}

	if c.WatchDir != "" {
		config.WatchDir = c.WatchDir
	}
	if c.OutputDir != "" {
		config.OutputDir = c.OutputDir
	}
	if c.Format != "" {
		config.Format = c.Format
	}
	if c.Quality != nil {
		config.Quality = *c.Quality
	}
	if c.GRPCAddr != "" {
		config.GRPCAddr = c.GRPCAddr
	}
	if c.MetricsAddr != nil {
		config.MetricsAddr = *c.MetricsAddr
	}
	if c.Debounce != nil {
		config.Debounce = c.Debounce.Duration
	}
	if c.Locale != "" {
		config.Locale = c.Locale
	}
	if c.LogLevel != "" {
		config.LogLevel = c.LogLevel
	}
}
