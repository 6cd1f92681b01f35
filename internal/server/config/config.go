// Package config handles configuration for the watch daemon, including
// defaults, a JSON or YAML file overlay, and command-line flags.
package config

import (
	"fmt"
	"math"
	"time"

	"github.com/dmitrijs2005/avifconv/internal/models"
)

// Config holds runtime settings for avifconvd.
//
// Fields:
//   - WatchDir: directory scanned for new .avif files.
//   - OutputDir: where converted files and archives are written.
//   - Format / Quality: conversion target.
//   - GRPCAddr: bind address of the status service.
//   - MetricsAddr: bind address of the Prometheus endpoint; empty disables it.
//   - Debounce: quiet period a file must stay unchanged before it is picked up.
type Config struct {
	WatchDir    string
	OutputDir   string
	Format      string
	Quality     float64
	GRPCAddr    string
	MetricsAddr string
	Debounce    time.Duration
	Locale      string
	LogLevel    string
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.WatchDir = "./inbox"
	c.OutputDir = "./converted"
	c.Format = "jpg"
	c.Quality = 0.9
	c.GRPCAddr = "127.0.0.1:50061"
	c.MetricsAddr = "127.0.0.1:9101"
	c.Debounce = 500 * time.Millisecond
	c.Locale = "es"
	c.LogLevel = "info"
}

// TargetFormat is the parsed Format.
func (c *Config) TargetFormat() models.Format {
	f, _ := models.ParseFormat(c.Format)
	return f
}

func (c *Config) Validate() error {
	if _, ok := models.ParseFormat(c.Format); !ok {
		return fmt.Errorf("format %q: want jpg or png", c.Format)
	}
	if math.IsNaN(c.Quality) || c.Quality < 0 || c.Quality > 1 {
		return fmt.Errorf("quality %v: want a value between 0 and 1", c.Quality)
	}
	if c.WatchDir == "" || c.OutputDir == "" {
		return fmt.Errorf("watch and output directories are required")
	}
	if c.GRPCAddr == "" {
		return fmt.Errorf("grpc address is required")
	}
	if c.Debounce <= 0 {
		return fmt.Errorf("debounce %v must be positive", c.Debounce)
	}
	return nil
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional config file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)
	parseFlags(cfg)
	return cfg
}
