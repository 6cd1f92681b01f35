package config

import (
	"os"
	"testing"
	"time"

	"github.com/dmitrijs2005/avifconv/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig() *Config {
	return &Config{
		OutputDir:  "./converted",
		Mode:       "jpg",
		Quality:    0.9,
		Locale:     "es",
		BatchDelay: 100 * time.Millisecond,
		Progress:   true,
		LogLevel:   "warn",
	}
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Empty(t, cmp.Diff(defaultConfig(), &c))
	assert.Equal(t, models.FormatJPEG, c.Format())
	require.NoError(t, c.Validate())
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}

	cfg := LoadConfig()

	require.NotNil(t, cfg, "LoadConfig must not return nil")
	assert.Empty(t, cmp.Diff(defaultConfig(), cfg))
}

func TestLoadConfig_Precedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTemp(t, "cfg.yaml", "mode: png\nquality: 0.5\nlocale: fr\n")
	os.Args = []string{"testbin", "-c", path, "-q", "0.7", "photo.avif"}

	cfg := LoadConfig()

	want := defaultConfig()
	want.Mode = "png"
	want.Locale = "fr"
	want.Quality = 0.7
	assert.Empty(t, cmp.Diff(want, cfg))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"png upper", func(c *Config) { c.Mode = "PNG" }, true},
		{"bad mode", func(c *Config) { c.Mode = "gif" }, false},
		{"quality too high", func(c *Config) { c.Quality = 1.1 }, false},
		{"negative quality", func(c *Config) { c.Quality = -0.1 }, false},
		{"empty output", func(c *Config) { c.OutputDir = "" }, false},
		{"negative delay", func(c *Config) { c.BatchDelay = -time.Millisecond }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := defaultConfig()
			tt.mutate(c)
			if tt.ok {
				assert.NoError(t, c.Validate())
			} else {
				assert.Error(t, c.Validate())
			}
		})
	}
}
