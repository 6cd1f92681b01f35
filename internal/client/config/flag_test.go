package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"cmd", "-o", "/tmp/out", "-m", "png", "-q", "0.5", "-l", "en", "-d", "250", "-p=false", "-v", "debug"},
			expected: &Config{
				OutputDir:  "/tmp/out",
				Mode:       "png",
				Quality:    0.5,
				Locale:     "en",
				BatchDelay: 250 * time.Millisecond,
				Progress:   false,
				LogLevel:   "debug",
			},
		},
		{
			name: "positional files are ignored",
			args: []string{"cmd", "a.avif", "-m", "png", "b.avif"},
			expected: &Config{
				Mode: "png",
			},
		},
		{name: "bad quality", args: []string{"cmd", "-q", "high"}, expectPanic: true},
		{name: "bad delay", args: []string{"cmd", "-d", "soon"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			config := &Config{}

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config) })
				return
			}
			require.NotPanics(t, func() { parseFlags(config) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
