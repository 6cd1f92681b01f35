package timex

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDuration_JSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"string", `"1.5s"`, 1500 * time.Millisecond, false},
		{"nanoseconds", `250000000`, 250 * time.Millisecond, false},
		{"bad string", `"soon"`, 0, true},
		{"bool", `true`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := json.Unmarshal([]byte(tt.in), &d)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Duration)
		})
	}

	b, err := json.Marshal(Duration{Duration: 2 * time.Minute})
	require.NoError(t, err)
	assert.JSONEq(t, `"2m0s"`, string(b))
}

func TestDuration_YAML(t *testing.T) {
	var cfg struct {
		A Duration `yaml:"a"`
		B Duration `yaml:"b"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("a: 500ms\nb: 1000\n"), &cfg))
	assert.Equal(t, 500*time.Millisecond, cfg.A.Duration)
	assert.Equal(t, time.Microsecond, cfg.B.Duration)

	require.Error(t, yaml.Unmarshal([]byte("a: [1, 2]\n"), &cfg))
	require.Error(t, yaml.Unmarshal([]byte("a: later\n"), &cfg))

	out, err := yaml.Marshal(struct {
		A Duration `yaml:"a"`
	}{A: Duration{Duration: time.Second}})
	require.NoError(t, err)
	assert.Equal(t, "a: 1s\n", string(out))
}
