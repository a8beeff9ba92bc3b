package config

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDuration_UnmarshalYAML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{name: "go duration", input: `d: "1m30s"`, expected: 90 * time.Second},
		{name: "bare seconds", input: `d: 300`, expected: 300 * time.Second},
		{name: "fractional seconds", input: `d: 0.5`, expected: 500 * time.Millisecond},
		{name: "empty", input: `d: ""`, expected: 0},
		{name: "invalid", input: `d: "soon"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var out struct {
				D Duration `yaml:"d"`
			}
			err := yaml.Unmarshal([]byte(tt.input), &out)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out.D.Duration())
		})
	}
}

func TestDuration_JSON(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(Duration(2 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, `"2s"`, string(b))

	var d Duration
	require.NoError(t, json.Unmarshal([]byte(`"250ms"`), &d))
	assert.Equal(t, 250*time.Millisecond, d.Duration())

	require.NoError(t, json.Unmarshal([]byte(`null`), &d))
	assert.Equal(t, time.Duration(0), d.Duration())

	require.NoError(t, json.Unmarshal([]byte(`60`), &d))
	assert.Equal(t, time.Minute, d.Duration())
}

func TestDuration_MarshalYAML(t *testing.T) {
	t.Parallel()

	v, err := Duration(5 * time.Minute).MarshalYAML()
	require.NoError(t, err)
	assert.Equal(t, "5m0s", v)
}
