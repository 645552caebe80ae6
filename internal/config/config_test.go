package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoadAppliesDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 100, config.Watch.DebounceMs)
	assert.Equal(t, "info", config.Logging.Level)
	assert.Contains(t, config.Components.ScanPaths, "./components")
}

func TestLoadFromFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), ".templink.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
watch:
  debounce_ms: 250
logging:
  level: debug
server:
  enabled: true
  port: 9000
`), 0644))

	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())

	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 250, config.Watch.DebounceMs)
	assert.Equal(t, "debug", config.Logging.Level)
	assert.True(t, config.Server.Enabled)
	assert.Equal(t, 9000, config.Server.Port)
	assert.Equal(t, "text", config.Logging.Format, "unset options keep defaults")
}

func TestValidateRejectsBadValues(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative debounce", func(c *Config) { c.Watch.DebounceMs = -1 }},
		{"port too low", func(c *Config) { c.Server.Port = 0 }},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }},
		{"bad level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			config := Default()
			tc.mutate(config)
			assert.Error(t, config.Validate())
		})
	}
}

func TestWriteDefaultRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".templink.yml")

	require.NoError(t, WriteDefault(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var config Config
	require.NoError(t, yaml.Unmarshal(data, &config))
	assert.Equal(t, Default(), &config)
}

func TestWriteDefaultRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".templink.yml")
	require.NoError(t, os.WriteFile(path, []byte("watch: {}\n"), 0644))

	assert.Error(t, WriteDefault(path))
}
