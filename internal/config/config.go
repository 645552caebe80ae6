// Package config provides configuration management for templink using Viper
// for flexible loading from files, environment variables, and command-line
// flags.
//
// The configuration system supports YAML files and environment variable
// overrides with a TEMPLINK_ prefix. It manages document scan paths, watch
// debounce, the notification server, and logging options.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/templink/internal/errors"
)

type Config struct {
	Watch      WatchConfig      `yaml:"watch" mapstructure:"watch"`
	Components ComponentsConfig `yaml:"components" mapstructure:"components"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Logging    LoggingConfig    `yaml:"logging" mapstructure:"logging"`
}

type WatchConfig struct {
	// DebounceMs is the window in which rapid writes to the same import
	// file collapse into one change signal.
	DebounceMs int `yaml:"debounce_ms" mapstructure:"debounce_ms"`
}

type ComponentsConfig struct {
	ScanPaths       []string `yaml:"scan_paths" mapstructure:"scan_paths"`
	ExcludePatterns []string `yaml:"exclude_patterns" mapstructure:"exclude_patterns"`
}

type ServerConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Host    string `yaml:"host" mapstructure:"host"`
	Port    int    `yaml:"port" mapstructure:"port"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Watch: WatchConfig{DebounceMs: 100},
		Components: ComponentsConfig{
			ScanPaths:       []string{"./components", "./views"},
			ExcludePatterns: []string{"**/node_modules/**", "**/vendor/**"},
		},
		Server: ServerConfig{
			Enabled: false,
			Host:    "localhost",
			Port:    7331,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load unmarshals the configuration viper has accumulated from file, env,
// and flags, applying defaults for anything unset.
func Load() (*Config, error) {
	config := Default()

	if err := viper.Unmarshal(config); err != nil {
		return nil, errors.NewConfigError("unmarshal", fmt.Sprintf("invalid configuration: %v", err))
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks option ranges.
func (c *Config) Validate() error {
	if c.Watch.DebounceMs < 0 {
		return errors.NewConfigError("watch_debounce", "watch.debounce_ms must not be negative")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return errors.NewConfigError("server_port", fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.NewConfigError("logging_level", fmt.Sprintf("unknown logging.level %q", c.Logging.Level))
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return errors.NewConfigError("logging_format", fmt.Sprintf("unknown logging.format %q", c.Logging.Format))
	}

	return nil
}

// WriteDefault writes the built-in configuration to path as YAML. Fails if
// the file already exists.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return errors.NewConfigError("config_exists", fmt.Sprintf("%s already exists", path))
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return errors.NewInternalError("config_marshal", "cannot marshal default config", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.NewIOError("config_write", "cannot write config file", err).WithPath(path)
	}

	return nil
}
