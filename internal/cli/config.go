package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the YAML configuration shared by run and serve. Flags override
// the values read from the file.
type Config struct {
	Workflow  string `yaml:"workflow"`
	RuntimeID string `yaml:"runtime_id"`
	LogLevel  string `yaml:"log_level"`

	Store StoreConfig `yaml:"store"`

	// Events are sent in order by the run command.
	Events []EventStep `yaml:"events"`
}

// StoreConfig selects where snapshots and history are kept.
type StoreConfig struct {
	Kind     string `yaml:"kind"` // memory | sqlite | redis | postgres | mongo
	Key      string `yaml:"key"`
	Path     string `yaml:"path"`
	Addr     string `yaml:"addr"`
	Prefix   string `yaml:"prefix"`
	DSN      string `yaml:"dsn"`
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

// EventStep is one scripted event.
type EventStep struct {
	Name string `yaml:"name"`
	Arg  string `yaml:"arg"`
}

// DefaultConfig returns the configuration used without a config file.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Store: StoreConfig{
			Kind: "memory",
			Path: "flowtree.db",
		},
	}
}

// LoadConfig reads path over DefaultConfig. An empty path returns the
// defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return level, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}
