package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// FormatAuto lets the events file extension pick the decoder.
const FormatAuto = "auto"

// Config represents configuration data for the heartbeat monitor.
type Config struct {
	EventsFile      string       `yaml:"events_file" validate:"required"`
	EventsFormat    string       `yaml:"events_format" validate:"oneof=auto json ndjson"`
	OutputFile      string       `yaml:"output_file"`
	IntervalSeconds int          `yaml:"interval_seconds" validate:"gt=0"`
	AllowedMisses   int          `yaml:"allowed_misses"`
	Pretty          bool         `yaml:"pretty"`
	LogLevel        string       `yaml:"log_level"`
	LogFormat       string       `yaml:"log_format" validate:"oneof=console json"`
	Server          ServerConfig `yaml:"server"`
}

// ServerConfig holds settings for serve mode.
type ServerConfig struct {
	Addr           string `yaml:"addr" validate:"required"`
	RefreshSeconds int    `yaml:"refresh_seconds" validate:"gt=0"`
	PushSeconds    int    `yaml:"push_seconds" validate:"gt=0"`
}

// DefaultConfig returns the settings used when no configuration file is provided.
func DefaultConfig() Config {
	return Config{
		EventsFile:      "events.json",
		EventsFormat:    FormatAuto,
		IntervalSeconds: 60,
		AllowedMisses:   3,
		Pretty:          true,
		LogLevel:        "info",
		LogFormat:       "console",
		Server: ServerConfig{
			Addr:           ":8080",
			RefreshSeconds: 30,
			PushSeconds:    30,
		},
	}
}

// Interval returns the expected heartbeat interval.
func (c Config) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// Refresh returns how often serve mode reruns detection.
func (c Config) Refresh() time.Duration {
	return time.Duration(c.Server.RefreshSeconds) * time.Second
}

// Push returns how often serve mode pushes the report to websocket clients.
func (c Config) Push() time.Duration {
	return time.Duration(c.Server.PushSeconds) * time.Second
}

// Load reads configuration from a YAML file over the defaults. Missing files
// fall back to defaults. The result is not validated; call Validate once
// command-line overrides have been applied.
func Load(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate rejects settings the detector cannot run with. A non-positive
// allowed_misses is valid and disables alerting.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	fe := fieldErrs[0]
	return fmt.Errorf("%w: %s failed %q (value %v)", ErrInvalidConfig, fe.Namespace(), fe.Tag(), fe.Value())
}
