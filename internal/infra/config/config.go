// Package config provides configuration loading from YAML files.
package config

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the client configuration.
type Config struct {
	Client   ClientConfig   `yaml:"client"`
	Room     RoomConfig     `yaml:"room"`
	API      APIConfig      `yaml:"api"`
	Gateway  GatewayConfig  `yaml:"gateway"`
	Messages MessagesConfig `yaml:"messages"`
	Log      LogConfig      `yaml:"log"`
}

// ClientConfig represents identity capture configuration.
type ClientConfig struct {
	StartLabel    string `yaml:"start_label" default:"Start Call"`
	MaxNameLength int    `yaml:"max_name_length" default:"30" validate:"gte=1,lte=64"`
}

// RoomConfig represents the call room to join.
type RoomConfig struct {
	Name string `yaml:"name" default:"lobby" validate:"required"`
}

// APIConfig represents the room ticket API. When BaseURL is empty the
// gateway settings are used directly without a ticket fetch.
type APIConfig struct {
	BaseURL   string `yaml:"base_url"`
	AuthToken string `yaml:"auth_token"`
	TimeoutMs int    `yaml:"timeout_ms" default:"5000" validate:"gte=100,lte=60000"`
}

// GatewayConfig represents the room connection gateway.
type GatewayConfig struct {
	Type     string         `yaml:"type" default:"websocket" validate:"required"`
	Settings map[string]any `yaml:"settings"`
}

// MessagesConfig represents user-facing messages.
type MessagesConfig struct {
	ConnectFailed string `yaml:"connect_failed" default:"Could not join the call"`
	SessionLost   string `yaml:"session_lost" default:"The call ended unexpectedly"`
	AudioPrompt   string `yaml:"audio_prompt" default:"Press Enter to enable audio"`
}

// LogConfig represents logging configuration.
type LogConfig struct {
	Level  string `yaml:"level" default:"info"`
	Output string `yaml:"output" default:"stdout"`
	File   string `yaml:"file"`
}

// Load loads configuration from a YAML file. An empty path yields the
// defaults with environment overrides applied.
// Environment variables take precedence over file values for sensitive
// fields.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read config file")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(err, "failed to parse config file")
		}
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("VOICEROOM_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("VOICEROOM_API_TOKEN"); v != "" {
		c.API.AuthToken = v
	}
	if v := os.Getenv("VOICEROOM_ROOM"); v != "" {
		c.Room.Name = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}
