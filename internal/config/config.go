// Package config provides configuration infrastructure and Fx modules.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig stores the HTTP/WebSocket listener configuration.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `yaml:"addr"`
	// PublicURL is the externally reachable base URL handed to the
	// telephony provider in webhooks, e.g. "https://bridge.example.com".
	PublicURL string `yaml:"public_url"`
}

// SpeechConfig stores realtime speech service configurations.
type SpeechConfig struct {
	APIKey string `yaml:"api_key"`
	Voice  string `yaml:"voice"`

	// Server-side voice activity detection tuning.
	VADThreshold         float64 `yaml:"vad_threshold"`
	VADPrefixPaddingMs   int     `yaml:"vad_prefix_padding_ms"`
	VADSilenceDurationMs int     `yaml:"vad_silence_duration_ms"`
}

// TelephonyConfig stores telephony provider credentials.
type TelephonyConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	// CallerID is the provider number outbound campaign calls originate from.
	CallerID string `yaml:"caller_id"`
}

// StoreConfig stores persistence configurations.
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url"`
}

// SchedulingConfig stores the agent roster for round-robin assignment.
type SchedulingConfig struct {
	Agents []string `yaml:"agents"`
}

// FlowsConfig stores conversation script configurations.
type FlowsConfig struct {
	// ScriptsPath points at a script table YAML file; empty uses the
	// embedded defaults.
	ScriptsPath string `yaml:"scripts_path"`
}

// Config stores the application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Speech     SpeechConfig     `yaml:"speech"`
	Telephony  TelephonyConfig  `yaml:"telephony"`
	Store      StoreConfig      `yaml:"store"`
	Scheduling SchedulingConfig `yaml:"scheduling"`
	Flows      FlowsConfig      `yaml:"flows"`
	LogLevel   string           `yaml:"log_level"`
}

// LoadConfig loads the configuration from the given file path. Secrets may
// be left out of the file and supplied via environment instead.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Speech.APIKey = v
	}
	if v := os.Getenv("TWILIO_ACCOUNT_SID"); v != "" {
		c.Telephony.AccountSID = v
	}
	if v := os.Getenv("TWILIO_AUTH_TOKEN"); v != "" {
		c.Telephony.AuthToken = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Store.DatabaseURL = v
	}
}

func (c *Config) validate() error {
	if c.Speech.APIKey == "" {
		return fmt.Errorf("speech api_key is required")
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	return nil
}
