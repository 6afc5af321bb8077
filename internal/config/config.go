// Package config loads wrangler's runtime configuration from environment
// variables, optionally overlaid by a YAML file. Environment variables win:
// a field is only taken from the file when the corresponding variable is
// unset.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Scheduler holds the heartbeat interval tuning, defaulted to the values
// the server protocol expects and overridable for testing.
type Scheduler struct {
	BusyInterval         time.Duration `yaml:"-"`
	IdleInterval         time.Duration `yaml:"-"`
	BackoffInterval      time.Duration `yaml:"-"`
	CommandResponseDelay time.Duration `yaml:"-"`
}

// DefaultScheduler returns the protocol's fixed interval values.
func DefaultScheduler() Scheduler {
	return Scheduler{
		BusyInterval:         2000 * time.Millisecond,
		IdleInterval:         5000 * time.Millisecond,
		BackoffInterval:      1000 * time.Millisecond,
		CommandResponseDelay: 1000 * time.Millisecond,
	}
}

// fileConfig is the shape of the optional YAML overlay file.
type fileConfig struct {
	CLIToken      string `yaml:"cli_token"`
	ServerURL     string `yaml:"server_url"`
	InspectorAddr string `yaml:"inspector_addr"`
	LogLevel      string `yaml:"log_level"`
}

// Config is wrangler's fully-resolved runtime configuration.
type Config struct {
	CLIToken      string
	ServerURL     string
	InspectorAddr string
	LogLevel      string
	Scheduler     Scheduler
}

const (
	envCLIToken      = "CLI_TOKEN"
	envServerURL     = "SERVER_URL"
	envConfigPath    = "WRANGLER_CONFIG"
	envInspectorAddr = "WRANGLER_INSPECTOR_ADDR"
	envLogLevel      = "WRANGLER_LOG_LEVEL"

	defaultInspectorAddr = "127.0.0.1:7780"
	defaultLogLevel      = "info"
)

// Load resolves configuration from the environment, overlaid by the YAML
// file named by WRANGLER_CONFIG, if set and present. A missing overlay file
// is not an error: env-only configuration is valid.
func Load() (*Config, error) {
	var overlay fileConfig
	if path := os.Getenv(envConfigPath); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config file %q: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &overlay); err != nil {
			return nil, fmt.Errorf("parse config file %q: %w", path, err)
		}
	}

	c := &Config{
		CLIToken:      firstNonEmpty(os.Getenv(envCLIToken), overlay.CLIToken),
		ServerURL:     firstNonEmpty(os.Getenv(envServerURL), overlay.ServerURL),
		InspectorAddr: firstNonEmpty(os.Getenv(envInspectorAddr), overlay.InspectorAddr, defaultInspectorAddr),
		LogLevel:      firstNonEmpty(os.Getenv(envLogLevel), overlay.LogLevel, defaultLogLevel),
		Scheduler:     DefaultScheduler(),
	}
	return c, nil
}

// Configured reports whether the bearer token and server URL are both set,
// the precondition send_once checks before attempting a heartbeat.
func (c *Config) Configured() bool {
	return c.CLIToken != "" && c.ServerURL != ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
