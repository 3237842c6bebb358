// Package config loads and saves the application configuration. Resolution
// order is defaults, then the config file under ~/.showfloor, then
// environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/showfloor-ai/showfloor/log"
	"github.com/showfloor-ai/showfloor/ollama"
	"github.com/showfloor-ai/showfloor/team"
)

const ConfigFileName = "config.json"

// GetConfigDir returns the path to the application's configuration directory
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config home directory: %w", err)
	}
	return filepath.Join(homeDir, ".showfloor"), nil
}

// Config represents the application configuration
type Config struct {
	// Backend configures the generation client.
	Backend ollama.ClientConfig `json:"backend" yaml:"backend"`
	// Roster lists the team members. Empty means the stock team.
	Roster []team.Spec `json:"roster,omitempty" yaml:"roster,omitempty"`
	// GracePeriodMS bounds in-flight work after a run is cancelled (default: 5000).
	GracePeriodMS int `json:"grace_period_ms" yaml:"grace_period_ms"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Backend:       *ollama.DefaultClientConfig(),
		Roster:        team.DefaultRoster(),
		GracePeriodMS: 5000,
	}
}

// LoadConfig loads the configuration from disk. If it cannot be done, the
// default configuration is returned.
func LoadConfig() *Config {
	configDir, err := GetConfigDir()
	if err != nil {
		log.ErrorLog.Printf("failed to get config directory: %v", err)
		return applyEnv(DefaultConfig())
	}

	configPath := filepath.Join(configDir, ConfigFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			defaultCfg := DefaultConfig()
			if saveErr := SaveConfig(defaultCfg); saveErr != nil {
				log.WarningLog.Printf("failed to save default config: %v", saveErr)
			}
			return applyEnv(defaultCfg)
		}
		log.WarningLog.Printf("failed to read config file: %v, using defaults", err)
		return applyEnv(DefaultConfig())
	}

	cfg, err := parse(data)
	if err != nil {
		log.ErrorLog.Printf("failed to parse config file: %v, using defaults", err)
		return applyEnv(DefaultConfig())
	}
	return applyEnv(cfg)
}

// LoadConfigFromFile loads configuration from an explicit path, JSON or YAML.
func LoadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}
	return applyEnv(cfg), nil
}

// parse decodes config data, trying JSON first and falling back to YAML.
func parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		if yamlErr := yaml.Unmarshal(data, cfg); yamlErr != nil {
			return nil, fmt.Errorf("failed to parse config (tried JSON and YAML): %w", err)
		}
	}

	if len(cfg.Roster) == 0 {
		cfg.Roster = team.DefaultRoster()
	}
	if cfg.GracePeriodMS <= 0 {
		cfg.GracePeriodMS = 5000
	}
	return cfg, nil
}

// applyEnv applies environment overrides to the backend section.
func applyEnv(cfg *Config) *Config {
	cfg.Backend.ApplyEnvOverrides()
	return cfg
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg *Config) error {
	configDir, err := GetConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath := filepath.Join(configDir, ConfigFileName)
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}
