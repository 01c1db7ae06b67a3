package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the complete application configuration.
type Config struct {
	Tracker *TrackerConfig
	Engine  *EngineConfig
}

// LoadConfig loads all configuration files found in a directory.
func LoadConfig(configDir string) (*Config, error) {
	absDir, err := filepath.Abs(configDir)
	if err != nil {
		return nil, fmt.Errorf("unable to get absolute path of config directory: %w", err)
	}

	config := &Config{}

	trackerPath := filepath.Join(absDir, "tracker.defaults.yml")
	if _, err := os.Stat(trackerPath); err == nil {
		trackerCfg, err := LoadTrackerConfig(trackerPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load tracker config: %w", err)
		}
		config.Tracker = trackerCfg
	}

	enginePath := filepath.Join(absDir, "engine.defaults.yml")
	if _, err := os.Stat(enginePath); err == nil {
		engineCfg, err := LoadEngineConfig(enginePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load engine config: %w", err)
		}
		config.Engine = engineCfg
	}

	return config, nil
}
