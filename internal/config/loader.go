package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. ASSETLOCKD_SERVER_PORT.
const EnvPrefix = "ASSETLOCKD"

// LoadConfig loads configuration from multiple sources in priority order:
// 1. Default values
// 2. Configuration file (TOML), if path is not empty
// 3. Environment variables (ASSETLOCKD_ prefix)
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if path != "" {
		if err := loadMainConfig(v, path); err != nil {
			return nil, fmt.Errorf("failed to load main config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.configPath = path

	if err := ValidateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &config, nil
}

// loadMainConfig loads the main configuration file
func loadMainConfig(v *viper.Viper, configPath string) error {
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file does not exist: %s", configPath)
	}
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}
	return nil
}

// ReloadConfig reloads configuration from the same path
func ReloadConfig(existing *Config) (*Config, error) {
	return LoadConfig(existing.GetConfigPath())
}

// SaveExampleConfig writes an example configuration file
func SaveExampleConfig(configPath string) error {
	v := viper.New()
	setDefaults(v)
	v.Set("amm.pools", []map[string]interface{}{{
		"currency":       "USD",
		"issuer":         "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh",
		"native_reserve": 100_000_000_000,
		"token_reserve":  100_000_000_000,
		"trading_fee":    300,
	}})

	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	if err := v.WriteConfig(); err != nil {
		return fmt.Errorf("failed to write example config: %w", err)
	}
	return nil
}
