// Package config loads run configuration from built-in defaults, a YAML
// file, and environment variables, in that order of increasing
// precedence - defaults first, then whatever the config file sets, then
// whatever the environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds every setting the indexing pipeline needs.
type Config struct {
	// IndexPath is where the envelope index database lives. It is passed
	// to the store as given: a relative path is relative to the process's
	// working directory, not to the repository or its git directory.
	IndexPath string `mapstructure:"index_path"`
	// BitsPerCoordinate is loaded like every other setting, but the
	// indexer does not read it: a brand new index is always written with
	// codec.DefaultBits, and an existing index keeps whatever width it was
	// written with.
	BitsPerCoordinate int `mapstructure:"bits_per_coordinate"`
	// Workers is the number of concurrent envelope-projection goroutines.
	// 0 means runtime.NumCPU().
	Workers int `mapstructure:"workers"`
	// Verbosity controls progress reporting cadence during indexing.
	Verbosity int `mapstructure:"verbosity"`
	Log       LogConfig `mapstructure:"log"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// Default returns the built-in configuration used when no file or
// environment override is present.
func Default() *Config {
	return &Config{
		IndexPath:         "feature_envelopes.db",
		BitsPerCoordinate: 20,
		Workers:           0,
		Verbosity:         1,
		Log:               LogConfig{Level: "info", JSON: false},
	}
}

// Load reads configuration from path (if non-empty) or from the standard
// search locations, falling back to Default() for anything unset, and
// applying GEOINDEX_-prefixed environment variable overrides last.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	v.SetDefault("index_path", cfg.IndexPath)
	v.SetDefault("bits_per_coordinate", cfg.BitsPerCoordinate)
	v.SetDefault("workers", cfg.Workers)
	v.SetDefault("verbosity", cfg.Verbosity)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.json", cfg.Log.JSON)

	v.SetEnvPrefix("GEOINDEX")
	v.AutomaticEnv()

	explicitFileMissing := false
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			explicitFileMissing = true
		}
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("geoindex")
		v.AddConfigPath(".")
		if homeDir, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(homeDir, ".config", "geoindex"))
		}
	}

	if !explicitFileMissing {
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return cfg, nil
}
