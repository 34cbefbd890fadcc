// This file defines the configuration structure for the application.
package config

import (
	// use Viper for loading the config.yml file.
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration settings for the application.
// It maps directly to the structure of config.yml.
type Config struct {
	Port              int `mapstructure:"port"`
	ReconcileInterval int `mapstructure:"reconcile_interval"` // minutes, 0 disables the sweep
	Database          struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`
	BlobCache struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"blobcache"`
	Downloads struct {
		UserAgent string `mapstructure:"user_agent"`
	} `mapstructure:"downloads"`
}

// Load reads configuration from a file named "config.yml" in the
// current directory and unmarshals it into a Config struct.
func Load() (*Config, error) {
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")    // or "yaml"
	viper.AddConfigPath(".")      // looking for config in the current directory

	// --- Environment Variable Overrides ---
	// This tells Viper to look for environment variables with an "AUDIOTOME_"
	// prefix. e.g., AUDIOTOME_DATABASE_PATH overrides the `database.path` key.
	viper.SetEnvPrefix("AUDIOTOME")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set default values
	viper.SetDefault("port", 8080)
	viper.SetDefault("reconcile_interval", 60)
	viper.SetDefault("database.path", "./audiotome.db")
	viper.SetDefault("blobcache.path", "./audiotome-blobs.db")
	viper.SetDefault("downloads.user_agent", "audiotome/1.0")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; ignore error and use defaults
		} else {
			// Config file was found but another error was produced
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
