package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	sharedConfig "github.com/warden-sh/warden/internal/shared/config"
)

type Config struct {
	Database sharedConfig.DatabaseConfig        `mapstructure:"database"`
	Logger   sharedConfig.LoggerConfig          `mapstructure:"logger"`
	License  sharedConfig.LicenseConfig         `mapstructure:"license"`
	Jobs     sharedConfig.JobsConfig            `mapstructure:"jobs"`
	Tiers    map[string]sharedConfig.TierConfig `mapstructure:"tiers"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	// Load single config file
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../configs")

	// Set environment variable prefix and replacer
	viper.SetEnvPrefix("WARDEN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set default values
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults plus environment
		// variables are a complete configuration.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

// setDefaults sets default configuration values
func setDefaults() {
	// Database defaults
	viper.SetDefault("database.driver", "mysql")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)
	viper.SetDefault("database.username", "root")
	viper.SetDefault("database.password", "password")
	viper.SetDefault("database.database", "warden_dev")
	viper.SetDefault("database.path", "warden.db")
	viper.SetDefault("database.max_idle_conns", 10)
	viper.SetDefault("database.max_open_conns", 100)
	viper.SetDefault("database.conn_max_lifetime", 60)

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")
	viper.SetDefault("logger.output_path", "stdout")

	// License defaults
	viper.SetDefault("license.key_prefix", "LIC")
	viper.SetDefault("license.key_segments", 4)
	viper.SetDefault("license.key_segment_length", 4)
	viper.SetDefault("license.offline_grace_hours", 72)
	viper.SetDefault("license.quota_restricted_features", []string{})

	// Jobs defaults
	viper.SetDefault("jobs.grace_period_interval_minutes", 60)
	viper.SetDefault("jobs.expiration_interval_minutes", 60)
	viper.SetDefault("jobs.stale_device_cleanup_enabled", false)
	viper.SetDefault("jobs.stale_device_interval_hours", 24)
	viper.SetDefault("jobs.stale_device_days", 90)
}
