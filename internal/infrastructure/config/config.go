package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	sharedConfig "stagewatch/internal/shared/config"
)

type Config struct {
	Server     sharedConfig.ServerConfig     `mapstructure:"server"`
	Database   sharedConfig.DatabaseConfig   `mapstructure:"database"`
	Logger     sharedConfig.LoggerConfig     `mapstructure:"logger"`
	Redis      sharedConfig.RedisConfig      `mapstructure:"redis"`
	Email      sharedConfig.EmailConfig      `mapstructure:"email"`
	Sources    []sharedConfig.SourceConfig   `mapstructure:"sources"`
	Resolver   sharedConfig.ResolverConfig   `mapstructure:"resolver"`
	Poller     sharedConfig.PollerConfig     `mapstructure:"poller"`
	Dispatcher sharedConfig.DispatcherConfig `mapstructure:"dispatcher"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load loads configuration from file and environment variables
func Load(env string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../configs")
	viper.AddConfigPath("../../configs")

	viper.SetEnvPrefix("STAGEWATCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Allow env parameter to override server mode if provided
	if env != "" && env != "default" {
		viper.Set("server.mode", env)
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
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("server.timezone", "Asia/Shanghai")

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)
	viper.SetDefault("database.username", "root")
	viper.SetDefault("database.password", "password")
	viper.SetDefault("database.database", "stagewatch_dev")
	viper.SetDefault("database.max_idle_conns", 10)
	viper.SetDefault("database.max_open_conns", 100)
	viper.SetDefault("database.conn_max_lifetime", 60)

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")
	viper.SetDefault("logger.output_path", "stdout")

	// Redis defaults
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Email defaults
	viper.SetDefault("email.smtp_host", "localhost")
	viper.SetDefault("email.smtp_port", 587)
	viper.SetDefault("email.from_address", "noreply@stagewatch.local")
	viper.SetDefault("email.from_name", "Stagewatch")

	// Resolver defaults. The acceptance threshold and near-tie margin are
	// deployment policy; these values track the curated catalog's density.
	viper.SetDefault("resolver.accept_threshold", 0.75)
	viper.SetDefault("resolver.near_tie_margin", 0.05)
	viper.SetDefault("resolver.no_response_demote", 5)

	// Poller defaults
	viper.SetDefault("poller.interval", "5m")
	viper.SetDefault("poller.stagger_window", "1m")
	viper.SetDefault("poller.workers", 4)
	viper.SetDefault("poller.lock_ttl", "2m")
	viper.SetDefault("poller.error_cooldown", "15m")
	viper.SetDefault("poller.snapshot_ttl_seconds", 600)

	// Dispatcher defaults
	viper.SetDefault("dispatcher.senders", 4)
	viper.SetDefault("dispatcher.pump_interval", "5s")
	viper.SetDefault("dispatcher.batch_size", 50)
	viper.SetDefault("dispatcher.max_attempts", 5)
	viper.SetDefault("dispatcher.initial_backoff", "30s")
	viper.SetDefault("dispatcher.max_backoff", "30m")
}
