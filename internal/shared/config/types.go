package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Mode     string `mapstructure:"mode"`
	Timezone string `mapstructure:"timezone"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type EmailConfig struct {
	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     int    `mapstructure:"smtp_port"`
	SMTPUser     string `mapstructure:"smtp_user"`
	SMTPPassword string `mapstructure:"smtp_password"`
	FromAddress  string `mapstructure:"from_address"`
	FromName     string `mapstructure:"from_name"`
}

// SourceConfig describes one external ticketing provider endpoint.
type SourceConfig struct {
	ID                  string        `mapstructure:"id"`
	BaseURL             string        `mapstructure:"base_url"`
	CityDefault         string        `mapstructure:"city_default"`
	MaxInFlight         int           `mapstructure:"max_in_flight"`
	FetchTimeout        time.Duration `mapstructure:"fetch_timeout"`
	BreakerFailures     int           `mapstructure:"breaker_failures"`
	BreakerCooldown     time.Duration `mapstructure:"breaker_cooldown"`
	RetryInitialBackoff time.Duration `mapstructure:"retry_initial_backoff"`
	RetryMaxAttempts    int           `mapstructure:"retry_max_attempts"`
}

// ResolverConfig carries the entity-resolution policy parameters. The
// acceptance threshold and near-tie margin are deployment policy, not
// algorithm constants.
type ResolverConfig struct {
	AcceptThreshold  float64 `mapstructure:"accept_threshold"`
	NearTieMargin    float64 `mapstructure:"near_tie_margin"`
	NoResponseDemote int     `mapstructure:"no_response_demote"`
}

type PollerConfig struct {
	Interval           time.Duration `mapstructure:"interval"`
	StaggerWindow      time.Duration `mapstructure:"stagger_window"`
	Workers            int           `mapstructure:"workers"`
	LockTTL            time.Duration `mapstructure:"lock_ttl"`
	ErrorCooldown      time.Duration `mapstructure:"error_cooldown"`
	SnapshotTTLSeconds int           `mapstructure:"snapshot_ttl_seconds"`
}

type DispatcherConfig struct {
	Senders        int           `mapstructure:"senders"`
	PumpInterval   time.Duration `mapstructure:"pump_interval"`
	BatchSize      int           `mapstructure:"batch_size"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
}
