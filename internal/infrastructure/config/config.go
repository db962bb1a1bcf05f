package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Log        LogConfig
	Event      EventConfig
	Dispatcher DispatcherConfig
	Device     DeviceConfig
	HTTP       HTTPConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings for the idempotency store
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// EventConfig holds outbox processor configuration
type EventConfig struct {
	ProcessorEnabled bool
	BatchSize        int
	PollInterval     time.Duration
	CleanupEnabled   bool
	CleanupRetention time.Duration
	CleanupInterval  time.Duration
}

// DispatcherConfig holds async dispatcher worker pool configuration
type DispatcherConfig struct {
	Workers       int
	QueueCapacity int
}

// DeviceConfig holds device adapter and provisioning retry configuration
type DeviceConfig struct {
	Timeout       time.Duration // per-call HTTP timeout against the device
	MaxAttempts   int
	BaseDelay     time.Duration
	DelayMultiple float64
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DSN returns the postgres connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// Load loads configuration from TOML file and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with NETBILL_ prefix (e.g., NETBILL_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("NETBILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Event: EventConfig{
			ProcessorEnabled: v.GetBool("event.processor_enabled"),
			BatchSize:        v.GetInt("event.batch_size"),
			PollInterval:     v.GetDuration("event.poll_interval"),
			CleanupEnabled:   v.GetBool("event.cleanup_enabled"),
			CleanupRetention: v.GetDuration("event.cleanup_retention"),
			CleanupInterval:  v.GetDuration("event.cleanup_interval"),
		},
		Dispatcher: DispatcherConfig{
			Workers:       v.GetInt("dispatcher.workers"),
			QueueCapacity: v.GetInt("dispatcher.queue_capacity"),
		},
		Device: DeviceConfig{
			Timeout:       v.GetDuration("device.timeout"),
			MaxAttempts:   v.GetInt("device.max_attempts"),
			BaseDelay:     v.GetDuration("device.base_delay"),
			DelayMultiple: v.GetFloat64("device.delay_multiple"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:  v.GetDuration("http.read_timeout"),
			WriteTimeout: v.GetDuration("http.write_timeout"),
			IdleTimeout:  v.GetDuration("http.idle_timeout"),
		},
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults fills in zero-valued fields with sane defaults
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "netbill"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}

	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "netbill"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "netbill"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 30
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 10
	}

	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		if cfg.App.Env == "production" {
			cfg.Log.Format = "json"
		} else {
			cfg.Log.Format = "console"
		}
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}

	if cfg.Event.BatchSize == 0 {
		cfg.Event.BatchSize = 100
	}
	if cfg.Event.PollInterval == 0 {
		cfg.Event.PollInterval = 5 * time.Second
	}
	if cfg.Event.CleanupRetention == 0 {
		cfg.Event.CleanupRetention = 7 * 24 * time.Hour
	}
	if cfg.Event.CleanupInterval == 0 {
		cfg.Event.CleanupInterval = time.Hour
	}

	if cfg.Dispatcher.Workers == 0 {
		cfg.Dispatcher.Workers = 5
	}
	if cfg.Dispatcher.QueueCapacity == 0 {
		cfg.Dispatcher.QueueCapacity = 100
	}

	if cfg.Device.Timeout == 0 {
		cfg.Device.Timeout = 15 * time.Second
	}
	if cfg.Device.MaxAttempts == 0 {
		cfg.Device.MaxAttempts = 3
	}
	if cfg.Device.BaseDelay == 0 {
		cfg.Device.BaseDelay = 2 * time.Second
	}
	if cfg.Device.DelayMultiple == 0 {
		cfg.Device.DelayMultiple = 2.0
	}

	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
}

// validate rejects configurations that cannot work
func validate(cfg *Config) error {
	if cfg.Device.MaxAttempts < 1 {
		return fmt.Errorf("device.max_attempts must be at least 1, got %d", cfg.Device.MaxAttempts)
	}
	if cfg.Device.DelayMultiple < 1.0 {
		return fmt.Errorf("device.delay_multiple must be at least 1.0, got %v", cfg.Device.DelayMultiple)
	}
	if cfg.Dispatcher.Workers < 1 {
		return fmt.Errorf("dispatcher.workers must be at least 1, got %d", cfg.Dispatcher.Workers)
	}
	if cfg.Dispatcher.QueueCapacity < 1 {
		return fmt.Errorf("dispatcher.queue_capacity must be at least 1, got %d", cfg.Dispatcher.QueueCapacity)
	}
	if cfg.Database.MaxIdleConns > cfg.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			cfg.Database.MaxIdleConns, cfg.Database.MaxOpenConns)
	}
	return nil
}
