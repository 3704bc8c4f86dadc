package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"climate-platform/pkg/database"
)

// Config holds the full application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	NASA      NASAConfig      `mapstructure:"nasa"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig configures the Postgres connection pool.
// URL, when set (DATABASE_URL), replaces the discrete connection fields.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// NASAConfig configures the NASA POWER client.
type NASAConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	Community         string        `mapstructure:"community"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
}

// SchedulerConfig configures the periodic NASA POWER sync.
type SchedulerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Spec         string        `mapstructure:"spec"`
	LookbackDays int           `mapstructure:"lookback_days"`
	RunTimeout   time.Duration `mapstructure:"run_timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "30s")

	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "climate")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.conn_max_idle_time", "5m")

	v.SetDefault("logging.level", "info")

	v.SetDefault("nasa.base_url", "https://power.larc.nasa.gov/api/temporal/daily/point")
	v.SetDefault("nasa.community", "RE")
	v.SetDefault("nasa.timeout", "30s")
	v.SetDefault("nasa.requests_per_second", 1.0)
	v.SetDefault("nasa.burst", 1)

	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.spec", "0 */6 * * *")
	v.SetDefault("scheduler.lookback_days", 3)
	v.SetDefault("scheduler.run_timeout", "30m")
}

// LoadConfig reads configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence. A .env file in the working
// directory is loaded first when present. CONFIG_FILE points at an explicit
// YAML file; otherwise ./config.yaml is used if it exists.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks the loaded configuration for values the services cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Database.URL == "" {
		if c.Database.Host == "" {
			return errors.New("database.host is required when DATABASE_URL is not set")
		}
		if c.Database.Database == "" {
			return errors.New("database.name is required when DATABASE_URL is not set")
		}
	}
	if c.Database.MaxOpenConns <= 0 {
		return errors.New("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 || c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return errors.New("database.max_idle_conns must be between 0 and max_open_conns")
	}

	if c.NASA.BaseURL == "" {
		return errors.New("nasa.base_url is required")
	}
	if c.NASA.Timeout <= 0 {
		return errors.New("nasa.timeout must be positive")
	}
	if c.NASA.RequestsPerSecond <= 0 || c.NASA.Burst <= 0 {
		return errors.New("nasa.requests_per_second and nasa.burst must be positive")
	}

	if c.Scheduler.Enabled {
		if _, err := cron.ParseStandard(c.Scheduler.Spec); err != nil {
			return fmt.Errorf("invalid scheduler.spec %q: %w", c.Scheduler.Spec, err)
		}
		if c.Scheduler.LookbackDays < 1 {
			return errors.New("scheduler.lookback_days must be at least 1")
		}
	}

	return nil
}

// PostgresConfig converts the database section into connection pool settings
func (d DatabaseConfig) PostgresConfig() *database.Config {
	return &database.Config{
		URL:             d.URL,
		Host:            d.Host,
		Port:            d.Port,
		User:            d.User,
		Password:        d.Password,
		Database:        d.Database,
		SSLMode:         d.SSLMode,
		MaxOpenConns:    d.MaxOpenConns,
		MaxIdleConns:    d.MaxIdleConns,
		ConnMaxLifetime: d.ConnMaxLifetime,
		ConnMaxIdleTime: d.ConnMaxIdleTime,
	}
}
