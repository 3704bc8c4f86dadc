package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 60*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "climate", cfg.Database.Database)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 30*time.Second, cfg.NASA.Timeout)
	assert.Equal(t, "RE", cfg.NASA.Community)
	assert.False(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 3, cfg.Scheduler.LookbackDays)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/climate?sslmode=disable")
	t.Setenv("NASA_TIMEOUT", "5s")
	t.Setenv("LOGGING_LEVEL", "debug")
	t.Setenv("SCHEDULER_ENABLED", "true")
	t.Setenv("SCHEDULER_SPEC", "*/5 * * * *")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres://u:p@db:5432/climate?sslmode=disable", cfg.Database.URL)
	assert.Equal(t, 5*time.Second, cfg.NASA.Timeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, "*/5 * * * *", cfg.Scheduler.Spec)
}

func TestLoadConfig_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	yaml := `
server:
  port: 7070
database:
  host: pg.internal
  name: kcrd
nasa:
  requests_per_second: 0.5
`
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "pg.internal", cfg.Database.Host)
	assert.Equal(t, "kcrd", cfg.Database.Database)
	assert.InDelta(t, 0.5, cfg.NASA.RequestsPerSecond, 1e-9)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_FILE", "/does/not/exist.yaml")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DATABASE_HOST=from-dotenv\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("DATABASE_HOST") })

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Database.Host)
}

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Port: 8080},
		Database: DatabaseConfig{Host: "localhost", Database: "climate", MaxOpenConns: 10, MaxIdleConns: 2},
		NASA:     NASAConfig{BaseURL: "http://nasa", Timeout: time.Second, RequestsPerSecond: 1, Burst: 1},
		Scheduler: SchedulerConfig{
			Spec:         "0 */6 * * *",
			LookbackDays: 3,
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "server.port"},
		{name: "missing host", mutate: func(c *Config) { c.Database.Host = "" }, wantErr: "database.host"},
		{name: "url replaces host", mutate: func(c *Config) { c.Database.Host = ""; c.Database.URL = "postgres://x" }},
		{name: "no open conns", mutate: func(c *Config) { c.Database.MaxOpenConns = 0 }, wantErr: "max_open_conns"},
		{name: "idle above open", mutate: func(c *Config) { c.Database.MaxIdleConns = 50 }, wantErr: "max_idle_conns"},
		{name: "nasa timeout", mutate: func(c *Config) { c.NASA.Timeout = 0 }, wantErr: "nasa.timeout"},
		{name: "nasa rate", mutate: func(c *Config) { c.NASA.RequestsPerSecond = 0 }, wantErr: "requests_per_second"},
		{name: "bad cron ignored when disabled", mutate: func(c *Config) { c.Scheduler.Spec = "nope" }},
		{name: "bad cron", mutate: func(c *Config) { c.Scheduler.Enabled = true; c.Scheduler.Spec = "nope" }, wantErr: "scheduler.spec"},
		{name: "lookback", mutate: func(c *Config) { c.Scheduler.Enabled = true; c.Scheduler.LookbackDays = 0 }, wantErr: "lookback_days"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDatabaseConfig_PostgresConfig(t *testing.T) {
	d := DatabaseConfig{
		Host:         "db",
		Port:         5433,
		User:         "climate",
		Password:     "secret",
		Database:     "climate",
		SSLMode:      "require",
		MaxOpenConns: 10,
	}

	pg := d.PostgresConfig()
	assert.Equal(t, "host=db port=5433 user=climate password=secret dbname=climate sslmode=require", pg.DSN())
	assert.Equal(t, 10, pg.MaxOpenConns)

	d.URL = "postgres://climate@db/climate"
	assert.Equal(t, "postgres://climate@db/climate", d.PostgresConfig().DSN())
}
