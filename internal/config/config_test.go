package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, 15*time.Minute, cfg.Daemon.Interval)
	assert.True(t, cfg.Daemon.RunOnStart)
	assert.Equal(t, 120, cfg.Daemon.RateLimit)
	assert.Equal(t, time.Second, cfg.Email.SendInterval)
	assert.True(t, cfg.Inbox.Enabled)
	assert.Equal(t, "Recurring", cfg.Inbox.Group)
	assert.Equal(t, "info", cfg.Logger.Level)
	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
timezone: Europe/Berlin
storage:
  driver: CSV
  csv_path: /tmp/tasks.csv
email:
  enabled: true
  to: me@example.com
  send_interval: 2s
daemon:
  interval: 10m
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("TASKMASTER_EMAIL_FROM", "bot@example.com")
	t.Setenv("TASKMASTER_DAEMON_LISTEN", "0.0.0.0:9000")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Europe/Berlin", cfg.Timezone)
	assert.Equal(t, DriverCSV, cfg.Storage.Driver)
	assert.Equal(t, "/tmp/tasks.csv", cfg.Storage.CSVPath)
	assert.True(t, cfg.Email.Enabled)
	assert.Equal(t, "me@example.com", cfg.Email.To)
	assert.Equal(t, "bot@example.com", cfg.Email.From)
	assert.Equal(t, 2*time.Second, cfg.Email.SendInterval)
	assert.Equal(t, 10*time.Minute, cfg.Daemon.Interval)
	assert.Equal(t, "0.0.0.0:9000", cfg.Daemon.Listen)
	assert.Equal(t, 25, cfg.Email.Port, "unset keys keep their defaults")
	require.NoError(t, cfg.Validate())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage: [unclosed"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown driver", func(c *Config) { c.Storage.Driver = "postgres" }, "invalid storage driver"},
		{"csv without path", func(c *Config) { c.Storage.Driver = DriverCSV; c.Storage.CSVPath = "" }, "csv_path"},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, "invalid timezone"},
		{"email without recipient", func(c *Config) { c.Email.Enabled = true }, "email.to"},
		{"email bad port", func(c *Config) { c.Email.Enabled = true; c.Email.To = "a@b"; c.Email.Port = 0 }, "email.port"},
		{"hook without command", func(c *Config) { c.Hook.Enabled = true }, "hook.command"},
		{"interval too long", func(c *Config) { c.Daemon.Interval = 30 * time.Minute }, "daemon.interval"},
		{"interval zero", func(c *Config) { c.Daemon.Interval = 0 }, "daemon.interval"},
		{"negative rate limit", func(c *Config) { c.Daemon.RateLimit = -1 }, "rate_limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Timezone = "America/New_York"
	cfg.Email.SendInterval = 3 * time.Second
	cfg.Daemon.Interval = 5 * time.Minute
	cfg.Hook = HookConfig{Enabled: true, Command: []string{"notify-send", "TaskMaster"}, Timeout: 10 * time.Second}
	require.NoError(t, Save(path, cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "interval: 5m0s")
	assert.Contains(t, string(data), "send_interval: 3s")
	assert.Contains(t, string(data), "timeout: 10s")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSave_RejectsInvalid(t *testing.T) {
	cfg := Default()
	cfg.Storage.Driver = "mongo"

	assert.Error(t, Save(filepath.Join(t.TempDir(), "config.yaml"), cfg))
	assert.Error(t, Save(filepath.Join(t.TempDir(), "config.yaml"), nil))
}
