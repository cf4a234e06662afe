// Package config loads TaskMaster configuration from file, environment and
// defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverCSV    = "csv"
)

// EnvPrefix prefixes every environment override, e.g. TASKMASTER_EMAIL_TO.
const EnvPrefix = "TASKMASTER"

// Config is the application configuration.
type Config struct {
	// Timezone is an IANA zone name; empty means the system zone.
	Timezone string        `yaml:"timezone"`
	Storage  StorageConfig `yaml:"storage"`
	Logger   LoggerConfig  `yaml:"logger"`
	Email    EmailConfig   `yaml:"email"`
	Inbox    InboxConfig   `yaml:"inbox"`
	Hook     HookConfig    `yaml:"hook"`
	Daemon   DaemonConfig  `yaml:"daemon"`
}

// StorageConfig selects where tasks live. The state database (inbox, audit,
// pass history) is always SQLite at SQLitePath.
type StorageConfig struct {
	Driver     string `yaml:"driver"`
	SQLitePath string `yaml:"sqlite_path"`
	CSVPath    string `yaml:"csv_path"`
}

// LoggerConfig is the configuration for the logger.
type LoggerConfig struct {
	Level    string `yaml:"level"`
	Mode     string `yaml:"mode"`
	Encoding string `yaml:"encoding"`
}

// EmailConfig configures SMTP dispatch.
type EmailConfig struct {
	Enabled      bool          `yaml:"enabled"`
	To           string        `yaml:"to"`
	From         string        `yaml:"from"`
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	SendInterval time.Duration `yaml:"-"`
}

// InboxConfig configures filing reminders into the state database.
type InboxConfig struct {
	Enabled bool   `yaml:"enabled"`
	Group   string `yaml:"group"`
}

// MarshalYAML writes SendInterval as a duration string.
func (e EmailConfig) MarshalYAML() (interface{}, error) {
	type plain EmailConfig
	return struct {
		plain        `yaml:",inline"`
		SendInterval string `yaml:"send_interval"`
	}{plain(e), e.SendInterval.String()}, nil
}

// HookConfig configures running a local command per reminder.
type HookConfig struct {
	Enabled bool          `yaml:"enabled"`
	Command []string      `yaml:"command"`
	Timeout time.Duration `yaml:"-"`
}

// MarshalYAML writes Timeout as a duration string.
func (h HookConfig) MarshalYAML() (interface{}, error) {
	type plain HookConfig
	return struct {
		plain   `yaml:",inline"`
		Timeout string `yaml:"timeout"`
	}{plain(h), h.Timeout.String()}, nil
}

// DaemonConfig configures the long-running mode.
type DaemonConfig struct {
	Interval   time.Duration `yaml:"-"`
	RunOnStart bool          `yaml:"run_on_start"`
	Listen     string        `yaml:"listen"`
	RateLimit  int           `yaml:"rate_limit_per_min"`
}

// MarshalYAML writes Interval as a duration string.
func (d DaemonConfig) MarshalYAML() (interface{}, error) {
	type plain DaemonConfig
	return struct {
		plain    `yaml:",inline"`
		Interval string `yaml:"interval"`
	}{plain(d), d.Interval.String()}, nil
}

// Dir returns ~/.taskmaster, or the working directory if there is no home.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".taskmaster"
	}
	return filepath.Join(home, ".taskmaster")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load reads configuration. An empty path searches ~/.taskmaster and the
// working directory; a missing file is not an error and yields defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(Dir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(path != "" && errors.Is(err, os.ErrNotExist)) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return fromViper(v), nil
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	return fromViper(v)
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}
	cfg.Timezone = v.GetString("timezone")

	cfg.Storage.Driver = strings.ToLower(v.GetString("storage.driver"))
	cfg.Storage.SQLitePath = expandHome(v.GetString("storage.sqlite_path"))
	cfg.Storage.CSVPath = expandHome(v.GetString("storage.csv_path"))

	cfg.Logger.Level = v.GetString("logger.level")
	cfg.Logger.Mode = v.GetString("logger.mode")
	cfg.Logger.Encoding = v.GetString("logger.encoding")

	cfg.Email.Enabled = v.GetBool("email.enabled")
	cfg.Email.To = v.GetString("email.to")
	cfg.Email.From = v.GetString("email.from")
	cfg.Email.Host = v.GetString("email.host")
	cfg.Email.Port = v.GetInt("email.port")
	cfg.Email.Username = v.GetString("email.username")
	cfg.Email.Password = v.GetString("email.password")
	cfg.Email.SendInterval = v.GetDuration("email.send_interval")

	cfg.Inbox.Enabled = v.GetBool("inbox.enabled")
	cfg.Inbox.Group = v.GetString("inbox.group")

	cfg.Hook.Enabled = v.GetBool("hook.enabled")
	if cmd := v.GetStringSlice("hook.command"); len(cmd) > 0 {
		cfg.Hook.Command = cmd
	}
	cfg.Hook.Timeout = v.GetDuration("hook.timeout")

	cfg.Daemon.Interval = v.GetDuration("daemon.interval")
	cfg.Daemon.RunOnStart = v.GetBool("daemon.run_on_start")
	cfg.Daemon.Listen = v.GetString("daemon.listen")
	cfg.Daemon.RateLimit = v.GetInt("daemon.rate_limit_per_min")

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("timezone", "")
	v.SetDefault("storage.driver", DriverSQLite)
	v.SetDefault("storage.sqlite_path", filepath.Join(Dir(), "taskmaster.db"))
	v.SetDefault("storage.csv_path", filepath.Join(Dir(), "tasks.csv"))
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.mode", "production")
	v.SetDefault("logger.encoding", "console")
	v.SetDefault("email.enabled", false)
	v.SetDefault("email.host", "localhost")
	v.SetDefault("email.port", 25)
	v.SetDefault("email.send_interval", "1s")
	v.SetDefault("inbox.enabled", true)
	v.SetDefault("inbox.group", "Recurring")
	v.SetDefault("hook.enabled", false)
	v.SetDefault("hook.timeout", "30s")
	v.SetDefault("daemon.interval", "15m")
	v.SetDefault("daemon.run_on_start", true)
	v.SetDefault("daemon.listen", "127.0.0.1:7466")
	v.SetDefault("daemon.rate_limit_per_min", 120)
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path is required")
		}
	case DriverCSV:
		if c.Storage.CSVPath == "" {
			return fmt.Errorf("storage.csv_path is required for the csv driver")
		}
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path is required for the state database")
		}
	default:
		return fmt.Errorf("invalid storage driver %q, must be: %s or %s", c.Storage.Driver, DriverSQLite, DriverCSV)
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	if c.Email.Enabled {
		if c.Email.To == "" {
			return fmt.Errorf("email.to is required when email is enabled")
		}
		if c.Email.Port <= 0 || c.Email.Port > 65535 {
			return fmt.Errorf("invalid email.port %d", c.Email.Port)
		}
	}
	if c.Hook.Enabled && len(c.Hook.Command) == 0 {
		return fmt.Errorf("hook.command is required when the hook is enabled")
	}
	if c.Email.SendInterval < 0 {
		return fmt.Errorf("email.send_interval must not be negative")
	}

	// Some tick must land within 14 minutes either side of every instant.
	if c.Daemon.Interval <= 0 || c.Daemon.Interval >= 28*time.Minute {
		return fmt.Errorf("daemon.interval must be between 0 and 28m, got %s", c.Daemon.Interval)
	}
	if c.Daemon.RateLimit < 0 {
		return fmt.Errorf("daemon.rate_limit_per_min must not be negative")
	}
	return nil
}

// Location returns the configured zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Save writes cfg as YAML, creating parent directories if needed.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
