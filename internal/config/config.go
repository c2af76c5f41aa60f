// Package config provides configuration management for the trade journal.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/spf13/viper"

	"trade-journal/internal/analytics"
	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/logging"
)

// Storage backends.
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	Journal   JournalConfig   `mapstructure:"journal"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Calendar  CalendarConfig  `mapstructure:"calendar"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Server    ServerConfig    `mapstructure:"server"`

	// Dir is the directory the configuration was loaded from.
	Dir string `mapstructure:"-"`
}

// JournalConfig holds journal document settings.
type JournalConfig struct {
	Key                    string  `mapstructure:"key"`
	DefaultStartingCapital float64 `mapstructure:"default_starting_capital"`
	CurrencySymbol         string  `mapstructure:"currency_symbol"`
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Backend  string `mapstructure:"backend"` // file, sqlite, postgres
	Path     string `mapstructure:"path"`
	DSN      string `mapstructure:"dsn"`
	MaxConns int    `mapstructure:"max_conns"`
}

// CalendarConfig holds period boundary settings.
type CalendarConfig struct {
	WeekStart string `mapstructure:"week_start"`
	Timezone  string `mapstructure:"timezone"`
}

// AnalyticsConfig holds aggregation and caching settings.
type AnalyticsConfig struct {
	MinGroupTrades int           `mapstructure:"min_group_trades"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	CacheMaxCost   int64         `mapstructure:"cache_max_cost"`
}

// LoggingConfig mirrors logging.LogConfig in the config file.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

// envOverrides are applied on top of the config file.
type envOverrides struct {
	StorageBackend string `env:"TJ_STORAGE_BACKEND"`
	StoragePath    string `env:"TJ_STORAGE_PATH"`
	DatabaseURL    string `env:"TJ_DATABASE_URL"`
	WeekStart      string `env:"TJ_WEEK_START"`
	Timezone       string `env:"TJ_TIMEZONE"`
	LogLevel       string `env:"TJ_LOG_LEVEL"`
	ServerAddr     string `env:"TJ_SERVER_ADDR"`
	JournalKey     string `env:"TJ_JOURNAL_KEY"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/trade-journal"
	}
	return filepath.Join(home, ".config", "trade-journal")
}

// ConfigFile returns the path of config.toml inside configDir.
func ConfigFile(configDir string) string {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	return filepath.Join(configDir, "config.toml")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A missing
// config.toml is created from the template and defaults are used.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}
	if err := loadConfigFile(configDir, "config", cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}
	cfg.Dir = configDir

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir, name string, target interface{}) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
		if err := createTemplateConfig(configDir, name); err != nil {
			return err
		}
	}

	return v.Unmarshal(target)
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("journal.key", "default")
	v.SetDefault("journal.default_starting_capital", 0.0)
	v.SetDefault("journal.currency_symbol", "$")

	v.SetDefault("storage.backend", BackendFile)
	v.SetDefault("storage.path", "")
	v.SetDefault("storage.max_conns", 4)

	v.SetDefault("calendar.week_start", "sunday")
	v.SetDefault("calendar.timezone", "Local")

	v.SetDefault("analytics.min_group_trades", 1)
	v.SetDefault("analytics.cache_ttl", "5m")
	v.SetDefault("analytics.cache_max_cost", 1<<20)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", true)
	v.SetDefault("logging.file_path", filepath.Join(configDir, "logs", "journal.log"))
	v.SetDefault("logging.max_size", 20)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age", 30)

	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("server.mode", "release")
}

func applyEnvOverrides(cfg *Config) error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return err
	}

	if o.StorageBackend != "" {
		cfg.Storage.Backend = o.StorageBackend
	}
	if o.StoragePath != "" {
		cfg.Storage.Path = o.StoragePath
	}
	if o.DatabaseURL != "" {
		cfg.Storage.DSN = o.DatabaseURL
	}
	if o.WeekStart != "" {
		cfg.Calendar.WeekStart = o.WeekStart
	}
	if o.Timezone != "" {
		cfg.Calendar.Timezone = o.Timezone
	}
	if o.LogLevel != "" {
		cfg.Logging.Level = o.LogLevel
	}
	if o.ServerAddr != "" {
		cfg.Server.Addr = o.ServerAddr
	}
	if o.JournalKey != "" {
		cfg.Journal.Key = o.JournalKey
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendFile, BackendSQLite:
	case BackendPostgres:
		if c.Storage.DSN == "" {
			return invalid("storage.dsn is required for the postgres backend")
		}
	default:
		return invalid("unknown storage backend: %s (must be 'file', 'sqlite' or 'postgres')", c.Storage.Backend)
	}

	if strings.TrimSpace(c.Journal.Key) == "" {
		return invalid("journal.key must not be empty")
	}
	if c.Journal.DefaultStartingCapital < 0 {
		return invalid("journal.default_starting_capital must be non-negative")
	}

	if _, ok := analytics.ParseWeekday(c.Calendar.WeekStart); !ok {
		return invalid("invalid calendar.week_start: %s", c.Calendar.WeekStart)
	}
	if _, err := c.Location(); err != nil {
		return invalid("invalid calendar.timezone: %s", c.Calendar.Timezone)
	}

	if c.Analytics.MinGroupTrades < 1 {
		return invalid("analytics.min_group_trades must be at least 1")
	}
	if c.Analytics.CacheTTL < 0 || c.Analytics.CacheMaxCost < 0 {
		return invalid("analytics cache settings must be non-negative")
	}

	if !logging.ValidLevel(c.Logging.Level) {
		return invalid("invalid logging.level: %s", c.Logging.Level)
	}

	return nil
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", apperrors.ErrConfigInvalid, fmt.Sprintf(format, args...))
}

// WeekStart returns the configured first day of the week.
func (c *Config) WeekStart() time.Weekday {
	d, _ := analytics.ParseWeekday(c.Calendar.WeekStart)
	return d
}

// Location loads the configured time zone. Blank and "Local" mean the
// system zone.
func (c *Config) Location() (*time.Location, error) {
	switch strings.TrimSpace(c.Calendar.Timezone) {
	case "", "Local", "local":
		return time.Local, nil
	default:
		return time.LoadLocation(c.Calendar.Timezone)
	}
}

// Resolver builds the period resolver for the configured calendar.
func (c *Config) Resolver() analytics.Resolver {
	loc, err := c.Location()
	if err != nil {
		loc = time.Local
	}
	return analytics.NewResolver(c.WeekStart(), loc)
}

// StoragePath returns the storage path. It defaults to a journals
// directory (file backend) or journal.db (sqlite) in the config directory.
func (c *Config) StoragePath() string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}
	name := "journals"
	if c.Storage.Backend == BackendSQLite {
		name = "journal.db"
	}
	return filepath.Join(c.Dir, name)
}

// LogConfig converts the logging section for the logging package.
func (c *Config) LogConfig() logging.LogConfig {
	return logging.LogConfig{
		Level:      c.Logging.Level,
		Console:    c.Logging.Console,
		File:       c.Logging.File,
		FilePath:   c.Logging.FilePath,
		MaxSize:    c.Logging.MaxSize,
		MaxBackups: c.Logging.MaxBackups,
		MaxAge:     c.Logging.MaxAge,
	}
}
