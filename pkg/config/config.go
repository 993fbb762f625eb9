// Package config loads and validates the service configuration through
// viper: a YAML file (searched in the working directory, ./configs,
// and /etc/optinet) overlaid by environment variables, with defaults
// that make a bare `optinet serve` work against sqlite and local
// storage with no file at all.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config is the root of the service configuration tree.
type Config struct {
	Core      CoreConfig      `mapstructure:"core"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Callback  CallbackConfig  `mapstructure:"callback"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Log       LogConfig       `mapstructure:"log"`
}

// CoreConfig tunes the reduction engine itself.
type CoreConfig struct {
	Version string `mapstructure:"version"`
	DataDir string `mapstructure:"data_dir"`
	// DefaultGasLimit is the rewrite budget applied to jobs that don't
	// carry their own.
	DefaultGasLimit uint64 `mapstructure:"default_gas_limit"`
}

// DatabaseConfig selects and parameterizes the job repository backend.
type DatabaseConfig struct {
	Type     string `mapstructure:"type"` // postgres, mysql, or sqlite
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	MaxConns int    `mapstructure:"max_conns"`
}

// StorageConfig selects and parameterizes the artifact store backend.
type StorageConfig struct {
	Type      string `mapstructure:"type"` // cos or local
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	SecretID  string `mapstructure:"secret_id"`
	SecretKey string `mapstructure:"secret_key"`
	Domain    string `mapstructure:"domain"`
	Scheme    string `mapstructure:"scheme"`
	LocalPath string `mapstructure:"local_path"`
}

// CallbackConfig optionally notifies an external endpoint when a job
// finishes: the completed job's result is POSTed to URL as JSON.
// Disabled by default.
type CallbackConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

// SchedulerConfig tunes the polling job scheduler.
type SchedulerConfig struct {
	PollInterval  int `mapstructure:"poll_interval"` // seconds
	WorkerCount   int `mapstructure:"worker_count"`
	PrioritySlots int `mapstructure:"priority_slots"`
	TaskBatchSize int `mapstructure:"task_batch_size"`
}

// LogConfig tunes logging.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"` // json or text
}

// Load reads the configuration file at configPath, or searches the
// standard locations when it is empty. A missing file is not an error:
// the defaults alone describe a runnable single-machine setup.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/optinet")
	}

	if err := v.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// LoadFromReader parses configuration from an in-memory document,
// mainly for tests.
func LoadFromReader(configType string, content []byte) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("core.version", "1.0.0")
	v.SetDefault("core.data_dir", "./data")
	v.SetDefault("core.default_gas_limit", 1_000_000)

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.database", "optinet.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.max_conns", 10)

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "./storage")

	v.SetDefault("callback.enabled", false)

	v.SetDefault("scheduler.poll_interval", 2)
	v.SetDefault("scheduler.worker_count", 5)
	v.SetDefault("scheduler.priority_slots", 2)
	v.SetDefault("scheduler.task_batch_size", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.output_path", "./logs")
	v.SetDefault("log.format", "text")
}

// Validate rejects configurations no component could start from.
// Storage settings are validated by the storage package when the store
// is actually constructed.
func (c *Config) Validate() error {
	switch c.Database.Type {
	case "postgres", "postgresql", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}
	if c.Database.Type != "sqlite" && c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Scheduler.WorkerCount < 1 {
		return fmt.Errorf("worker count must be at least 1")
	}
	if c.Core.DefaultGasLimit == 0 {
		return fmt.Errorf("core default gas limit must be positive")
	}
	if c.Callback.Enabled && c.Callback.URL == "" {
		return fmt.Errorf("callback URL is required when the callback is enabled")
	}
	return nil
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c *Config) EnsureDataDir() error {
	if c.Core.DataDir == "" {
		return nil
	}
	return os.MkdirAll(c.Core.DataDir, 0755)
}

// GetJobDir returns the scratch directory for one job's artifacts.
func (c *Config) GetJobDir(jobUUID string) string {
	return filepath.Join(c.Core.DataDir, jobUUID)
}
