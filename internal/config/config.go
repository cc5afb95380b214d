package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"quantcv/internal/strategy/backtest"
	"quantcv/internal/strategy/optimizer"
)

// Config represents the application configuration
type Config struct {
	App             AppConfig                `yaml:"app"`
	Server          ServerConfig             `yaml:"server"`
	Logging         LoggingConfig            `yaml:"logging"`
	Backtest        backtest.Config          `yaml:"backtest"`
	CrossValidation optimizer.CrossValConfig `yaml:"cross_validation"`
	Scheduler       SchedulerConfig          `yaml:"scheduler"`
}

// AppConfig represents application configuration
type AppConfig struct {
	Name string `yaml:"name"`
	Env  string `yaml:"env"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host           string  `yaml:"host"`
	Port           int     `yaml:"port"`
	RequestsPerSec float64 `yaml:"requests_per_sec"`
	Burst          int     `yaml:"burst"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	Output     string `yaml:"output"`
	LogDir     string `yaml:"log_dir"`
	MaxSize    int    `yaml:"max_size"` // MB
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"` // days
	Compress   bool   `yaml:"compress"`
}

// SchedulerConfig represents the periodic revalidation job
type SchedulerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"` // cron expression
	DataFile string `yaml:"data_file"`
}

// Default returns a configuration with conventional defaults.
func Default() *Config {
	return &Config{
		App: AppConfig{Name: "quantcv", Env: "development"},
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			RequestsPerSec: 10,
			Burst:          20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Backtest:        *backtest.DefaultConfig(),
		CrossValidation: *optimizer.DefaultCrossValConfig(),
		Scheduler: SchedulerConfig{
			Schedule: "0 0 6 * * *",
		},
	}
}

// Load loads configuration from a YAML file on top of defaults, then applies
// environment overrides.
func Load(filename string) (*Config, error) {
	config := Default()

	if filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Backtest.InitialCapital <= 0 {
		return fmt.Errorf("backtest.initial_capital must be positive")
	}
	if c.Backtest.MaxPositionSize <= 0 || c.Backtest.MaxPositionSize > 1 {
		return fmt.Errorf("backtest.max_position_size must be in (0, 1]")
	}
	if c.Backtest.CommissionRate < 0 || c.Backtest.CommissionRate > 1 {
		return fmt.Errorf("backtest.commission_rate must be in [0, 1]")
	}
	if c.Backtest.SlippageRate < 0 || c.Backtest.SlippageRate > 1 {
		return fmt.Errorf("backtest.slippage_rate must be in [0, 1]")
	}
	if c.CrossValidation.Folds < 2 {
		return fmt.Errorf("cross_validation.folds must be at least 2")
	}
	if c.CrossValidation.PurgeGap < 0 || c.CrossValidation.EmbargoGap < 0 {
		return fmt.Errorf("cross_validation gaps must be non-negative")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be a valid port")
	}
	return nil
}
