// Package config loads server settings from defaults, an optional YAML file
// and environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lojf/pairsurvey/internal/analysis"
	"github.com/lojf/pairsurvey/internal/db"
)

type Config struct {
	Addr        string `yaml:"addr"`
	DatabaseDSN string `yaml:"database_dsn"`
	LogLevel    string `yaml:"log_level"`

	OpenAI OpenAI `yaml:"openai"`

	PipelineWorkers int `yaml:"pipeline_workers"`

	Monitor Monitor `yaml:"monitor"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type OpenAI struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// Monitor configures the stuck-session check.
type Monitor struct {
	Enabled   bool          `yaml:"enabled"`
	Interval  time.Duration `yaml:"interval"`
	Threshold time.Duration `yaml:"threshold"`
}

func Default() Config {
	return Config{
		Addr:        ":8080",
		DatabaseDSN: db.DefaultDSN,
		LogLevel:    "info",
		OpenAI: OpenAI{
			Model:   analysis.DefaultModel,
			Timeout: analysis.DefaultTimeout,
		},
		PipelineWorkers: 4,
		Monitor: Monitor{
			Enabled:   true,
			Interval:  time.Minute,
			Threshold: 10 * time.Minute,
		},
		ShutdownTimeout: 30 * time.Second,
	}
}

// Load builds the config. CONFIG_FILE, when set, must point at a readable
// YAML file; every other source is optional.
func Load() (Config, error) {
	cfg := Default()
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	setString(&c.Addr, "ADDR")
	setString(&c.DatabaseDSN, "DATABASE_DSN")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&c.OpenAI.BaseURL, "OPENAI_BASE_URL")
	setString(&c.OpenAI.Model, "OPENAI_MODEL")
	setDuration(&c.OpenAI.Timeout, "AI_TIMEOUT")
	setDuration(&c.Monitor.Interval, "STUCK_CHECK_INTERVAL")
	setDuration(&c.Monitor.Threshold, "STUCK_THRESHOLD")
	setDuration(&c.ShutdownTimeout, "SHUTDOWN_TIMEOUT")

	if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("PIPELINE_WORKERS"))); err == nil && n > 0 {
		c.PipelineWorkers = n
	}
	switch strings.TrimSpace(os.Getenv("ENABLE_STUCK_MONITOR")) {
	case "1", "true":
		c.Monitor.Enabled = true
	case "0", "false":
		c.Monitor.Enabled = false
	}
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// setDuration leaves dst untouched when the variable is unset or not a
// positive duration.
func setDuration(dst *time.Duration, key string) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		*dst = d
	}
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if strings.TrimSpace(c.DatabaseDSN) == "" {
		errs = append(errs, errors.New("database_dsn is required"))
	}
	if c.PipelineWorkers <= 0 {
		errs = append(errs, errors.New("pipeline_workers must be positive"))
	}
	if c.OpenAI.Timeout <= 0 {
		errs = append(errs, errors.New("openai.timeout must be positive"))
	}
	if c.Monitor.Enabled && (c.Monitor.Interval <= 0 || c.Monitor.Threshold <= 0) {
		errs = append(errs, errors.New("monitor interval and threshold must be positive"))
	}
	return errors.Join(errs...)
}

// Level maps LogLevel to a slog level, defaulting to info.
func (c Config) Level() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
