// Package config loads the service configuration: a YAML file, an optional
// .env file and PIPELINE_* environment overrides, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"go-sheet-pipeline/internal/model"
)

type Config struct {
	Server    ServerConfig `yaml:"server"`
	Store     StoreConfig  `yaml:"store"`
	OutputDir string       `yaml:"outputDir"`
	Log       LogConfig    `yaml:"log"`
	Fetch     FetchConfig  `yaml:"fetch"`
	CacheTTL  string       `yaml:"cacheTTL"`
	Schedule  string       `yaml:"schedule"`
	Timezone  string       `yaml:"timezone"`
	Views     []View       `yaml:"views"`
}

type ServerConfig struct {
	Addr            string `yaml:"addr"`
	ShutdownTimeout string `yaml:"shutdownTimeout"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

type FetchConfig struct {
	Timeout string              `yaml:"timeout"`
	Workers int                 `yaml:"workers"`
	Retry   model.RetryPolicy   `yaml:"retry"`
	Breaker model.BreakerPolicy `yaml:"breaker"`
}

// View is a named dashboard: a set of sources sharing hints and run options.
type View struct {
	Name            string           `yaml:"name"`
	Preset          string           `yaml:"preset"`
	Hints           model.Hints      `yaml:"hints"`
	TopN            int              `yaml:"topN"`
	Dedup           bool             `yaml:"dedup"`
	DateRange       *model.DateRange `yaml:"dateRange"`
	Transformations []string         `yaml:"transformations"`
	Sources         []SourceConfig   `yaml:"sources"`
}

// SourceConfig is one export of a view. Preset and Hints override the view's.
type SourceConfig struct {
	Tag    string      `yaml:"tag"`
	URL    string      `yaml:"url"`
	Period string      `yaml:"period"`
	Preset string      `yaml:"preset"`
	Hints  model.Hints `yaml:"hints"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server:    ServerConfig{Addr: ":8080", ShutdownTimeout: "15s"},
		Store:     StoreConfig{Path: "pipeline.db"},
		OutputDir: "outputs",
		Log:       LogConfig{Level: "info", Format: "text"},
		Fetch: FetchConfig{
			Timeout: "30s",
			Workers: 4,
			Retry:   model.DefaultRetryPolicy,
			Breaker: model.DefaultBreakerPolicy,
		},
		CacheTTL: "5m",
	}
}

// Load reads path (skipped when empty), then .env, then the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg.applyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Server.Addr, "PIPELINE_ADDR")
	set(&c.Store.Path, "PIPELINE_DB")
	set(&c.OutputDir, "PIPELINE_OUTPUT_DIR")
	set(&c.Log.Level, "PIPELINE_LOG_LEVEL")
	set(&c.Log.Format, "PIPELINE_LOG_FORMAT")
	set(&c.Log.File, "PIPELINE_LOG_FILE")
	set(&c.CacheTTL, "PIPELINE_CACHE_TTL")
	set(&c.Schedule, "PIPELINE_SCHEDULE")
	if v := getenv("PIPELINE_FETCH_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Fetch.Workers = n
		}
	}
}

// Validate checks durations and view definitions.
func (c *Config) Validate() error {
	var errs []error
	for name, d := range map[string]string{
		"cacheTTL": c.CacheTTL, "fetch.timeout": c.Fetch.Timeout, "server.shutdownTimeout": c.Server.ShutdownTimeout,
	} {
		if d == "" {
			continue
		}
		if _, err := time.ParseDuration(d); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("timezone: %w", err))
		}
	}
	seen := map[string]bool{}
	for i, v := range c.Views {
		if v.Name == "" {
			errs = append(errs, fmt.Errorf("views[%d]: missing name", i))
			continue
		}
		if seen[v.Name] {
			errs = append(errs, fmt.Errorf("view %q defined twice", v.Name))
		}
		seen[v.Name] = true
		if len(v.Sources) == 0 {
			errs = append(errs, fmt.Errorf("view %q: no sources", v.Name))
		}
		for _, s := range v.Sources {
			if _, err := v.hints(s); err != nil {
				errs = append(errs, fmt.Errorf("view %q: %w", v.Name, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Duration parses a configured duration, falling back to def.
func Duration(s string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

// Location is the scheduler's time zone.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
