// Package config loads the YAML run configuration and applies environment
// overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/LynnColeArt/stencil"
)

// Environment overrides, applied after the file
const (
	EnvStrategy = "STENCIL_STRATEGY"
	EnvWorkers  = "STENCIL_WORKERS"
	EnvTileSize = "STENCIL_TILE_SIZE"
	EnvLogLevel = "STENCIL_LOG_LEVEL"
)

// Config holds all run configuration.
type Config struct {
	Stencil StencilConfig `yaml:"stencil"`
	IO      IOConfig      `yaml:"io"`
	Logging LoggingConfig `yaml:"logging"`
	Bench   BenchConfig   `yaml:"bench"`
}

// StencilConfig selects the execution strategy. It is read once at startup.
type StencilConfig struct {
	Strategy   stencil.Kind `yaml:"strategy"`
	TileSize   int          `yaml:"tile_size"`
	Workers    int          `yaml:"workers"`
	DebugTrace bool         `yaml:"debug_trace"`
	Boundary   float32      `yaml:"boundary"`
}

// IOConfig configures file locations.
type IOConfig struct {
	Input  string `yaml:"input"`
	Output string `yaml:"output"`
	// FlagFile enables the per-pass progress marker when non-empty
	FlagFile string `yaml:"flag_file"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// BenchConfig configures where benchmark sessions are recorded.
type BenchConfig struct {
	LogDir   string `yaml:"log_dir"`
	Database string `yaml:"database"` // empty disables the results database
	// ColdCache flushes CPU caches before each benchmarked strategy
	ColdCache bool `yaml:"cold_cache"`
}

// Default returns the built-in configuration.
func Default() Config {
	opts := stencil.DefaultOptions()
	return Config{
		Stencil: StencilConfig{
			Strategy: opts.Strategy,
			TileSize: opts.TileSize,
			Workers:  opts.Workers,
			Boundary: opts.Boundary,
		},
		IO: IOConfig{
			Input:  stencil.DefaultInputPath,
			Output: stencil.DefaultOutputPath,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Bench: BenchConfig{
			LogDir:   "benchmark_logs",
			Database: "benchmark_logs/results.db",
		},
	}
}

// Load reads path over the defaults. An empty path yields the defaults.
// Environment overrides are applied in both cases.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, stencil.NewIOError("config.Load", "cannot read "+path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, stencil.NewInvalidArgError("config.Load", fmt.Sprintf("parse %s: %v", path, err))
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvStrategy); ok && v != "" {
		k, err := stencil.ParseKind(v)
		if err != nil {
			return err
		}
		c.Stencil.Strategy = k
	}
	for _, env := range []struct {
		name string
		dst  *int
	}{
		{EnvWorkers, &c.Stencil.Workers},
		{EnvTileSize, &c.Stencil.TileSize},
	} {
		v, ok := lookup(env.name)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n <= 0 {
			return stencil.NewInvalidArgError("config", fmt.Sprintf("%s must be a positive integer, got %q", env.name, v))
		}
		*env.dst = n
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Logging.Level = v
	}
	return nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	opts := c.Options()
	if err := opts.Validate(); err != nil {
		return err
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console", "":
	default:
		return stencil.NewInvalidArgError("config", fmt.Sprintf("unknown log format %q", c.Logging.Format))
	}
	return nil
}

// Options converts the stencil section into executor options.
func (c *Config) Options() stencil.Options {
	return stencil.Options{
		Strategy:   c.Stencil.Strategy,
		TileSize:   c.Stencil.TileSize,
		Workers:    c.Stencil.Workers,
		DebugTrace: c.Stencil.DebugTrace,
		Boundary:   c.Stencil.Boundary,
	}
}
