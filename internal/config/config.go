// Package config loads solver configuration from YAML with env overrides for
// deployment-specific endpoints.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"vrpsolve/internal/search"
)

// Config is the on-disk solver configuration.
type Config struct {
	Termination struct {
		MaxTimeSec     int     `yaml:"maxTimeSec"`
		MaxGenerations int64   `yaml:"maxGenerations"`
		Variation      int64   `yaml:"variation"`
		TargetCost     float64 `yaml:"targetCost"`
	} `yaml:"termination"`
	Search struct {
		InitialSolutions int      `yaml:"initialSolutions"`
		Population       int      `yaml:"population"`
		Parallelism      int      `yaml:"parallelism"`
		Seed             int64    `yaml:"seed"`
		Operators        []string `yaml:"operators"`
		MinRuin          int      `yaml:"minRuin"`
		MaxRuin          int      `yaml:"maxRuin"`
	} `yaml:"search"`
	MatrixCache string `yaml:"matrixCache"` // sqlite path, empty disables
	DatabaseURL string `yaml:"databaseUrl"` // postgres run store, empty = memory
	RedisURL    string `yaml:"redisUrl"`    // progress broker, empty = in-process
	MonitorAddr string `yaml:"monitorAddr"` // websocket monitor, empty disables
}

// Load reads a YAML file (optional: "" yields defaults) and applies env
// overrides for DATABASE_URL and REDIS_URL.
func Load(path string) (Config, error) {
	var c Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return c, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &c); err != nil {
			return c, fmt.Errorf("parse config: %w", err)
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.RedisURL = v
	}
	return c, nil
}

// SolverOptions maps the configuration onto search options.
func (c Config) SolverOptions() search.Options {
	return search.Options{
		MaxTime:          time.Duration(c.Termination.MaxTimeSec) * time.Second,
		MaxGenerations:   c.Termination.MaxGenerations,
		Variation:        c.Termination.Variation,
		TargetCost:       c.Termination.TargetCost,
		InitialSolutions: c.Search.InitialSolutions,
		PopulationCap:    c.Search.Population,
		Parallelism:      c.Search.Parallelism,
		Seed:             c.Search.Seed,
		Operators:        c.Search.Operators,
		MinRuin:          c.Search.MinRuin,
		MaxRuin:          c.Search.MaxRuin,
	}
}
