// Package config loads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/copyleftdev/vrpls/internal/logging"
	"github.com/copyleftdev/vrpls/internal/optimization/catalog"
)

type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	HTTP        struct {
		Port            int           `env:"HTTP_PORT" envDefault:"8080"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"60s"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	}
	Logging logging.Config `envPrefix:"LOG_"`
	Solver  struct {
		Initializer string  `env:"SOLVER_INITIALIZER" envDefault:"savings"`
		Strategy    string  `env:"SOLVER_STRATEGY" envDefault:"vnd"`
		MaxJobs     int     `env:"SOLVER_MAX_JOBS" envDefault:"4"`
		SubmitRate  float64 `env:"SOLVER_SUBMIT_RATE" envDefault:"5"`
		SubmitBurst int     `env:"SOLVER_SUBMIT_BURST" envDefault:"10"`
		// KeepJobs bounds how many finished jobs stay queryable.
		KeepJobs int `env:"SOLVER_KEEP_JOBS" envDefault:"1000"`
	}
}

// Load reads the given .env files, or ./.env when none are named, and then
// parses the environment. Variables already set are never overridden by a
// .env file. A missing default .env is not an error.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	} else if err := godotenv.Load(envFiles...); err != nil {
		return nil, fmt.Errorf("load %v: %w", envFiles, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
		if cfg.Environment == "development" {
			cfg.Logging.Level = "debug"
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and that the configured solver components exist.
func (c *Config) Validate() error {
	var errs []error
	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("HTTP_PORT %d out of range", c.HTTP.Port))
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("HTTP_SHUTDOWN_TIMEOUT must be positive"))
	}
	if _, err := catalog.Initializer(c.Solver.Initializer); err != nil {
		errs = append(errs, fmt.Errorf("SOLVER_INITIALIZER: %w", err))
	}
	if _, err := catalog.Strategy(c.Solver.Strategy); err != nil {
		errs = append(errs, fmt.Errorf("SOLVER_STRATEGY: %w", err))
	}
	if c.Solver.MaxJobs < 1 {
		errs = append(errs, fmt.Errorf("SOLVER_MAX_JOBS must be at least 1, got %d", c.Solver.MaxJobs))
	}
	if c.Solver.SubmitRate <= 0 {
		errs = append(errs, fmt.Errorf("SOLVER_SUBMIT_RATE must be positive, got %v", c.Solver.SubmitRate))
	}
	if c.Solver.SubmitBurst < 1 {
		errs = append(errs, fmt.Errorf("SOLVER_SUBMIT_BURST must be at least 1, got %d", c.Solver.SubmitBurst))
	}
	if c.Solver.KeepJobs < 1 {
		errs = append(errs, fmt.Errorf("SOLVER_KEEP_JOBS must be at least 1, got %d", c.Solver.KeepJobs))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTP.Port)
}
