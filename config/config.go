// Package config reads runtime settings from the environment.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
)

type Config struct {
	ScenePath  string  `env:"SCENE" envDefault:"scenes/pendulum.yaml"`
	TickRate   int     `env:"TICK_RATE" envDefault:"60"`
	Iterations uint    `env:"ITERATIONS" envDefault:"20"`
	GravityX   float64 `env:"GRAVITY_X" envDefault:"0"`
	GravityY   float64 `env:"GRAVITY_Y" envDefault:"400"`
	Debug      bool    `env:"DEBUG"`
	Editor     string  `env:"EDITOR"`
}

const defaultEditor = "vi"

// Load parses JOINTSYNC_ prefixed variables. An empty Editor falls back to
// EDITOR, then vi.
func Load() (Config, error) {
	return load(env.Options{Prefix: "JOINTSYNC_"})
}

func load(opts env.Options) (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg, opts); err != nil {
		return Config{}, err
	}
	if cfg.Editor == "" {
		cfg.Editor = lookup(opts, "EDITOR")
	}
	if cfg.Editor == "" {
		cfg.Editor = defaultEditor
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func lookup(opts env.Options, key string) string {
	if opts.Environment != nil {
		return opts.Environment[key]
	}
	return os.Getenv(key)
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any, opts env.Options) error {
	if err := env.ParseWithOptions(target, opts); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c Config) validate() error {
	if c.TickRate <= 0 {
		return fmt.Errorf("config: tick rate must be positive, got %d", c.TickRate)
	}
	if c.Iterations == 0 {
		return fmt.Errorf("config: solver iterations must be positive")
	}
	return nil
}

// TimeStep is the simulation step for one tick.
func (c Config) TimeStep() float64 {
	return 1 / float64(c.TickRate)
}

// NewLogger builds a development logger in debug mode and a production one
// otherwise.
func NewLogger(cfg Config) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Debug {
		z := zap.NewDevelopmentConfig()
		z.OutputPaths = []string{"stderr"}
		logger, err = z.Build()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
