// Package config holds the run configuration for a position-generation run.
// Values come from an optional YAML file with CLI flags taking precedence;
// loading is fail-fast on invalid values.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/swarmseed/internal/pso"
)

// Config describes one generation run.
type Config struct {
	// Swarm constants.
	Inertia   float64 `yaml:"inertia"`
	Cognitive float64 `yaml:"cognitive"`
	Social    float64 `yaml:"social"`

	// ParticleCount of 0 derives the count from the dimensionality.
	ParticleCount int `yaml:"particleCount"`

	// MaxIterations of the swarm loop.
	MaxIterations int `yaml:"maxIterations"`

	// Threads used by the local evaluation pool.
	Threads int `yaml:"threads"`

	// Workers are evaluation worker base URLs; non-empty selects the
	// distributed strategy.
	Workers []string `yaml:"workers,omitempty"`

	// Seed for the optimizer's random source; 0 means non-deterministic.
	Seed int64 `yaml:"seed"`
}

// MaxIterationsDefault matches the original generator's iteration cap.
const MaxIterationsDefault = 1000

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Inertia:       pso.DefaultInertia,
		Cognitive:     pso.DefaultCognitive,
		Social:        pso.DefaultSocial,
		MaxIterations: MaxIterationsDefault,
		Threads:       1,
	}
}

// Load reads a YAML config file on top of the defaults and validates it.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration; it is called again after flag
// overrides.
func (c *Config) Validate() error {
	if c.Inertia <= 0 || c.Inertia >= 1 {
		return &FieldError{Field: "inertia", Reason: fmt.Sprintf("must be in (0, 1), got %g", c.Inertia)}
	}
	if c.Cognitive <= 0 {
		return &FieldError{Field: "cognitive", Reason: "must be positive"}
	}
	if c.Social <= 0 {
		return &FieldError{Field: "social", Reason: "must be positive"}
	}
	if c.ParticleCount < 0 {
		return &FieldError{Field: "particleCount", Reason: "cannot be negative"}
	}
	if c.ParticleCount > 0 && c.ParticleCount < 2 {
		return &FieldError{Field: "particleCount", Reason: "needs at least 2 particles"}
	}
	if c.MaxIterations <= 0 {
		return &FieldError{Field: "maxIterations", Reason: "must be positive"}
	}
	if c.Threads < 1 {
		return &FieldError{Field: "threads", Reason: "must be at least 1"}
	}
	for i, w := range c.Workers {
		if w == "" {
			return &FieldError{Field: "workers", Reason: fmt.Sprintf("entry %d is empty", i)}
		}
	}
	return nil
}

// Distributed reports whether the run uses the coordinator/worker strategy.
func (c *Config) Distributed() bool { return len(c.Workers) > 0 }

// FieldError reports an invalid configuration field.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return "invalid config: " + e.Field + " " + e.Reason
}
