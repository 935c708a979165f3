package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	data := []byte(`
inertia: 0.6
particleCount: 40
maxIterations: 200
threads: 8
workers:
  - http://w1:8750
  - http://w2:8750
seed: 17
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Inertia != 0.6 {
		t.Errorf("Inertia = %v, want 0.6", cfg.Inertia)
	}
	// Untouched fields keep their defaults.
	if cfg.Cognitive != Default().Cognitive {
		t.Errorf("Cognitive = %v, want default %v", cfg.Cognitive, Default().Cognitive)
	}
	if cfg.ParticleCount != 40 || cfg.MaxIterations != 200 || cfg.Threads != 8 || cfg.Seed != 17 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if !cfg.Distributed() || len(cfg.Workers) != 2 {
		t.Errorf("Workers = %v, want two URLs", cfg.Workers)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"inertia zero", func(c *Config) { c.Inertia = 0 }, "inertia"},
		{"inertia one", func(c *Config) { c.Inertia = 1 }, "inertia"},
		{"cognitive negative", func(c *Config) { c.Cognitive = -1 }, "cognitive"},
		{"social zero", func(c *Config) { c.Social = 0 }, "social"},
		{"one particle", func(c *Config) { c.ParticleCount = 1 }, "particleCount"},
		{"no iterations", func(c *Config) { c.MaxIterations = 0 }, "maxIterations"},
		{"zero threads", func(c *Config) { c.Threads = 0 }, "threads"},
		{"empty worker", func(c *Config) { c.Workers = []string{""} }, "workers"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			var fieldErr *FieldError
			if !errors.As(err, &fieldErr) {
				t.Fatalf("err = %v, want *FieldError", err)
			}
			if fieldErr.Field != tc.field {
				t.Errorf("field = %q, want %q", fieldErr.Field, tc.field)
			}
		})
	}
}
