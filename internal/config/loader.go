package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if RAIDLINE_CONFIG is set
//  3. env (prefix RAIDLINE_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("RAIDLINE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: RAIDLINE_ADDR, RAIDLINE_API_KEY, ...
	// Map env keys like RAIDLINE_API_KEY -> api_key (flat keys).
	envProvider := env.Provider("RAIDLINE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "raidline_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.APIHost == "":
		return fmt.Errorf("%w: api_host must not be empty", ErrInvalidConfig)
	case c.SessionDurationMinutes <= 0:
		return fmt.Errorf("%w: session_duration_minutes must be positive", ErrInvalidConfig)
	case c.SchedulerTickSeconds <= 0:
		return fmt.Errorf("%w: scheduler_tick_seconds must be positive", ErrInvalidConfig)
	case c.ReportChunkLimit <= 0:
		return fmt.Errorf("%w: report_chunk_limit must be positive", ErrInvalidConfig)
	}
	return nil
}
