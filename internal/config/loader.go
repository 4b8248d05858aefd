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

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MEDALS_"

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if MEDALS_CONFIG is set
//  3. env (prefix MEDALS_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv(EnvPrefix + "CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	// Map env keys like MEDALS_SHEET_URL -> sheet_url (flat keys).
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the selected store is fully located.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch strings.ToLower(c.SaveMode) {
	case "overwrite", "merge":
	default:
		return fmt.Errorf("%w: save_mode must be overwrite or merge, got %q", ErrInvalidConfig, c.SaveMode)
	}
	switch strings.ToLower(c.Store) {
	case "sheets":
		if c.SheetURL == "" && c.SheetID == "" {
			return fmt.Errorf("%w: %w: sheet_url or sheet_id is required for the sheets store", ErrInvalidConfig, ErrMissingLocator)
		}
		if c.CredentialsFile == "" && c.CredentialsJSON == "" {
			return fmt.Errorf("%w: credentials_file or credentials_json is required for the sheets store", ErrInvalidConfig)
		}
	case "xlsx":
		if c.XLSXPath == "" {
			return fmt.Errorf("%w: %w: xlsx_path is required for the xlsx store", ErrInvalidConfig, ErrMissingLocator)
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: %w: sqlite_path is required for the sqlite store", ErrInvalidConfig, ErrMissingLocator)
		}
	case "memory":
	default:
		return fmt.Errorf("%w: %w %q", ErrInvalidConfig, ErrUnknownStore, c.Store)
	}
	if c.TopN < 1 {
		return fmt.Errorf("%w: top_n must be at least 1", ErrInvalidConfig)
	}
	if c.SaveQueueSize < 1 {
		return fmt.Errorf("%w: save_queue_size must be at least 1", ErrInvalidConfig)
	}
	return nil
}
