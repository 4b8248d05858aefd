// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - Load layers defaults, an optional YAML file and MEDALS_* env vars.
// - External errors are wrapped with this package's sentinel kinds.
package config

import "context"

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Store selects the table gateway: sheets, xlsx, sqlite or memory.
	Store string `koanf:"store"`

	// SheetURL is the Google spreadsheet URL or bare ID; SheetTab the tab
	// title (empty selects the first tab, or the first worksheet of xlsx).
	SheetURL string `koanf:"sheet_url"`
	SheetTab string `koanf:"sheet_tab"`

	// SheetID is used when SheetURL is empty.
	SheetID string `koanf:"sheet_id"`

	// CredentialsFile and CredentialsJSON carry the service-account key.
	// Inline JSON wins when both are set.
	CredentialsFile string `koanf:"credentials_file"`
	CredentialsJSON string `koanf:"credentials_json"`

	// XLSXPath is the workbook used by the xlsx store.
	XLSXPath string `koanf:"xlsx_path"`

	// SQLitePath and SQLiteTable locate the sqlite store.
	SQLitePath  string `koanf:"sqlite_path"`
	SQLiteTable string `koanf:"sqlite_table"`

	// SaveMode is overwrite or merge; see the reconcile package.
	SaveMode string `koanf:"save_mode"`

	// TopN is how many countries the top view ranks.
	TopN int `koanf:"top_n"`

	// StoreTimeoutMS bounds each gateway call.
	StoreTimeoutMS int `koanf:"store_timeout_ms"`

	// IdempotencySize bounds the remembered save keys.
	IdempotencySize int `koanf:"idempotency_size"`

	// SaveQueueSize bounds saves waiting for the store writer.
	SaveQueueSize int `koanf:"save_queue_size"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":9080",
		Store:           "sheets",
		CredentialsFile: "credentials.json",
		SQLiteTable:     "medals",
		SaveMode:        "merge",
		TopN:            3,
		StoreTimeoutMS:  15_000,
		IdempotencySize: 1024,
		SaveQueueSize:   16,
	}
}
