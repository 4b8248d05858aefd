package config

import (
	"strings"
	"time"

	"github.com/okian/medalboard/internal/adapters/repository"
)

// Locator describes the configured table gateway.
func (c *Config) Locator() repository.Locator {
	sheet := c.SheetURL
	if sheet == "" {
		sheet = c.SheetID
	}
	return repository.Locator{
		Kind:            strings.ToLower(c.Store),
		SheetURL:        sheet,
		SheetTab:        c.SheetTab,
		CredentialsFile: c.CredentialsFile,
		CredentialsJSON: c.CredentialsJSON,
		XLSXPath:        c.XLSXPath,
		SQLitePath:      c.SQLitePath,
		SQLiteTable:     c.SQLiteTable,
	}
}

// StoreTimeout bounds a single fetch or replace.
func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.StoreTimeoutMS) * time.Millisecond
}
