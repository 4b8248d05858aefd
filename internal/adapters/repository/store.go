// Package repository holds the gateways to the remote medal sheet.
//
// Every backend exchanges whole tables as model.Sheet: Fetch reads the
// header and all rows, Replace overwrites the stored table with the given
// one. No backend merges or diffs.
package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/okian/medalboard/internal/domain/model"
)

// Store provides read/replace access to the remote table.
type Store interface {
	// Fetch returns the full stored table, header first.
	Fetch(ctx context.Context) (model.Sheet, error)

	// Replace overwrites the stored table with sheet.
	Replace(ctx context.Context, sheet model.Sheet) error

	// Name identifies the backend in logs and metrics.
	Name() string
}

// Store kinds accepted by Open.
const (
	KindSheets = "sheets"
	KindXLSX   = "xlsx"
	KindSQLite = "sqlite"
	KindMemory = "memory"
)

// Locator names a table and how to reach it.
type Locator struct {
	Kind string

	// Google Sheets: spreadsheet URL or bare ID, tab title, and credentials
	// as either a key file path or inline JSON.
	SheetURL        string
	SheetTab        string
	CredentialsFile string
	CredentialsJSON string

	XLSXPath    string
	SQLitePath  string
	SQLiteTable string
}

// Open builds the store described by loc.
func Open(ctx context.Context, loc Locator) (Store, error) {
	switch strings.ToLower(loc.Kind) {
	case KindSheets:
		return NewSheetsStore(ctx, loc.SheetURL, loc.SheetTab, credentialSource(loc))
	case KindXLSX:
		if loc.XLSXPath == "" {
			return nil, fmt.Errorf("%w: xlsx path is empty", ErrInvalidLocator)
		}
		return NewXLSXStore(loc.XLSXPath, loc.SheetTab), nil
	case KindSQLite:
		if loc.SQLitePath == "" {
			return nil, fmt.Errorf("%w: sqlite path is empty", ErrInvalidLocator)
		}
		return OpenSQLiteStore(ctx, loc.SQLitePath, loc.SQLiteTable)
	case KindMemory:
		return NewMemoryStore(model.Sheet{Header: model.RequiredColumns}), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, loc.Kind)
	}
}

func credentialSource(loc Locator) Credentials {
	if loc.CredentialsJSON != "" {
		return Credentials{JSON: []byte(loc.CredentialsJSON)}
	}
	return Credentials{File: loc.CredentialsFile}
}

// typedCell returns an int for canonical integer text so numeric columns
// stay numeric in typed backends. Text such as "007" is kept verbatim.
func typedCell(s string) any {
	if n, err := strconv.Atoi(s); err == nil && strconv.Itoa(n) == s {
		return n
	}
	return s
}

// cellText renders a backend cell value as text.
func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
