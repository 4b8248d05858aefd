package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	// Pure-Go sqlite driver registered as "sqlite".
	_ "modernc.org/sqlite"

	"github.com/okian/medalboard/internal/domain/model"
)

// defaultSQLiteTable is used when no table name is configured.
const defaultSQLiteTable = "medals"

// SQLiteStore keeps the table as one sqlite table whose columns mirror the
// sheet header. Row order is insertion order.
type SQLiteStore struct {
	db    *sql.DB
	table string
}

// OpenSQLiteStore opens (creating if needed) the database at path.
func OpenSQLiteStore(ctx context.Context, path, table string) (*SQLiteStore, error) {
	if table == "" {
		table = defaultSQLiteTable
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps writes serialized.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &SQLiteStore{db: db, table: table}, nil
}

// Name implements Store.
func (s *SQLiteStore) Name() string { return KindSQLite }

// Close releases the database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Fetch implements Store.
func (s *SQLiteStore) Fetch(ctx context.Context) (model.Sheet, error) {
	exists, err := s.tableExists(ctx)
	if err != nil {
		return model.Sheet{}, err
	}
	if !exists {
		return model.Sheet{}, fmt.Errorf("%w: sqlite table %q", ErrNotFound, s.table)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(s.table)+" ORDER BY rowid")
	if err != nil {
		return model.Sheet{}, fmt.Errorf("query %s: %w", s.table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return model.Sheet{}, fmt.Errorf("columns %s: %w", s.table, err)
	}
	out := model.Sheet{Header: cols}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return model.Sheet{}, fmt.Errorf("scan %s: %w", s.table, err)
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			row[i] = cellText(v)
		}
		out.Rows = append(out.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return model.Sheet{}, fmt.Errorf("iterate %s: %w", s.table, err)
	}
	return out, nil
}

// Replace implements Store. The table is dropped and recreated inside one
// transaction, so a failed write leaves the previous contents in place.
func (s *SQLiteStore) Replace(ctx context.Context, sheet model.Sheet) (err error) {
	if len(sheet.Header) == 0 {
		return fmt.Errorf("%w: empty header", ErrInvalidLocator)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(s.table)); err != nil {
		return fmt.Errorf("drop %s: %w", s.table, err)
	}

	defs := make([]string, len(sheet.Header))
	marks := make([]string, len(sheet.Header))
	for i, col := range sheet.Header {
		defs[i] = quoteIdent(col) + " " + columnType(col)
		marks[i] = "?"
	}
	if _, err = tx.ExecContext(ctx, "CREATE TABLE "+quoteIdent(s.table)+" ("+strings.Join(defs, ", ")+")"); err != nil {
		return fmt.Errorf("create %s: %w", s.table, err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO "+quoteIdent(s.table)+" VALUES ("+strings.Join(marks, ", ")+")")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range sheet.Rows {
		args := make([]any, len(sheet.Header))
		for j := range args {
			if j < len(row) {
				args[j] = typedCell(row[j])
			} else {
				args[j] = ""
			}
		}
		if _, err = stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert row %d: %w", i+1, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) tableExists(ctx context.Context) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", s.table).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("lookup table %s: %w", s.table, err)
	}
	return n > 0, nil
}

// columnType gives the required numeric columns integer affinity and
// leaves everything else as text.
func columnType(col string) string {
	switch col {
	case model.ColYear, model.ColGold, model.ColSilver, model.ColBronze, model.ColTotal:
		return "INTEGER"
	default:
		return "TEXT"
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
