package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/medalboard/internal/adapters/repository"
	"github.com/okian/medalboard/pkg/logger"
)

var errNoTarget = errors.New("exactly one of --to-xlsx or --to-sqlite is required")

type copyOptions struct {
	xlsxPath   string
	sqlitePath string
	table      string
}

func newCopyCmd() *cobra.Command {
	var opts copyOptions
	cmd := &cobra.Command{
		Use:   "copy",
		Short: "Snapshot the configured store into a local xlsx or sqlite file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (opts.xlsxPath == "") == (opts.sqlitePath == "") {
				return errNoTarget
			}
			e, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			ctx, cancel := e.withTimeout(cmd.Context())
			defer cancel()
			dst, err := opts.open(ctx)
			if err != nil {
				return err
			}
			if c, ok := dst.(interface{ Close() error }); ok {
				defer c.Close()
			}
			n, err := copyTable(ctx, e.store, dst)
			if err != nil {
				return err
			}
			e.log.Info(ctx, "store copied",
				logger.String("run", e.runID),
				logger.String("from", e.store.Name()),
				logger.String("to", dst.Name()),
				logger.Int("rows", n))
			fmt.Fprintf(cmd.OutOrStdout(), "copied %d rows from %s to %s\n", n, e.store.Name(), dst.Name())
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.xlsxPath, "to-xlsx", "", "Write the table to this workbook")
	cmd.Flags().StringVar(&opts.sqlitePath, "to-sqlite", "", "Write the table to this sqlite database")
	cmd.Flags().StringVar(&opts.table, "table", "medals", "Table name for --to-sqlite")
	return cmd
}

func (o copyOptions) open(ctx context.Context) (repository.Store, error) {
	loc := repository.Locator{Kind: repository.KindXLSX, XLSXPath: o.xlsxPath}
	if o.sqlitePath != "" {
		loc = repository.Locator{Kind: repository.KindSQLite, SQLitePath: o.sqlitePath, SQLiteTable: o.table}
	}
	return repository.Open(ctx, loc)
}

// copyTable writes src's table to dst verbatim. The sheet is not
// normalized so a backup keeps cells exactly as stored.
func copyTable(ctx context.Context, src, dst repository.Store) (int, error) {
	sheet, err := src.Fetch(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch %s: %w", src.Name(), err)
	}
	if err := dst.Replace(ctx, sheet); err != nil {
		return 0, fmt.Errorf("write %s: %w", dst.Name(), err)
	}
	return len(sheet.Rows), nil
}
