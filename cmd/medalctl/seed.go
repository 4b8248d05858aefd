package main

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/medalboard/internal/adapters/repository"
	"github.com/okian/medalboard/internal/domain/model"
	"github.com/okian/medalboard/internal/domain/normalize"
	"github.com/okian/medalboard/pkg/logger"
)

// builtinSource selects the embedded sample table.
const builtinSource = "builtin"

//go:embed builtin.csv
var builtinCSV []byte

func newSeedCmd() *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace the configured store's table with a CSV dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sheet, err := readSource(from)
			if err != nil {
				return err
			}
			e, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			ctx, cancel := e.withTimeout(cmd.Context())
			defer cancel()
			n, err := seed(ctx, e.store, sheet)
			if err != nil {
				return err
			}
			e.log.Info(ctx, "store seeded",
				logger.String("run", e.runID),
				logger.String("store", e.store.Name()),
				logger.Int("rows", n))
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d rows into %s\n", n, e.store.Name())
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", builtinSource, `CSV file to load, or "builtin" for the sample table`)
	return cmd
}

// seed validates sheet like a load would and writes it to store.
func seed(ctx context.Context, store repository.Store, sheet model.Sheet) (int, error) {
	t, err := normalize.Normalize(sheet)
	if err != nil {
		return 0, fmt.Errorf("seed data: %w", err)
	}
	if err := store.Replace(ctx, t.Sheet()); err != nil {
		return 0, fmt.Errorf("seed %s: %w", store.Name(), err)
	}
	return t.Len(), nil
}

func readSource(from string) (model.Sheet, error) {
	if from == builtinSource || from == "" {
		return readCSV(bytes.NewReader(builtinCSV))
	}
	f, err := os.Open(from)
	if err != nil {
		return model.Sheet{}, fmt.Errorf("open %s: %w", from, err)
	}
	defer f.Close()
	return readCSV(f)
}

// readCSV reads a header row followed by data rows.
func readCSV(r io.Reader) (model.Sheet, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return model.Sheet{}, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return model.Sheet{}, fmt.Errorf("read csv: no header row")
	}
	return model.Sheet{Header: records[0], Rows: records[1:]}, nil
}
