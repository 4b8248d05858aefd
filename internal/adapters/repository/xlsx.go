package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/okian/medalboard/internal/domain/model"
)

// defaultSheetName is the worksheet excelize creates in a new workbook.
const defaultSheetName = "Sheet1"

// XLSXStore keeps the table on one worksheet of a local workbook. Other
// worksheets in the workbook are left alone.
type XLSXStore struct {
	path  string
	sheet string
}

// NewXLSXStore creates a store over the workbook at path. An empty sheet
// name selects the first worksheet on read and "Sheet1" on first write.
func NewXLSXStore(path, sheet string) *XLSXStore {
	return &XLSXStore{path: path, sheet: sheet}
}

// Name implements Store.
func (s *XLSXStore) Name() string { return KindXLSX }

// Fetch implements Store.
func (s *XLSXStore) Fetch(ctx context.Context) (model.Sheet, error) {
	if err := ctx.Err(); err != nil {
		return model.Sheet{}, err
	}
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.Sheet{}, fmt.Errorf("%w: %s", ErrNotFound, s.path)
		}
		return model.Sheet{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	name, err := s.resolveSheet(f)
	if err != nil {
		return model.Sheet{}, err
	}
	rows, err := f.GetRows(name)
	if err != nil {
		return model.Sheet{}, fmt.Errorf("read sheet %q: %w", name, err)
	}
	if len(rows) == 0 {
		return model.Sheet{}, nil
	}
	return model.Sheet{Header: rows[0], Rows: rows[1:]}, nil
}

// Replace implements Store. The workbook is written to a temporary file
// and renamed over the original.
func (s *XLSXStore) Replace(ctx context.Context, sheet model.Sheet) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	created := false
	f, err := excelize.OpenFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		f, created = excelize.NewFile(), true
	case err != nil:
		return fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	name := s.sheet
	if name == "" {
		name = f.GetSheetName(0)
	}
	idx, err := f.GetSheetIndex(name)
	if err != nil {
		return fmt.Errorf("lookup sheet %q: %w", name, err)
	}
	if idx < 0 {
		if idx, err = f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %q: %w", name, err)
		}
	} else if err := clearSheet(f, name); err != nil {
		return err
	}
	if created && name != defaultSheetName {
		if err := f.DeleteSheet(defaultSheetName); err != nil {
			return fmt.Errorf("drop default sheet: %w", err)
		}
		if idx, err = f.GetSheetIndex(name); err != nil {
			return fmt.Errorf("lookup sheet %q: %w", name, err)
		}
	}
	f.SetActiveSheet(idx)

	if err := writeRow(f, name, 1, sheet.Header); err != nil {
		return err
	}
	for i, row := range sheet.Rows {
		if err := writeRow(f, name, i+2, row); err != nil {
			return err
		}
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	tmp := filepath.Join(dir, ".tmp-"+filepath.Base(s.path))
	if err := f.SaveAs(tmp); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("save workbook: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace workbook: %w", err)
	}
	return nil
}

func (s *XLSXStore) resolveSheet(f *excelize.File) (string, error) {
	if s.sheet == "" {
		list := f.GetSheetList()
		if len(list) == 0 {
			return "", fmt.Errorf("%w: workbook has no sheets", ErrNotFound)
		}
		return list[0], nil
	}
	idx, err := f.GetSheetIndex(s.sheet)
	if err != nil || idx < 0 {
		return "", fmt.Errorf("%w: sheet %q", ErrNotFound, s.sheet)
	}
	return s.sheet, nil
}

func clearSheet(f *excelize.File, name string) error {
	rows, err := f.GetRows(name)
	if err != nil {
		return fmt.Errorf("read sheet %q: %w", name, err)
	}
	for r := len(rows); r >= 1; r-- {
		if err := f.RemoveRow(name, r); err != nil {
			return fmt.Errorf("clear sheet %q: %w", name, err)
		}
	}
	return nil
}

func writeRow(f *excelize.File, name string, rowNum int, cells []string) error {
	values := make([]any, len(cells))
	for i, c := range cells {
		values[i] = typedCell(c)
	}
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(name, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", rowNum, err)
	}
	return nil
}
