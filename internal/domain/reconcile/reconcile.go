// Package reconcile writes user edits of the filtered table back to the
// remote store.
package reconcile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okian/medalboard/internal/domain/filter"
	"github.com/okian/medalboard/internal/domain/model"
	"github.com/okian/medalboard/internal/domain/normalize"
)

// Mode decides what happens to rows the active filter hides.
type Mode string

const (
	// ModeOverwrite writes the edited subset as the whole remote table.
	// Rows outside the active filter are lost from the store.
	ModeOverwrite Mode = "overwrite"

	// ModeMerge keeps rows outside the active filter in place and swaps
	// the filtered positions for the edited rows.
	ModeMerge Mode = "merge"
)

// ParseMode accepts "overwrite" or "merge" in any case.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeOverwrite, ModeMerge:
		return m, nil
	case "":
		return ModeMerge, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Result describes a completed save.
type Result struct {
	Rows    int       `json:"rows"`
	Mode    string    `json:"mode"`
	SavedAt time.Time `json:"savedAt"`
}

// Writer is the slice of the table gateway the reconciler needs.
type Writer interface {
	Replace(ctx context.Context, sheet model.Sheet) error
	Name() string
}

// Reconciler turns an edited filtered table into the next remote table.
type Reconciler struct {
	mode Mode
}

// New creates a reconciler for the given mode.
func New(mode Mode) *Reconciler {
	if mode == "" {
		mode = ModeMerge
	}
	return &Reconciler{mode: mode}
}

// Mode returns the configured save mode.
func (r *Reconciler) Mode() Mode { return r.mode }

// Prepare validates edited rows with the loader's rules, re-deriving the
// country of each from its NOC.
func Prepare(edited []model.Record) ([]model.Record, error) {
	out := make([]model.Record, len(edited))
	for i, rec := range edited {
		v, err := normalize.Validate(rec)
		if err != nil {
			return nil, &EditError{Index: i, Err: err}
		}
		out[i] = v
	}
	return out, nil
}

// Plan computes the table that a save would write, without writing it.
func (r *Reconciler) Plan(canonical model.Table, sel filter.Selection, edited []model.Record) model.Table {
	if r.mode == ModeOverwrite {
		return canonical.WithRecords(cloneAll(edited))
	}

	out := make([]model.Record, 0, len(canonical.Records)+len(edited))
	next := 0
	for _, rec := range canonical.Records {
		if !sel.Match(rec) {
			out = append(out, rec.Clone())
			continue
		}
		if next < len(edited) {
			out = append(out, edited[next].Clone())
			next++
		}
	}
	for ; next < len(edited); next++ {
		out = append(out, edited[next].Clone())
	}
	return canonical.WithRecords(out)
}

// Save validates edited, plans the next table and replaces the remote
// table with it. It returns the table that was written. canonical is
// never modified.
func (r *Reconciler) Save(ctx context.Context, w Writer, canonical model.Table, sel filter.Selection, edited []model.Record) (model.Table, error) {
	prepared, err := Prepare(edited)
	if err != nil {
		return model.Table{}, err
	}
	next := r.Plan(canonical, sel, prepared)
	if err := w.Replace(ctx, next.Sheet()); err != nil {
		return model.Table{}, &PersistError{Store: w.Name(), Err: err}
	}
	return next, nil
}

func cloneAll(recs []model.Record) []model.Record {
	out := make([]model.Record, len(recs))
	for i, rec := range recs {
		out[i] = rec.Clone()
	}
	return out
}
