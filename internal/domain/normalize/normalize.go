// Package normalize turns raw sheet rows into the canonical medal table.
//
// Validation and coercion happen here only; everything downstream works
// on typed model.Record values.
package normalize

import (
	"math"
	"strconv"
	"strings"

	"github.com/okian/medalboard/internal/domain/model"
)

// nocSeparator splits "China (CHN)" into the country name and its code.
const nocSeparator = " ("

// derivedColumns are produced by this package and dropped when read back.
var derivedColumns = map[string]struct{}{"country": {}}

// CountryFromNOC returns the text before the first " (" in noc, ignoring
// surrounding whitespace. ok is false when the pattern is absent and the
// country is undefined.
func CountryFromNOC(noc string) (country string, ok bool) {
	noc = strings.TrimSpace(noc)
	idx := strings.Index(noc, nocSeparator)
	if idx < 0 {
		return "", false
	}
	return noc[:idx], true
}

// ParseYear parses a year cell. Integral floats such as "2018.0" are
// accepted since spreadsheets often export whole numbers that way.
func ParseYear(s string) (int, error) {
	return parseInt(s)
}

// ParseCount parses a medal count cell. Blank cells count as zero.
func ParseCount(s string) (int, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	n, err := parseInt(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, ErrInvalidCount
	}
	return n, nil
}

func parseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
		return 0, strconv.ErrSyntax
	}
	// Beyond int32 the conversion is no longer exact on every platform.
	if f < math.MinInt32 || f > math.MaxInt32 {
		return 0, strconv.ErrRange
	}
	return int(f), nil
}

// Normalize converts a fetched sheet into the canonical table.
//
// Entirely blank rows are dropped. A row whose NOC lacks the "Name (CODE)"
// pattern is kept with an undefined country. Any non-integer year or
// invalid medal count fails the whole load.
func Normalize(sheet model.Sheet) (model.Table, error) {
	idx, extras, err := indexHeader(sheet.Header)
	if err != nil {
		return model.Table{}, err
	}

	records := make([]model.Record, 0, len(sheet.Rows))
	for i, row := range sheet.Rows {
		if blank(row) {
			continue
		}
		rowNum := i + 2
		cell := func(col string) string {
			j := idx[col]
			if j >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[j])
		}

		// NOC is kept as stored so an untouched row is written back unchanged.
		var rec model.Record
		if j := idx[model.ColNOC]; j < len(row) {
			rec.NOC = row[j]
		}
		rec.Country, rec.HasCountry = CountryFromNOC(rec.NOC)

		yearStr := cell(model.ColYear)
		year, err := ParseYear(yearStr)
		if err != nil {
			return model.Table{}, &LoadError{Row: rowNum, Column: model.ColYear, Value: yearStr, Err: ErrInvalidYear}
		}
		rec.Year = year

		for _, c := range []struct {
			col string
			dst *int
		}{
			{model.ColGold, &rec.Gold},
			{model.ColSilver, &rec.Silver},
			{model.ColBronze, &rec.Bronze},
			{model.ColTotal, &rec.Total},
		} {
			v := cell(c.col)
			n, err := ParseCount(v)
			if err != nil {
				return model.Table{}, &LoadError{Row: rowNum, Column: c.col, Value: v, Err: ErrInvalidCount}
			}
			*c.dst = n
		}

		for _, e := range extras {
			if e.index < len(row) && row[e.index] != "" {
				if rec.Extra == nil {
					rec.Extra = make(map[string]string, len(extras))
				}
				rec.Extra[e.name] = row[e.index]
			}
		}
		records = append(records, rec)
	}

	names := make([]string, len(extras))
	for i, e := range extras {
		names[i] = e.name
	}
	return model.Table{Records: records, Extras: names}, nil
}

// Validate re-derives and checks a record supplied by an editor using the
// same rules the loader applies.
func Validate(r model.Record) (model.Record, error) {
	r = r.Clone()
	r.Country, r.HasCountry = CountryFromNOC(r.NOC)
	for _, c := range []struct {
		col string
		v   int
	}{
		{model.ColGold, r.Gold},
		{model.ColSilver, r.Silver},
		{model.ColBronze, r.Bronze},
		{model.ColTotal, r.Total},
	} {
		if c.v < 0 {
			return model.Record{}, &LoadError{Column: c.col, Value: strconv.Itoa(c.v), Err: ErrInvalidCount}
		}
	}
	return r, nil
}

type extraColumn struct {
	name  string
	index int
}

func indexHeader(header []string) (map[string]int, []extraColumn, error) {
	required := make(map[string]string, len(model.RequiredColumns))
	for _, col := range model.RequiredColumns {
		required[strings.ToLower(col)] = col
	}

	idx := make(map[string]int, len(model.RequiredColumns))
	var extras []extraColumn
	seen := make(map[string]struct{}, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		key := strings.ToLower(name)
		if name == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if col, ok := required[key]; ok {
			idx[col] = i
			continue
		}
		if _, ok := derivedColumns[key]; ok {
			continue
		}
		extras = append(extras, extraColumn{name: name, index: i})
	}

	for _, col := range model.RequiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, nil, &LoadError{Column: col, Err: ErrMissingColumn}
		}
	}
	return idx, extras, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
