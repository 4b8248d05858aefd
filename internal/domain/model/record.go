// Package model contains domain models passed between layers.
package model

import "strconv"

// Canonical column names of the medal sheet.
const (
	ColNOC    = "NOC"
	ColYear   = "Year"
	ColGold   = "Gold"
	ColSilver = "Silver"
	ColBronze = "Bronze"
	ColTotal  = "Total"
)

// RequiredColumns lists the columns every medal sheet must carry, in write order.
var RequiredColumns = []string{ColNOC, ColYear, ColGold, ColSilver, ColBronze, ColTotal}

// Sheet is the raw, row-oriented shape exchanged with every store.
// Cells are kept as text; typing happens in the normalizer.
type Sheet struct {
	Header []string
	Rows   [][]string
}

// Record is one normalized row of the medal table.
type Record struct {
	NOC string `json:"noc"`
	// Country is derived from NOC and never persisted.
	Country    string `json:"country,omitempty"`
	HasCountry bool   `json:"-"`
	Year       int    `json:"year"`
	Gold       int    `json:"gold"`
	Silver     int    `json:"silver"`
	Bronze     int    `json:"bronze"`
	// Total is read as-is and not checked against the medal sum.
	Total int `json:"total"`
	// Extra holds passthrough columns keyed by header name.
	Extra map[string]string `json:"extra,omitempty"`
}

// Table is an ordered sequence of records plus the order of passthrough columns.
type Table struct {
	Records []Record
	Extras  []string
}

// Len returns the number of records.
func (t Table) Len() int { return len(t.Records) }

// Empty reports whether the table holds no records.
func (t Table) Empty() bool { return len(t.Records) == 0 }

// WithRecords returns a table sharing t's extra column layout but holding recs.
func (t Table) WithRecords(recs []Record) Table {
	return Table{Records: recs, Extras: t.Extras}
}

// Clone returns a deep copy of the table.
func (t Table) Clone() Table {
	out := Table{
		Records: make([]Record, len(t.Records)),
		Extras:  append([]string(nil), t.Extras...),
	}
	for i, r := range t.Records {
		out.Records[i] = r.Clone()
	}
	return out
}

// Clone returns a copy of the record with its own Extra map.
func (r Record) Clone() Record {
	if r.Extra != nil {
		extra := make(map[string]string, len(r.Extra))
		for k, v := range r.Extra {
			extra[k] = v
		}
		r.Extra = extra
	}
	return r
}

// Sheet encodes the table for write-back. The derived country is dropped.
func (t Table) Sheet() Sheet {
	header := make([]string, 0, len(RequiredColumns)+len(t.Extras))
	header = append(header, RequiredColumns...)
	header = append(header, t.Extras...)

	rows := make([][]string, len(t.Records))
	for i, r := range t.Records {
		row := make([]string, 0, len(header))
		row = append(row,
			r.NOC,
			strconv.Itoa(r.Year),
			strconv.Itoa(r.Gold),
			strconv.Itoa(r.Silver),
			strconv.Itoa(r.Bronze),
			strconv.Itoa(r.Total),
		)
		for _, col := range t.Extras {
			row = append(row, r.Extra[col])
		}
		rows[i] = row
	}
	return Sheet{Header: header, Rows: rows}
}
