// Package filter selects the working subset of the medal table.
package filter

import (
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/okian/medalboard/internal/domain/model"
)

// ErrInvalidYear is returned when a year in a selection is not an integer.
var ErrInvalidYear = errors.New("invalid year in selection")

// Selection is the set of years and countries a user picked.
type Selection struct {
	Years     map[int]struct{}
	Countries map[string]struct{}
}

// NewSelection builds a selection from slices.
func NewSelection(years []int, countries []string) Selection {
	s := Selection{
		Years:     make(map[int]struct{}, len(years)),
		Countries: make(map[string]struct{}, len(countries)),
	}
	for _, y := range years {
		s.Years[y] = struct{}{}
	}
	for _, c := range countries {
		s.Countries[c] = struct{}{}
	}
	return s
}

// Match reports whether r falls inside the selection.
// Records without a derivable country never match.
func (s Selection) Match(r model.Record) bool {
	if !r.HasCountry {
		return false
	}
	if _, ok := s.Years[r.Year]; !ok {
		return false
	}
	_, ok := s.Countries[r.Country]
	return ok
}

// Domain lists the distinct values a selection can draw from.
type Domain struct {
	Years     []int    `json:"years"`
	Countries []string `json:"countries"`
}

// DomainOf returns the sorted distinct years and defined countries of t.
func DomainOf(t model.Table) Domain {
	years := make(map[int]struct{})
	countries := make(map[string]struct{})
	for _, r := range t.Records {
		years[r.Year] = struct{}{}
		if r.HasCountry {
			countries[r.Country] = struct{}{}
		}
	}

	d := Domain{
		Years:     make([]int, 0, len(years)),
		Countries: make([]string, 0, len(countries)),
	}
	for y := range years {
		d.Years = append(d.Years, y)
	}
	for c := range countries {
		d.Countries = append(d.Countries, c)
	}
	sort.Ints(d.Years)
	sort.Strings(d.Countries)
	return d
}

// All selects the whole domain.
func (d Domain) All() Selection {
	return NewSelection(d.Years, d.Countries)
}

// Apply returns the records of t that match s, in their original order.
// t is not modified.
func Apply(t model.Table, s Selection) model.Table {
	out := make([]model.Record, 0, len(t.Records))
	for _, r := range t.Records {
		if s.Match(r) {
			out = append(out, r.Clone())
		}
	}
	return t.WithRecords(out)
}

// Parse reads a selection from the query parameters "years" and
// "countries". A missing parameter selects the full domain; a present but
// empty one selects nothing. Years may be repeated or comma separated;
// countries only repeated, since names may contain commas.
func Parse(q url.Values, d Domain) (Selection, error) {
	years := d.Years
	if q.Has("years") {
		years = nil
		for _, v := range q["years"] {
			for _, part := range strings.Split(v, ",") {
				if part = strings.TrimSpace(part); part == "" {
					continue
				}
				y, err := strconv.Atoi(part)
				if err != nil {
					return Selection{}, ErrInvalidYear
				}
				years = append(years, y)
			}
		}
	}

	countries := d.Countries
	if q.Has("countries") {
		countries = nil
		for _, v := range q["countries"] {
			if v = strings.TrimSpace(v); v != "" {
				countries = append(countries, v)
			}
		}
	}
	return NewSelection(years, countries), nil
}
