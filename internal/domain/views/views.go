// Package views shapes the filtered medal table into render-ready data.
//
// Every builder is a pure function of its input table. An empty table
// yields an empty, well-defined result.
package views

import (
	"fmt"
	"sort"

	"github.com/okian/medalboard/internal/domain/model"
)

// DefaultTopN is the number of countries ranked by TopN when unset.
const DefaultTopN = 3

// Medal names in the order they are reshaped.
const (
	MedalGold   = "Gold"
	MedalSilver = "Silver"
	MedalBronze = "Bronze"
)

// Medals lists the medal kinds in reshape order.
var Medals = []string{MedalGold, MedalSilver, MedalBronze}

// BarPoint is one bar of the animated per-year chart.
type BarPoint struct {
	Country string `json:"country"`
	Year    int    `json:"year"`
	Total   int    `json:"total"`
}

// Bar holds the animated bar chart data and its frame order.
type Bar struct {
	Points []BarPoint `json:"points"`
	Frames []int      `json:"frames"`
}

// TrendPoint is one long-form row of the medal trend chart.
type TrendPoint struct {
	Year    int    `json:"year"`
	Country string `json:"country"`
	Medal   string `json:"medal"`
	Count   int    `json:"count"`
}

// CountryMedals is a per-country sum over the filtered years.
type CountryMedals struct {
	Country string `json:"country"`
	Gold    int    `json:"gold"`
	Silver  int    `json:"silver"`
	Bronze  int    `json:"bronze"`
	Total   int    `json:"total"`
}

// MedalCount is one long-form row of the grouped top-N chart.
type MedalCount struct {
	Country string `json:"country"`
	Medal   string `json:"medal"`
	Count   int    `json:"count"`
}

// RadarSeries is one closed polygon of the radial top-N chart.
type RadarSeries struct {
	Country string   `json:"country"`
	Axes    []string `json:"axes"`
	Values  []int    `json:"values"`
}

// Top bundles the ranked groups with both render shapes.
type Top struct {
	Ranked []CountryMedals `json:"ranked"`
	Long   []MedalCount    `json:"long"`
	Radar  []RadarSeries   `json:"radar"`
}

// Matrix is a dense country by year grid of totals.
type Matrix struct {
	Countries []string `json:"countries"`
	Years     []int    `json:"years"`
	Cells     [][]int  `json:"cells"`
}

// CountryTotal is one leaf of the latest-year treemap.
type CountryTotal struct {
	Country string `json:"country"`
	Total   int    `json:"total"`
}

// Treemap holds the latest-year subset. Year is nil when there is no data.
type Treemap struct {
	Year    *int           `json:"year"`
	Entries []CountryTotal `json:"entries"`
}

// BarFrames passes country, year and total through unchanged. Rows sharing
// a (country, year) pair are all kept.
func BarFrames(t model.Table) Bar {
	b := Bar{Points: make([]BarPoint, 0, t.Len()), Frames: []int{}}
	seen := make(map[int]struct{})
	for _, r := range t.Records {
		b.Points = append(b.Points, BarPoint{Country: r.Country, Year: r.Year, Total: r.Total})
		if _, ok := seen[r.Year]; !ok {
			seen[r.Year] = struct{}{}
			b.Frames = append(b.Frames, r.Year)
		}
	}
	sort.Ints(b.Frames)
	return b
}

// Trend reshapes each row into one Gold, one Silver and one Bronze row.
func Trend(t model.Table) []TrendPoint {
	out := make([]TrendPoint, 0, 3*t.Len())
	for _, r := range t.Records {
		for _, m := range Medals {
			out = append(out, TrendPoint{Year: r.Year, Country: r.Country, Medal: m, Count: medal(r, m)})
		}
	}
	return out
}

// TopN sums medals per country over all filtered years and returns the n
// countries with the highest total. Ties keep the order in which the
// countries first appear in t. The total is recomputed from the medal
// sums rather than taken from the Total column.
func TopN(t model.Table, n int) []CountryMedals {
	if n <= 0 {
		n = DefaultTopN
	}

	groups := make([]CountryMedals, 0)
	pos := make(map[string]int)
	for _, r := range t.Records {
		i, ok := pos[r.Country]
		if !ok {
			i = len(groups)
			pos[r.Country] = i
			groups = append(groups, CountryMedals{Country: r.Country})
		}
		groups[i].Gold += r.Gold
		groups[i].Silver += r.Silver
		groups[i].Bronze += r.Bronze
	}
	for i := range groups {
		groups[i].Total = groups[i].Gold + groups[i].Silver + groups[i].Bronze
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Total > groups[j].Total
	})
	if len(groups) > n {
		groups = groups[:n]
	}
	return groups
}

// TopNLong melts ranked groups into country, medal, count rows.
func TopNLong(ranked []CountryMedals) []MedalCount {
	out := make([]MedalCount, 0, 3*len(ranked))
	for _, m := range Medals {
		for _, g := range ranked {
			out = append(out, MedalCount{Country: g.Country, Medal: m, Count: groupMedal(g, m)})
		}
	}
	return out
}

// TopNRadar exposes one medal series per ranked country.
func TopNRadar(ranked []CountryMedals) []RadarSeries {
	out := make([]RadarSeries, 0, len(ranked))
	for _, g := range ranked {
		out = append(out, RadarSeries{
			Country: g.Country,
			Axes:    Medals,
			Values:  []int{g.Gold, g.Silver, g.Bronze},
		})
	}
	return out
}

// Heatmap pivots totals into a sorted country by sorted year grid. Pairs
// with no rows are zero.
func Heatmap(t model.Table) Matrix {
	countryIdx := make(map[string]int)
	yearIdx := make(map[int]int)
	m := Matrix{Countries: []string{}, Years: []int{}, Cells: [][]int{}}
	for _, r := range t.Records {
		if _, ok := countryIdx[r.Country]; !ok {
			countryIdx[r.Country] = 0
			m.Countries = append(m.Countries, r.Country)
		}
		if _, ok := yearIdx[r.Year]; !ok {
			yearIdx[r.Year] = 0
			m.Years = append(m.Years, r.Year)
		}
	}
	sort.Strings(m.Countries)
	sort.Ints(m.Years)
	for i, c := range m.Countries {
		countryIdx[c] = i
	}
	for j, y := range m.Years {
		yearIdx[y] = j
	}

	m.Cells = make([][]int, len(m.Countries))
	for i := range m.Cells {
		m.Cells[i] = make([]int, len(m.Years))
	}
	for _, r := range t.Records {
		m.Cells[countryIdx[r.Country]][yearIdx[r.Year]] += r.Total
	}
	return m
}

// Latest keeps the rows of the most recent year, as country and total
// pairs in table order.
func Latest(t model.Table) Treemap {
	tm := Treemap{Entries: []CountryTotal{}}
	if t.Empty() {
		return tm
	}
	latest := t.Records[0].Year
	for _, r := range t.Records[1:] {
		if r.Year > latest {
			latest = r.Year
		}
	}
	tm.Year = &latest
	for _, r := range t.Records {
		if r.Year == latest {
			tm.Entries = append(tm.Entries, CountryTotal{Country: r.Country, Total: r.Total})
		}
	}
	return tm
}

// Titles are the chart headings shown by the dashboard.
type Titles struct {
	Bar     string `json:"bar"`
	Trend   string `json:"trend"`
	Top     string `json:"top"`
	Heatmap string `json:"heatmap"`
	Treemap string `json:"treemap"`
}

// TitlesFor returns the chart headings for a top-N size and the latest
// year shown by the treemap, which may be nil.
func TitlesFor(topN int, latest *int) Titles {
	t := Titles{
		Bar:     "Total Medals per Country (Animated by Year)",
		Trend:   "Medal Count over the Years by Country",
		Top:     fmt.Sprintf("Top %d Countries by Total Medals (Filtered Years)", topN),
		Heatmap: "Total Medals per Country and Year",
		Treemap: "Medal Dominance",
	}
	if latest != nil {
		t.Treemap = fmt.Sprintf("Medal Dominance - Year %d", *latest)
	}
	return t
}

// Dashboard carries every view for one selection.
type Dashboard struct {
	Rows    int          `json:"rows"`
	Bar     Bar          `json:"bar"`
	Trend   []TrendPoint `json:"trend"`
	Top     Top          `json:"top"`
	Heatmap Matrix       `json:"heatmap"`
	Treemap Treemap      `json:"treemap"`
	Titles  Titles       `json:"titles"`
}

// Build runs all five builders over t.
func Build(t model.Table, topN int) Dashboard {
	if topN <= 0 {
		topN = DefaultTopN
	}
	ranked := TopN(t, topN)
	d := Dashboard{
		Rows:    t.Len(),
		Bar:     BarFrames(t),
		Trend:   Trend(t),
		Top:     Top{Ranked: ranked, Long: TopNLong(ranked), Radar: TopNRadar(ranked)},
		Heatmap: Heatmap(t),
		Treemap: Latest(t),
	}
	d.Titles = TitlesFor(topN, d.Treemap.Year)
	return d
}

func medal(r model.Record, m string) int {
	switch m {
	case MedalGold:
		return r.Gold
	case MedalSilver:
		return r.Silver
	default:
		return r.Bronze
	}
}

func groupMedal(g CountryMedals, m string) int {
	switch m {
	case MedalGold:
		return g.Gold
	case MedalSilver:
		return g.Silver
	default:
		return g.Bronze
	}
}
