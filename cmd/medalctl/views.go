package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/okian/medalboard/internal/domain/filter"
	"github.com/okian/medalboard/internal/domain/model"
	"github.com/okian/medalboard/internal/domain/normalize"
	"github.com/okian/medalboard/internal/domain/views"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	headStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	boxStyle   = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
)

type viewsOptions struct {
	years     string
	countries []string
	asJSON    bool
}

func newViewsCmd() *cobra.Command {
	var opts viewsOptions
	cmd := &cobra.Command{
		Use:   "views",
		Short: "Load the table once and print the dashboard views",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			ctx, cancel := e.withTimeout(cmd.Context())
			defer cancel()
			table, err := loadTable(ctx, e)
			if err != nil {
				return err
			}
			sel, err := opts.selection(cmd, filter.DomainOf(table))
			if err != nil {
				return err
			}
			dash := views.Build(filter.Apply(table, sel), e.cfg.TopN)
			if opts.asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(dash)
			}
			renderDashboard(cmd.OutOrStdout(), dash)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.years, "years", "", "Comma separated years (default: all)")
	cmd.Flags().StringArrayVar(&opts.countries, "countries", nil, "Country to include; repeat for more (default: all)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print views as JSON")
	return cmd
}

// selection maps the flags onto the same rules as the HTTP query string:
// an unset flag selects the whole domain.
func (o viewsOptions) selection(cmd *cobra.Command, d filter.Domain) (filter.Selection, error) {
	q := url.Values{}
	if cmd.Flags().Changed("years") {
		q["years"] = []string{o.years}
	}
	if cmd.Flags().Changed("countries") {
		q["countries"] = o.countries
	}
	sel, err := filter.Parse(q, d)
	if err != nil {
		return filter.Selection{}, fmt.Errorf("--years %q: %w", o.years, err)
	}
	return sel, nil
}

func loadTable(ctx context.Context, e *env) (model.Table, error) {
	sheet, err := e.store.Fetch(ctx)
	if err != nil {
		return model.Table{}, normalize.NewFetchError(err)
	}
	return normalize.Normalize(sheet)
}

func renderDashboard(w io.Writer, d views.Dashboard) {
	sections := []string{
		titleStyle.Render("Asian Games Medal Dashboard") + mutedStyle.Render(fmt.Sprintf("  %d rows", d.Rows)),
		box(d.Titles.Bar, renderBar(d.Bar)),
		box(d.Titles.Trend, renderTrend(d.Trend)),
		box(d.Titles.Top, renderTop(d.Top.Ranked)),
		box(d.Titles.Heatmap, renderHeatmap(d.Heatmap)),
		box(d.Titles.Treemap, renderTreemap(d.Treemap)),
	}
	fmt.Fprintln(w, lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func box(title, body string) string {
	return boxStyle.Render(headStyle.Render(title) + "\n" + body)
}

func renderBar(b views.Bar) string {
	if len(b.Points) == 0 {
		return mutedStyle.Render("no data")
	}
	var sb strings.Builder
	for _, y := range b.Frames {
		sb.WriteString(strconv.Itoa(y))
		sb.WriteString(": ")
		parts := make([]string, 0)
		for _, p := range b.Points {
			if p.Year == y {
				parts = append(parts, fmt.Sprintf("%s %d", p.Country, p.Total))
			}
		}
		sb.WriteString(strings.Join(parts, ", "))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// renderTrend folds the long trend rows back into one line per country and
// year, with a column per medal.
func renderTrend(points []views.TrendPoint) string {
	if len(points) == 0 {
		return mutedStyle.Render("no data")
	}
	type key struct {
		country string
		year    int
	}
	var order []key
	counts := make(map[key]map[string]int)
	for _, p := range points {
		k := key{p.Country, p.Year}
		if counts[k] == nil {
			counts[k] = make(map[string]int, len(views.Medals))
			order = append(order, k)
		}
		counts[k][p.Medal] += p.Count
	}
	sort.SliceStable(order, func(i, j int) bool {
		if order[i].country != order[j].country {
			return order[i].country < order[j].country
		}
		return order[i].year < order[j].year
	})

	head := append([]string{"Country", "Year"}, views.Medals...)
	rows := [][]string{head}
	for _, k := range order {
		row := []string{k.country, strconv.Itoa(k.year)}
		for _, m := range views.Medals {
			row = append(row, strconv.Itoa(counts[k][m]))
		}
		rows = append(rows, row)
	}
	return grid(rows)
}

func renderTop(ranked []views.CountryMedals) string {
	rows := [][]string{{"#", "Country", "Gold", "Silver", "Bronze", "Total"}}
	for i, g := range ranked {
		rows = append(rows, []string{
			strconv.Itoa(i + 1), g.Country,
			strconv.Itoa(g.Gold), strconv.Itoa(g.Silver), strconv.Itoa(g.Bronze), strconv.Itoa(g.Total),
		})
	}
	return grid(rows)
}

func renderHeatmap(m views.Matrix) string {
	if len(m.Countries) == 0 {
		return mutedStyle.Render("no data")
	}
	head := []string{"Country"}
	for _, y := range m.Years {
		head = append(head, strconv.Itoa(y))
	}
	rows := [][]string{head}
	for i, c := range m.Countries {
		row := []string{c}
		for _, v := range m.Cells[i] {
			row = append(row, strconv.Itoa(v))
		}
		rows = append(rows, row)
	}
	return grid(rows)
}

func renderTreemap(t views.Treemap) string {
	if t.Year == nil {
		return mutedStyle.Render("no data")
	}
	entries := append([]views.CountryTotal(nil), t.Entries...)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Total > entries[j].Total })
	peak := 0
	for _, e := range entries {
		if e.Total > peak {
			peak = e.Total
		}
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		n := 0
		if peak > 0 {
			n = e.Total * 30 / peak
		}
		rows = append(rows, []string{e.Country, strconv.Itoa(e.Total), strings.Repeat("█", n)})
	}
	return grid(rows)
}

// grid aligns rows into columns using display width.
func grid(rows [][]string) string {
	widths := make([]int, 0)
	for _, r := range rows {
		for i, c := range r {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if w := lipgloss.Width(c); w > widths[i] {
				widths[i] = w
			}
		}
	}
	lines := make([]string, len(rows))
	for i, r := range rows {
		cells := make([]string, len(r))
		for j, c := range r {
			cells[j] = c + strings.Repeat(" ", widths[j]-lipgloss.Width(c))
		}
		lines[i] = strings.TrimRight(strings.Join(cells, "  "), " ")
	}
	return strings.Join(lines, "\n")
}
