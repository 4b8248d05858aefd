package repository

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/okian/medalboard/internal/domain/model"
)

// spreadsheetIDPattern extracts the ID from a docs.google.com sheet URL.
var spreadsheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9_-]+)`)

// Credentials is a service-account key, given either as a file path or as
// inline JSON (for example from a secret store). JSON wins when both are set.
type Credentials struct {
	File string
	JSON []byte
}

func (c Credentials) load() ([]byte, error) {
	if len(c.JSON) > 0 {
		return c.JSON, nil
	}
	if c.File == "" {
		return nil, fmt.Errorf("%w: no key file or inline key configured", ErrCredentials)
	}
	b, err := os.ReadFile(c.File)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCredentials, err)
	}
	return b, nil
}

// SpreadsheetID accepts either a full sheet URL or a bare ID.
func SpreadsheetID(urlOrID string) (string, error) {
	s := strings.TrimSpace(urlOrID)
	if m := spreadsheetIDPattern.FindStringSubmatch(s); m != nil {
		return m[1], nil
	}
	if s == "" || strings.ContainsAny(s, "/?#") {
		return "", fmt.Errorf("%w: cannot find spreadsheet id in %q", ErrInvalidLocator, urlOrID)
	}
	return s, nil
}

// SheetsStore reads and writes one tab of a Google spreadsheet.
type SheetsStore struct {
	svc           *sheets.Service
	spreadsheetID string
	tab           string
}

// NewSheetsStore authenticates with a service-account key and binds to
// the given spreadsheet tab. An empty tab selects the first one.
func NewSheetsStore(ctx context.Context, urlOrID, tab string, creds Credentials) (*SheetsStore, error) {
	id, err := SpreadsheetID(urlOrID)
	if err != nil {
		return nil, err
	}
	key, err := creds.load()
	if err != nil {
		return nil, err
	}
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsJSON(key),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCredentials, err)
	}
	return &SheetsStore{svc: svc, spreadsheetID: id, tab: tab}, nil
}

// Name implements Store.
func (s *SheetsStore) Name() string { return KindSheets }

// Fetch implements Store.
func (s *SheetsStore) Fetch(ctx context.Context) (model.Sheet, error) {
	tab, err := s.resolveTab(ctx)
	if err != nil {
		return model.Sheet{}, err
	}
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, quoteTab(tab)).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return model.Sheet{}, fmt.Errorf("read %s: %w", tab, err)
	}
	if len(resp.Values) == 0 {
		return model.Sheet{}, nil
	}

	out := model.Sheet{Header: textRow(resp.Values[0])}
	for _, row := range resp.Values[1:] {
		out.Rows = append(out.Rows, textRow(row))
	}
	return out, nil
}

// Replace implements Store. The tab is cleared and rewritten from A1.
func (s *SheetsStore) Replace(ctx context.Context, sheet model.Sheet) error {
	tab, err := s.resolveTab(ctx)
	if err != nil {
		return err
	}

	values := make([][]interface{}, 0, len(sheet.Rows)+1)
	header := make([]interface{}, len(sheet.Header))
	for i, h := range sheet.Header {
		header[i] = h
	}
	values = append(values, header)
	for _, row := range sheet.Rows {
		cells := make([]interface{}, len(row))
		for i, c := range row {
			cells[i] = typedCell(c)
		}
		values = append(values, cells)
	}

	if _, err := s.svc.Spreadsheets.Values.Clear(s.spreadsheetID, quoteTab(tab), &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do(); err != nil {
		return fmt.Errorf("clear %s: %w", tab, err)
	}
	if _, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, quoteTab(tab)+"!A1", &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do(); err != nil {
		return fmt.Errorf("write %s: %w", tab, err)
	}
	return nil
}

// resolveTab returns the configured tab or the spreadsheet's first tab.
func (s *SheetsStore) resolveTab(ctx context.Context) (string, error) {
	if s.tab != "" {
		return s.tab, nil
	}
	ss, err := s.svc.Spreadsheets.Get(s.spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("lookup spreadsheet: %w", err)
	}
	if len(ss.Sheets) == 0 || ss.Sheets[0].Properties == nil {
		return "", fmt.Errorf("%w: spreadsheet has no tabs", ErrNotFound)
	}
	s.tab = ss.Sheets[0].Properties.Title
	return s.tab, nil
}

// quoteTab quotes a tab title for A1 notation.
func quoteTab(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}

func textRow(cells []interface{}) []string {
	row := make([]string, len(cells))
	for i, c := range cells {
		row[i] = cellText(c)
	}
	return row
}
