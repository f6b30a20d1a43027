// Package google keeps record collections in the tabs of a Google
// Sheets spreadsheet: a header row followed by one row per record.
package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/store"
)

const columns = "A:D"

// Credentials selects the service account used to reach the spreadsheet.
// JSON takes precedence over File.
type Credentials struct {
	JSON string
	File string
}

func (c Credentials) load() ([]byte, error) {
	switch {
	case strings.TrimSpace(c.JSON) != "":
		return []byte(c.JSON), nil
	case strings.TrimSpace(c.File) != "":
		data, err := os.ReadFile(c.File)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials")
	}
}

// Client is a spreadsheet holding one tab per record collection.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	logger        *log.Logger
}

// NewClient authenticates with a service account. Extra options are
// appended after the credentials, which lets tests point at a fake server.
func NewClient(ctx context.Context, spreadsheetID string, creds Credentials, logger *log.Logger, opts ...goption.ClientOption) (*Client, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	credentialsJSON, err := creds.load()
	if err != nil {
		return nil, err
	}
	all := append([]goption.ClientOption{
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	}, opts...)
	svc, err := gsheet.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, spreadsheetID, logger), nil
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID string, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, logger: logger.WithComponent(log.ComponentSheets)}
}

// Ping checks that the spreadsheet is reachable with the configured
// credentials.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("spreadsheetId").Context(ctx).Do(); err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}
	return nil
}

// Sheet returns the collection kept in the named tab.
func (c *Client) Sheet(name string) *Sheet {
	return &Sheet{client: c, name: name}
}

// Sheet is one tab of the spreadsheet.
type Sheet struct {
	client *Client
	name   string
}

var (
	_ store.RecordStore = (*Sheet)(nil)
	_ store.Appender    = (*Sheet)(nil)
)

func (s *Sheet) rng(cells string) string {
	return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(s.name, "'", "''"), cells)
}

// Load reads the tab. A missing tab or a malformed table yields an empty
// collection.
func (s *Sheet) Load(ctx context.Context) ([]core.Record, error) {
	resp, err := s.client.svc.Spreadsheets.Values.Get(s.client.spreadsheetID, s.rng(columns)).Context(ctx).Do()
	if err != nil {
		if isMissingRange(err) {
			s.client.logger.WarnContext(ctx, "Sheet not found, treating as empty", "sheet", s.name, "error", err)
			return []core.Record{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", s.name, err)
	}

	records, err := store.DecodeRows(toStrings(resp.Values))
	if err != nil {
		s.client.logger.WarnContext(ctx, "Ignoring malformed sheet", "sheet", s.name, "error", err)
		return []core.Record{}, nil
	}
	return records, nil
}

// Save clears the tab and writes the header and records, creating the tab
// when needed.
func (s *Sheet) Save(ctx context.Context, records []core.Record) error {
	if err := s.ensureTab(ctx); err != nil {
		return err
	}
	if _, err := s.client.svc.Spreadsheets.Values.Clear(s.client.spreadsheetID, s.rng(columns), &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", s.name, err)
	}

	vr := &gsheet.ValueRange{Values: toCells(store.EncodeRows(records))}
	_, err := s.client.svc.Spreadsheets.Values.Update(s.client.spreadsheetID, s.rng("A1"), vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write %s: %w", s.name, err)
	}
	s.client.logger.DebugContext(ctx, "Records saved", "sheet", s.name, log.FieldRecordCount, len(records))
	return nil
}

// AppendRecord adds one row after the last one, writing the header first
// when the tab is empty.
func (s *Sheet) AppendRecord(ctx context.Context, r core.Record) error {
	if err := s.ensureTab(ctx); err != nil {
		return err
	}
	head, err := s.client.svc.Spreadsheets.Values.Get(s.client.spreadsheetID, s.rng("A1:D1")).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read %s header: %w", s.name, err)
	}

	rows := store.EncodeRows([]core.Record{r})
	if len(head.Values) > 0 {
		rows = rows[1:]
	}
	vr := &gsheet.ValueRange{Values: toCells(rows)}
	resp, err := s.client.svc.Spreadsheets.Values.Append(s.client.spreadsheetID, s.rng(columns), vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", s.name, err)
	}

	ref := ""
	if resp.Updates != nil {
		ref = resp.Updates.UpdatedRange
	}
	s.client.logger.DebugContext(ctx, "Record appended", "sheet", s.name, "range", ref)
	return nil
}

func (s *Sheet) ensureTab(ctx context.Context) error {
	ss, err := s.client.svc.Spreadsheets.Get(s.client.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == s.name {
			return nil
		}
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: s.name}},
		}},
	}
	if _, err := s.client.svc.Spreadsheets.BatchUpdate(s.client.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("create sheet %s: %w", s.name, err)
	}
	s.client.logger.InfoContext(ctx, "Sheet created", "sheet", s.name)
	return nil
}

// isMissingRange reports the error Sheets returns for an unknown tab.
func isMissingRange(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	return gerr.Code == http.StatusBadRequest || gerr.Code == http.StatusNotFound
}

func toStrings(values [][]interface{}) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = fmt.Sprint(v)
		}
		out[i] = cells
	}
	return out
}

func toCells(rows [][]string) [][]interface{} {
	out := make([][]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		out[i] = cells
	}
	return out
}
