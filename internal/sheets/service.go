// Package sheets stores the event table in a Google Sheets worksheet.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Chenyi0309/inventory-dashboard/internal/catalog"
	"github.com/Chenyi0309/inventory-dashboard/internal/domain"
	"github.com/Chenyi0309/inventory-dashboard/internal/normalize"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// ErrNoSpreadsheet is returned when no spreadsheet id was configured.
var ErrNoSpreadsheet = errors.New("no spreadsheet configured")

type Service struct {
	srv           *sheets.Service
	spreadsheetID string
	worksheet     string
}

// NewService authenticates with a service account and binds to one worksheet.
func NewService(ctx context.Context, credentialsJSON []byte, spreadsheetID, worksheet string) (*Service, error) {
	if spreadsheetID == "" {
		return nil, ErrNoSpreadsheet
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service account credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Sheets client: %w", err)
	}

	return &Service{srv: srv, spreadsheetID: spreadsheetID, worksheet: worksheet}, nil
}

func (s *Service) Name() string { return "sheets" }

// Source identifies the worksheet for cache keys.
func (s *Service) Source() string {
	return fmt.Sprintf("sheets:%s/%s", s.spreadsheetID, s.worksheet)
}

// EnsureWorksheet creates the worksheet when missing and writes the header
// row when the sheet is empty.
func (s *Service) EnsureWorksheet(ctx context.Context) error {
	titles, err := s.worksheetTitles(ctx)
	if err != nil {
		return err
	}

	if !containsTitle(titles, s.worksheet) {
		req := &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: s.worksheet},
				},
			}},
		}
		if _, err := s.srv.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
			return fmt.Errorf("unable to add worksheet %s: %w", s.worksheet, err)
		}
		log.Info().Str("worksheet", s.worksheet).Msg("sheets: created worksheet")
	}

	return s.EnsureHeaders(ctx)
}

// EnsureHeaders writes the canonical header row into an empty worksheet.
func (s *Service) EnsureHeaders(ctx context.Context) error {
	resp, err := s.srv.Spreadsheets.Values.Get(s.spreadsheetID, headerRange(s.worksheet)).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to read header row: %w", err)
	}
	if len(resp.Values) > 0 && !isBlankRow(toStrings(resp.Values)[0]) {
		return nil
	}

	header := make([]interface{}, len(normalize.Headers))
	for i, h := range normalize.Headers {
		header[i] = h
	}
	_, err = s.srv.Spreadsheets.Values.Update(s.spreadsheetID, headerRange(s.worksheet), &sheets.ValueRange{
		Values: [][]interface{}{header},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to write header row: %w", err)
	}
	return nil
}

// ListRecords reads every row of the worksheet in sheet order.
func (s *Service) ListRecords(ctx context.Context) ([]domain.Record, error) {
	header, rows, err := s.readTable(ctx, s.worksheet)
	if err != nil {
		return nil, err
	}
	if header == nil {
		return []domain.Record{}, nil
	}

	records, stats := normalize.Table(header, rows)
	log.Debug().
		Int("rows", stats.Rows).
		Int("blank", stats.Blank).
		Str("worksheet", s.worksheet).
		Msg("sheets: read event table")
	return records, nil
}

// AppendRecords appends rows after the last non-empty row.
func (s *Service) AppendRecords(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}

	_, err := s.srv.Spreadsheets.Values.Append(s.spreadsheetID, quoteSheet(s.worksheet), &sheets.ValueRange{
		Values: recordValues(records),
	}).ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to append %d rows: %w", len(records), err)
	}
	return nil
}

// ListCatalog reads the first item-list worksheet that exists.
func (s *Service) ListCatalog(ctx context.Context) ([]domain.CatalogItem, error) {
	titles, err := s.worksheetTitles(ctx)
	if err != nil {
		return nil, err
	}

	for _, name := range catalog.WorksheetNames {
		if !containsTitle(titles, name) {
			continue
		}
		header, rows, err := s.readTable(ctx, name)
		if err != nil {
			return nil, err
		}
		return catalog.FromRows(header, rows).Items(), nil
	}
	return []domain.CatalogItem{}, nil
}

func (s *Service) worksheetTitles(ctx context.Context) ([]string, error) {
	ss, err := s.srv.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to read spreadsheet %s: %w", s.spreadsheetID, err)
	}
	titles := make([]string, 0, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			titles = append(titles, sh.Properties.Title)
		}
	}
	return titles, nil
}

func (s *Service) readTable(ctx context.Context, worksheet string) ([]string, [][]string, error) {
	resp, err := s.srv.Spreadsheets.Values.Get(s.spreadsheetID, quoteSheet(worksheet)).Context(ctx).Do()
	if err != nil {
		return nil, nil, fmt.Errorf("unable to read worksheet %s: %w", worksheet, err)
	}
	values := toStrings(resp.Values)
	if len(values) == 0 {
		return nil, nil, nil
	}
	return values[0], values[1:], nil
}

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func headerRange(name string) string {
	return quoteSheet(name) + "!1:1"
}

func containsTitle(titles []string, want string) bool {
	for _, t := range titles {
		if t == want {
			return true
		}
	}
	return false
}

func toStrings(values [][]interface{}) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		out[i] = make([]string, len(row))
		for j, v := range row {
			if v == nil {
				continue
			}
			out[i][j] = fmt.Sprint(v)
		}
	}
	return out
}

func recordValues(records []domain.Record) [][]interface{} {
	values := make([][]interface{}, len(records))
	for i, rec := range records {
		row := normalize.RecordRow(rec)
		values[i] = make([]interface{}, len(row))
		for j, cell := range row {
			values[i][j] = cell
		}
	}
	return values
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
