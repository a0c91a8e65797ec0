// Package ingest reads ledger files exported from spreadsheets.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Chenyi0309/inventory-dashboard/internal/domain"
	"github.com/Chenyi0309/inventory-dashboard/internal/normalize"
	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ReadFile reads a CSV or XLSX ledger and normalizes its rows.
func ReadFile(path string) ([]domain.Record, normalize.Stats, error) {
	header, rows, err := ReadTable(path)
	if err != nil {
		return nil, normalize.Stats{}, err
	}
	records, stats := normalize.Table(header, rows)
	return records, stats, nil
}

// ReadTable returns the header and data rows of a CSV or XLSX file.
func ReadTable(path string) ([]string, [][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open csv file %s: %w", path, err)
		}
		defer f.Close()
		return ReadCSV(f)
	case ".xlsx":
		return ReadXLSX(path, "")
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
	}
}

// ReadCSV reads a header row and the data rows after it.
func ReadCSV(r io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read csv row: %w", err)
		}
		rows = append(rows, row)
	}

	return header, rows, nil
}

// ReadXLSX reads the named sheet, or the first sheet when sheet is empty.
// Cells are returned unformatted, so dates arrive as Excel serials and
// percentages as fractions.
func ReadXLSX(path, sheet string) ([]string, [][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open xlsx file %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, nil, fmt.Errorf("xlsx file %s has no sheets", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read rows from sheet %s: %w", sheet, err)
	}
	defer rows.Close()

	var (
		header []string
		data   [][]string
	)
	for rows.Next() {
		record, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read row from %s: %w", path, err)
		}
		if header == nil {
			header = record
			continue
		}
		data = append(data, record)
	}

	if err := rows.Error(); err != nil {
		return nil, nil, fmt.Errorf("error iterating rows in %s: %w", path, err)
	}

	return header, data, nil
}

// WriteCSV writes records under the canonical headers.
func WriteCSV(w io.Writer, records []domain.Record, withHeader bool) error {
	cw := csv.NewWriter(w)
	if withHeader {
		if err := cw.Write(normalize.Headers); err != nil {
			return fmt.Errorf("failed to write csv header: %w", err)
		}
	}
	for _, rec := range records {
		if err := cw.Write(normalize.RecordRow(rec)); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
