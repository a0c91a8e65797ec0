package normalize

import (
	"strings"

	"github.com/Chenyi0309/inventory-dashboard/internal/domain"
	"github.com/shopspring/decimal"
)

// Stats counts what happened while converting a table.
type Stats struct {
	Rows    int `json:"rows"`
	Blank   int `json:"blank"`
	Records int `json:"records"`
}

// Table converts a header row plus data rows into records. Fully blank rows
// are skipped; partial rows are kept with whatever could be parsed so the
// ledger builder can report them.
func Table(header []string, rows [][]string) ([]domain.Record, Stats) {
	idx := ColumnIndex(header)
	records := make([]domain.Record, 0, len(rows))
	stats := Stats{Rows: len(rows)}

	for _, row := range rows {
		if isBlank(row) {
			stats.Blank++
			continue
		}
		records = append(records, Row(idx, row))
	}

	stats.Records = len(records)
	return records, stats
}

// Row converts a single data row using a column index from ColumnIndex.
func Row(idx map[Column]int, row []string) domain.Record {
	cell := func(col Column) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	rec := domain.Record{
		Item:     cell(ColItem),
		Unit:     cell(ColUnit),
		Category: cell(ColCategory),
		Notes:    cell(ColNotes),
	}

	if d, ok := ParseDate(cell(ColDate)); ok {
		rec.Date = d
	}
	if kind, ok := ParseStatus(cell(ColStatus)); ok {
		rec.Kind = kind
	} else {
		rec.Kind = domain.EventKind(strings.ToLower(cell(ColStatus)))
	}

	rec.Quantity = ParseNumber(cell(ColQty))
	rec.UnitPrice = ParseDecimal(cell(ColUnitPrice))
	rec.TotalCost = ParseDecimal(cell(ColTotalCost))
	FillTotalCost(&rec)

	return rec
}

// FillTotalCost sets the total of a purchase to quantity × unit price when
// it is missing.
func FillTotalCost(rec *domain.Record) {
	if rec.Kind != domain.EventPurchase || rec.TotalCost != nil {
		return
	}
	if rec.Quantity == nil || rec.UnitPrice == nil {
		return
	}
	total := rec.UnitPrice.Mul(decimal.NewFromFloat(*rec.Quantity))
	rec.TotalCost = &total
}

// RecordRow renders a record as a row under the canonical headers.
func RecordRow(rec domain.Record) []string {
	row := make([]string, len(Headers))
	if !rec.Date.IsZero() {
		row[ColDate] = rec.Date.Format("2006-01-02")
	}
	row[ColItem] = rec.Item
	row[ColCategory] = rec.Category
	if rec.Quantity != nil {
		row[ColQty] = FormatQuantity(*rec.Quantity)
	}
	row[ColUnit] = rec.Unit
	if rec.UnitPrice != nil {
		row[ColUnitPrice] = rec.UnitPrice.String()
	}
	if rec.TotalCost != nil {
		row[ColTotalCost] = rec.TotalCost.String()
	}
	row[ColStatus] = rec.Kind.Label()
	row[ColNotes] = rec.Notes
	return row
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
