package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/Chenyi0309/inventory-dashboard/internal/forecast"
	"github.com/shopspring/decimal"
)

// ContentType is served for summary downloads.
const ContentType = "text/csv; charset=utf-8"

const utf8BOM = "\ufeff"

// Headers are the summary export columns.
var Headers = []string{
	"食材名称 (Item Name)",
	"分类 (Category)",
	"单位 (Unit)",
	"当前库存 (Current Stock)",
	"近14天用量 (14d Usage)",
	"预计可用天数 (Days Left)",
	"建议补货 (Reorder Qty)",
	"最后剩余日期 (Last Remainder)",
	"最后购入日期 (Last Purchase)",
	"最后购入数量 (Last Purchase Qty)",
	"最后单价 (Last Unit Price)",
	"平均购入间隔 (Avg Purchase Interval)",
	"累计支出 (Cumulative Spend)",
	"状态 (Severity)",
}

// WriteSummaries writes one CSV row per summary, prefixed with a UTF-8 BOM so
// spreadsheet apps detect the encoding. Unknown values are empty cells.
func WriteSummaries(w io.Writer, summaries []forecast.ItemSummary) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, s := range summaries {
		if err := cw.Write(summaryRow(s)); err != nil {
			return fmt.Errorf("write row %s: %w", s.Item, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Filename names an export taken at t.
func Filename(t time.Time) string {
	return fmt.Sprintf("inventory_summary_%s.csv", t.Format("20060102_150405"))
}

func summaryRow(s forecast.ItemSummary) []string {
	return []string{
		s.Item,
		s.Category,
		s.Unit,
		floatCell(s.CurrentStock, -1),
		floatCell(s.Usage14d, 2),
		floatCell(s.DaysLeft, 1),
		floatCell(s.ReorderQty, 2),
		dateCell(s.LastRemainderDate),
		dateCell(s.LastPurchaseDate),
		floatCell(s.LastPurchaseQty, -1),
		decimalCell(s.LastPurchasePrice),
		floatCell(s.AvgPurchaseIntervalDays, 1),
		s.CumulativeSpend.StringFixed(2),
		string(s.Severity),
	}
}

func floatCell(v *float64, prec int) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', prec, 64)
}

func dateCell(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func decimalCell(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}
