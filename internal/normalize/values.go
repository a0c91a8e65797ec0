package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Chenyi0309/inventory-dashboard/internal/domain"
	"github.com/shopspring/decimal"
)

var statusAliases = map[string]domain.EventKind{
	"买入":        domain.EventPurchase,
	"购买":        domain.EventPurchase,
	"采购":        domain.EventPurchase,
	"进货":        domain.EventPurchase,
	"purchase":  domain.EventPurchase,
	"purchased": domain.EventPurchase,
	"buy":       domain.EventPurchase,
	"bought":    domain.EventPurchase,
	"剩余":        domain.EventRemainder,
	"库存":        domain.EventRemainder,
	"余量":        domain.EventRemainder,
	"余":         domain.EventRemainder,
	"remainder": domain.EventRemainder,
	"remaining": domain.EventRemainder,
	"stock":     domain.EventRemainder,
	"left":      domain.EventRemainder,
}

// ParseStatus maps a status cell to an event kind.
func ParseStatus(s string) (domain.EventKind, bool) {
	kind, ok := statusAliases[strings.ToLower(strings.TrimSpace(s))]
	return kind, ok
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"2006-1-2",
	"2006/1/2",
	"01/02/2006",
	"1/2/2006",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006年1月2日",
}

var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// ParseDate accepts the usual spreadsheet date spellings and Excel serial
// day numbers. The result is a UTC calendar date.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
		}
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 && serial < 2958466 {
		return excelEpoch.AddDate(0, 0, int(math.Floor(serial))), true
	}

	return time.Time{}, false
}

var numberCleaner = strings.NewReplacer(",", "", "，", "", "¥", "", "￥", "", "$", "", "元", "", " ", "")

// ParseNumber reads a numeric cell. "50%" is read as 0.5. Blank or
// unparsable cells give nil.
func ParseNumber(s string) *float64 {
	s = numberCleaner.Replace(strings.TrimSpace(s))
	if s == "" {
		return nil
	}

	percent := strings.HasSuffix(s, "%") || strings.HasSuffix(s, "％")
	if percent {
		s = strings.TrimSuffix(strings.TrimSuffix(s, "%"), "％")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	if percent {
		v /= 100
	}
	return &v
}

// ParseDecimal reads a money cell.
func ParseDecimal(s string) *decimal.Decimal {
	s = numberCleaner.Replace(strings.TrimSpace(s))
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}

// FormatQuantity renders a quantity for a sheet cell.
func FormatQuantity(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
