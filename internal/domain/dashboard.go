package domain

import "github.com/shopspring/decimal"

// DashboardKPIs represents the metric cards above the inventory table
type DashboardKPIs struct {
	TotalItems   int             `json:"total_items"`
	TotalSpend   decimal.Decimal `json:"total_spend"`
	LowStock     int             `json:"low_stock"`
	WithUsage    int             `json:"with_usage"`
	UnknownItems int             `json:"unknown_items"`
}

// EntryStatus is the outcome of a single line in a batch entry
type EntryStatus string

const (
	EntryOK     EntryStatus = "ok"
	EntryFailed EntryStatus = "failed"
)

// EntryLine is one item row in a batch record entry
type EntryLine struct {
	Item      string   `json:"item" binding:"required"`
	Unit      string   `json:"unit"`
	Quantity  *float64 `json:"quantity" binding:"required"`
	UnitPrice *float64 `json:"unit_price"`
	Notes     string   `json:"notes"`
}

// Entry is a batch of records sharing date, category and status
type Entry struct {
	Date     string      `json:"date"`
	Category string      `json:"category"`
	Kind     string      `json:"kind" binding:"required"`
	Lines    []EntryLine `json:"lines" binding:"required,min=1,dive"`
}

// EntryOutcome reports what happened to one line of an entry
type EntryOutcome struct {
	Item   string      `json:"item"`
	Status EntryStatus `json:"status"`
	Reason string      `json:"reason,omitempty"`
}
