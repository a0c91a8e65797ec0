package forecast

import (
	"time"

	"github.com/Chenyi0309/inventory-dashboard/internal/domain"
	"github.com/shopspring/decimal"
)

// UsageWindowDays is the length of the trailing usage window.
const UsageWindowDays = 14

// Event is a validated fact about one item.
type Event struct {
	Item      string           `json:"item"`
	Date      time.Time        `json:"date"`
	Kind      domain.EventKind `json:"kind"`
	Quantity  float64          `json:"quantity"`
	Unit      string           `json:"unit,omitempty"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
	TotalCost *decimal.Decimal `json:"total_cost,omitempty"`
	Category  string           `json:"category,omitempty"`
	Notes     string           `json:"notes,omitempty"`
	Sequence  int              `json:"sequence"`
}

func (e Event) IsPurchase() bool  { return e.Kind == domain.EventPurchase }
func (e Event) IsRemainder() bool { return e.Kind == domain.EventRemainder }

// Ledger is the events of one item ordered by (Date, Sequence).
type Ledger []Event

// Severity buckets an item by how soon it needs attention.
type Severity string

const (
	SeverityUrgent  Severity = "urgent"
	SeverityWarn    Severity = "warn"
	SeverityNormal  Severity = "normal"
	SeverityUnknown Severity = "unknown"
)

var severityRank = map[Severity]int{
	SeverityUrgent:  0,
	SeverityWarn:    1,
	SeverityNormal:  2,
	SeverityUnknown: 3,
}

// Thresholds configure severity classification.
type Thresholds struct {
	WarnDays   int     `json:"warn_days"`
	UrgentDays int     `json:"urgent_days"`
	PercentLow float64 `json:"percent_low"`
}

const (
	DefaultWarnDays   = 7
	DefaultUrgentDays = 3
	DefaultPercentLow = 0.20
)

func DefaultThresholds() Thresholds {
	return Thresholds{
		WarnDays:   DefaultWarnDays,
		UrgentDays: DefaultUrgentDays,
		PercentLow: DefaultPercentLow,
	}
}

// Catalog resolves static item metadata. A nil Catalog is valid.
type Catalog interface {
	Lookup(item string) (domain.CatalogItem, bool)
}

// Options control a Compute run.
type Options struct {
	Thresholds Thresholds
	Catalog    Catalog
	// Workers bounds per-item parallelism; values below 2 run sequentially.
	Workers int
}

// ItemSummary is the derived state of one item. Nil pointers mean the value
// could not be determined from the ledger.
type ItemSummary struct {
	Item                    string           `json:"item"`
	Unit                    string           `json:"unit"`
	Category                string           `json:"category"`
	Tracking                domain.Tracking  `json:"tracking"`
	CurrentStock            *float64         `json:"current_stock"`
	Usage14d                *float64         `json:"usage_14d"`
	DaysLeft                *float64         `json:"days_left"`
	ReorderQty              *float64         `json:"reorder_qty"`
	LastRemainderDate       *time.Time       `json:"last_remainder_date"`
	LastPurchaseDate        *time.Time       `json:"last_purchase_date"`
	LastPurchaseQty         *float64         `json:"last_purchase_qty"`
	LastPurchasePrice       *decimal.Decimal `json:"last_purchase_price"`
	AvgPurchaseIntervalDays *float64         `json:"avg_purchase_interval_days"`
	CumulativeSpend         decimal.Decimal  `json:"cumulative_spend"`
	Severity                Severity         `json:"severity"`
	EventCount              int              `json:"event_count"`
	Corrections             []Correction     `json:"corrections"`
}

// Result is the output of Compute.
type Result struct {
	Summaries []ItemSummary     `json:"summaries"`
	Dropped   []RowError        `json:"dropped"`
	InputRows int               `json:"input_rows"`
	Ledgers   map[string]Ledger `json:"-"`
}
