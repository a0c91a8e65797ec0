// internal/domain/models.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Record is one row of the event table as delivered by a source, after
// column and value normalization.
type Record struct {
	Item      string           `json:"item" db:"item" validate:"required"`
	Date      time.Time        `json:"date" db:"event_date" validate:"required"`
	Kind      EventKind        `json:"kind" db:"kind" validate:"required,eventkind"`
	Quantity  *float64         `json:"quantity" db:"quantity" validate:"required,gte=0"`
	Unit      string           `json:"unit" db:"unit"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty" db:"unit_price"`
	TotalCost *decimal.Decimal `json:"total_cost,omitempty" db:"total_cost"`
	Category  string           `json:"category" db:"category"`
	Notes     string           `json:"notes" db:"notes"`
}

// Tracking selects how an item's stock level is interpreted.
type Tracking string

const (
	// TrackingCountable items are counted or weighed and depleted at a rate.
	TrackingCountable Tracking = "countable"
	// TrackingFractional items are opened containers recorded as a 0-1 fraction.
	TrackingFractional Tracking = "fraction"
)

// CatalogItem is the static description of an item.
type CatalogItem struct {
	Name     string   `json:"name" yaml:"name"`
	Category string   `json:"category" yaml:"category"`
	Unit     string   `json:"unit" yaml:"unit"`
	Tracking Tracking `json:"tracking" yaml:"tracking"`
	Notes    string   `json:"notes,omitempty" yaml:"notes"`
}

// UploadedFile represents an uploaded ledger file for import
type UploadedFile struct {
	Filename string
	Path     string
	Size     int64
}

// ImportResult reports what an import run did with a single file
type ImportResult struct {
	Filename string `json:"filename"`
	Rows     int    `json:"rows"`
	Appended int    `json:"appended"`
	Dropped  int    `json:"dropped"`
	Error    string `json:"error,omitempty"`
}

// ImportReport aggregates the results of an import run
type ImportReport struct {
	Files       []ImportResult `json:"files"`
	TotalRows   int            `json:"total_rows"`
	Appended    int            `json:"appended"`
	Dropped     int            `json:"dropped"`
	ProcessedAt time.Time      `json:"processed_at"`
}
