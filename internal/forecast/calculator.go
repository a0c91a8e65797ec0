package forecast

import (
	"strings"

	"github.com/Chenyi0309/inventory-dashboard/internal/domain"
	"github.com/shopspring/decimal"
)

// Calculator turns one item's ledger into its summary row.
type Calculator struct {
	thresholds Thresholds
	catalog    Catalog
}

// NewCalculator creates a calculator. Zero thresholds fall back to defaults.
func NewCalculator(thresholds Thresholds, catalog Catalog) *Calculator {
	return &Calculator{
		thresholds: thresholds.withDefaults(),
		catalog:    catalog,
	}
}

// Summarize computes every derived metric for one item.
func (c *Calculator) Summarize(item string, l Ledger) ItemSummary {
	summary := ItemSummary{
		Item:            item,
		EventCount:      len(l),
		CumulativeSpend: decimal.Zero,
		Corrections:     []Correction{},
	}

	// 1. Display fields from the latest events, then the catalog
	summary.Unit, summary.Category = c.displayFields(item, l)
	summary.Tracking = c.ResolveTracking(item, summary.Unit)

	// 2. Current stock
	summary.CurrentStock = CurrentStock(l)

	// 3. Windowed usage and the corrections behind it
	if est, ok := EstimateUsage(l); ok {
		summary.Usage14d = floatPtr(est.Total)
		if len(est.Corrections) > 0 {
			summary.Corrections = est.Corrections
		}
	}

	// 4. Days left = stock / daily rate
	summary.DaysLeft = DaysLeft(summary.CurrentStock, summary.Usage14d)

	// 5. Reorder quantity to restore a 14-day buffer
	summary.ReorderQty = ReorderQty(summary.CurrentStock, summary.Usage14d)

	// 6. Last observations and spend
	var purchases []Event
	for _, ev := range l {
		switch {
		case ev.IsRemainder():
			summary.LastRemainderDate = timePtr(ev.Date)
		case ev.IsPurchase():
			summary.LastPurchaseDate = timePtr(ev.Date)
			summary.LastPurchaseQty = floatPtr(ev.Quantity)
			summary.LastPurchasePrice = ev.UnitPrice
			if ev.TotalCost != nil {
				summary.CumulativeSpend = summary.CumulativeSpend.Add(*ev.TotalCost)
			}
			purchases = append(purchases, ev)
		}
	}

	// 7. Purchase cadence
	summary.AvgPurchaseIntervalDays = avgPurchaseInterval(purchases)

	// 8. Severity
	summary.Severity = Classify(summary, c.thresholds)

	return summary
}

// ResolveTracking decides how an item's quantities are read: the catalog
// wins, then a percent unit marks an opened container.
func (c *Calculator) ResolveTracking(item, unit string) domain.Tracking {
	if c.catalog != nil {
		if entry, ok := c.catalog.Lookup(item); ok && entry.Tracking != "" {
			return entry.Tracking
		}
	}
	if strings.TrimSpace(unit) == "%" {
		return domain.TrackingFractional
	}
	return domain.TrackingCountable
}

func (c *Calculator) displayFields(item string, l Ledger) (unit, category string) {
	for i := len(l) - 1; i >= 0 && (unit == "" || category == ""); i-- {
		if unit == "" {
			unit = l[i].Unit
		}
		if category == "" {
			category = l[i].Category
		}
	}

	if c.catalog != nil {
		if entry, ok := c.catalog.Lookup(item); ok {
			if unit == "" {
				unit = entry.Unit
			}
			if category == "" {
				category = entry.Category
			}
		}
	}
	return unit, category
}

// DaysLeft divides stock by the daily usage rate. Nil when either is unknown
// or usage is not positive.
func DaysLeft(stock, usage *float64) *float64 {
	if stock == nil || usage == nil || *usage <= 0 {
		return nil
	}
	return floatPtr(*stock / (*usage / UsageWindowDays))
}

// ReorderQty is the amount that brings stock back to 14 days of usage.
func ReorderQty(stock, usage *float64) *float64 {
	if usage == nil {
		return nil
	}
	if stock == nil {
		return floatPtr(*usage)
	}
	qty := *usage - *stock
	if qty < 0 {
		qty = 0
	}
	return floatPtr(qty)
}

func avgPurchaseInterval(purchases []Event) *float64 {
	if len(purchases) < 2 {
		return nil
	}

	total := 0
	for i := 1; i < len(purchases); i++ {
		total += daysBetween(purchases[i-1].Date, purchases[i].Date)
	}
	return floatPtr(float64(total) / float64(len(purchases)-1))
}
