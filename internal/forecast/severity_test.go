package forecast

import (
	"testing"

	"github.com/Chenyi0309/inventory-dashboard/internal/domain"
	"github.com/stretchr/testify/assert"
)

type mapCatalog map[string]domain.CatalogItem

func (m mapCatalog) Lookup(item string) (domain.CatalogItem, bool) {
	entry, ok := m[item]
	return entry, ok
}

func TestClassify(t *testing.T) {
	th := Thresholds{WarnDays: 7, UrgentDays: 3, PercentLow: 0.2}

	tests := []struct {
		name    string
		summary ItemSummary
		want    Severity
	}{
		{"unknown days left", ItemSummary{Tracking: domain.TrackingCountable, CurrentStock: qty(4)}, SeverityUnknown},
		{"urgent at threshold", ItemSummary{Tracking: domain.TrackingCountable, DaysLeft: qty(3)}, SeverityUrgent},
		{"warn", ItemSummary{Tracking: domain.TrackingCountable, DaysLeft: qty(6.5)}, SeverityWarn},
		{"warn at threshold", ItemSummary{Tracking: domain.TrackingCountable, DaysLeft: qty(7)}, SeverityWarn},
		{"normal", ItemSummary{Tracking: domain.TrackingCountable, DaysLeft: qty(7.01)}, SeverityNormal},
		{"fraction low", ItemSummary{Tracking: domain.TrackingFractional, CurrentStock: qty(0.15), DaysLeft: qty(90)}, SeverityUrgent},
		{"fraction at threshold", ItemSummary{Tracking: domain.TrackingFractional, CurrentStock: qty(0.2)}, SeverityUrgent},
		{"fraction fine", ItemSummary{Tracking: domain.TrackingFractional, CurrentStock: qty(0.5), DaysLeft: qty(1)}, SeverityNormal},
		{"fraction unknown", ItemSummary{Tracking: domain.TrackingFractional}, SeverityUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.summary, th))
		})
	}
}

func TestClassify_ZeroThresholdsUseDefaults(t *testing.T) {
	assert.Equal(t, SeverityUrgent, Classify(ItemSummary{DaysLeft: qty(2)}, Thresholds{}))
	assert.Equal(t, SeverityWarn, Classify(ItemSummary{DaysLeft: qty(5)}, Thresholds{}))
	assert.Equal(t, SeverityUrgent, Classify(ItemSummary{Tracking: domain.TrackingFractional, CurrentStock: qty(0.1)}, Thresholds{}))
}

func TestReclassify(t *testing.T) {
	summaries := []ItemSummary{{Item: "a", DaysLeft: qty(5), Severity: SeverityWarn}}

	Reclassify(summaries, Thresholds{WarnDays: 10, UrgentDays: 5})
	assert.Equal(t, SeverityUrgent, summaries[0].Severity)
}

func TestCalculator_ResolveTracking(t *testing.T) {
	calc := NewCalculator(DefaultThresholds(), mapCatalog{
		"soy sauce": {Name: "soy sauce", Tracking: domain.TrackingFractional},
		"vinegar":   {Name: "vinegar", Tracking: domain.TrackingCountable},
	})

	assert.Equal(t, domain.TrackingFractional, calc.ResolveTracking("soy sauce", "bottle"))
	assert.Equal(t, domain.TrackingCountable, calc.ResolveTracking("vinegar", "%"))
	assert.Equal(t, domain.TrackingFractional, calc.ResolveTracking("sesame oil", "%"))
	assert.Equal(t, domain.TrackingCountable, calc.ResolveTracking("rice", "kg"))
}

func TestCompute_FractionalItemUsesRemainingShare(t *testing.T) {
	records := []domain.Record{
		{Item: "soy sauce", Date: date("2024-03-01"), Kind: domain.EventRemainder, Quantity: qty(0.9), Unit: "%"},
		{Item: "soy sauce", Date: date("2024-03-10"), Kind: domain.EventRemainder, Quantity: qty(0.15), Unit: "%"},
	}

	res := Compute(records, Options{Thresholds: DefaultThresholds()})
	s := res.Summaries[0]
	assert.Equal(t, domain.TrackingFractional, s.Tracking)
	assert.Equal(t, SeverityUrgent, s.Severity)
	assert.InDelta(t, 0.75, *s.Usage14d, 1e-9)
}

func TestCompute_CatalogFillsDisplayFields(t *testing.T) {
	records := []domain.Record{
		{Item: "rice", Date: date("2024-03-01"), Kind: domain.EventPurchase, Quantity: qty(10)},
	}

	res := Compute(records, Options{Catalog: mapCatalog{
		"rice": {Name: "rice", Unit: "kg", Category: "staples"},
	}})
	s := res.Summaries[0]
	assert.Equal(t, "kg", s.Unit)
	assert.Equal(t, "staples", s.Category)
}
