package forecast

import (
	"fmt"
	"testing"
	"time"

	"github.com/Chenyi0309/inventory-dashboard/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func qty(v float64) *float64 { return &v }

func purchase(item, day string, q float64) domain.Record {
	return domain.Record{Item: item, Date: date(day), Kind: domain.EventPurchase, Quantity: qty(q), Unit: "kg"}
}

func remainder(item, day string, q float64) domain.Record {
	return domain.Record{Item: item, Date: date(day), Kind: domain.EventRemainder, Quantity: qty(q), Unit: "kg"}
}

func ledgerOf(t *testing.T, records ...domain.Record) Ledger {
	t.Helper()
	ledgers, dropped := BuildLedgers(records)
	require.Empty(t, dropped)
	require.Len(t, ledgers, 1)
	for _, l := range ledgers {
		return l
	}
	return nil
}

func riceRecords() []domain.Record {
	return []domain.Record{
		purchase("rice", "2024-01-01", 10),
		remainder("rice", "2024-01-08", 4),
		purchase("rice", "2024-01-10", 10),
		remainder("rice", "2024-01-15", 9),
	}
}

func TestCompute_RiceScenario(t *testing.T) {
	res := Compute(riceRecords(), Options{Thresholds: DefaultThresholds()})
	require.Len(t, res.Summaries, 1)
	s := res.Summaries[0]

	require.NotNil(t, s.CurrentStock)
	assert.Equal(t, 9.0, *s.CurrentStock)
	require.NotNil(t, s.Usage14d)
	assert.InDelta(t, 11.0, *s.Usage14d, 1e-9)
	require.NotNil(t, s.DaysLeft)
	assert.InDelta(t, 11.4545, *s.DaysLeft, 1e-3)
	require.NotNil(t, s.ReorderQty)
	assert.InDelta(t, 2.0, *s.ReorderQty, 1e-9)
	require.NotNil(t, s.AvgPurchaseIntervalDays)
	assert.Equal(t, 9.0, *s.AvgPurchaseIntervalDays)
	assert.Equal(t, date("2024-01-15"), *s.LastRemainderDate)
	assert.Equal(t, date("2024-01-10"), *s.LastPurchaseDate)
	assert.Equal(t, 10.0, *s.LastPurchaseQty)
	assert.Equal(t, SeverityNormal, s.Severity)
	assert.Equal(t, "kg", s.Unit)
	assert.Empty(t, s.Corrections)
	assert.Equal(t, 4, s.EventCount)
}

func TestCompute_AnomalyScenario(t *testing.T) {
	res := Compute([]domain.Record{
		remainder("oil", "2024-02-01", 2),
		remainder("oil", "2024-02-05", 8),
	}, Options{})
	require.Len(t, res.Summaries, 1)
	s := res.Summaries[0]

	require.NotNil(t, s.CurrentStock)
	assert.Equal(t, 8.0, *s.CurrentStock)
	require.NotNil(t, s.Usage14d)
	assert.Equal(t, 0.0, *s.Usage14d)
	assert.Nil(t, s.DaysLeft)
	assert.Equal(t, SeverityUnknown, s.Severity)

	require.Len(t, s.Corrections, 1)
	assert.Equal(t, CorrectionUnrecordedPurchase, s.Corrections[0].Reason)
	assert.True(t, s.Corrections[0].Rebase)
	assert.Equal(t, 2.0, s.Corrections[0].From)
	assert.Equal(t, 8.0, s.Corrections[0].To)
}

func TestEstimateUsage_AnomalyRebaseAnchor(t *testing.T) {
	l := ledgerOf(t,
		remainder("oil", "2024-02-01", 2),
		remainder("oil", "2024-02-05", 8),
	)

	est, ok := EstimateUsage(l)
	require.True(t, ok)
	assert.Equal(t, AnchorRebase, est.AnchorKind)
	require.NotNil(t, est.Anchor)
	assert.Equal(t, date("2024-02-05"), *est.Anchor)
	assert.Empty(t, est.Contributions)
	require.Len(t, est.Corrections, 1)
	assert.Equal(t, CorrectionUnrecordedPurchase, est.Corrections[0].Reason)
}

func TestSummarize_CorrectionsMatchUsageEstimate(t *testing.T) {
	l := ledgerOf(t,
		purchase("soy", "2024-01-01", 5),
		remainder("soy", "2024-01-03", 8),
		remainder("soy", "2024-01-06", 9),
		remainder("soy", "2024-01-10", 6),
	)

	est, ok := EstimateUsage(l)
	require.True(t, ok)

	s := NewCalculator(DefaultThresholds(), nil).Summarize("soy", l)
	assert.Equal(t, est.Corrections, s.Corrections)
	require.NotNil(t, s.Usage14d)
	assert.InDelta(t, est.Total, *s.Usage14d, 1e-9)
	assert.InDelta(t, 3.0, *s.Usage14d, 1e-9)
}

func TestUsage14d_InvariantToAnomalousRise(t *testing.T) {
	for _, q2 := range []float64{6, 7, 20, 100} {
		t.Run(fmt.Sprintf("q2=%v", q2), func(t *testing.T) {
			l := ledgerOf(t,
				remainder("milk", "2024-01-28", 10),
				remainder("milk", "2024-02-01", 6),
				remainder("milk", "2024-02-03", q2),
				remainder("milk", "2024-02-08", q2-3),
			)

			usage := Usage14d(l)
			require.NotNil(t, usage)
			assert.InDelta(t, 3.0, *usage, 1e-9)
		})
	}
}

func TestUsage14d_NoRemainder(t *testing.T) {
	l := ledgerOf(t,
		purchase("salt", "2024-01-01", 3),
		purchase("salt", "2024-01-05", 2),
	)

	assert.Nil(t, Usage14d(l))

	res := Compute([]domain.Record{
		purchase("salt", "2024-01-01", 3),
		purchase("salt", "2024-01-05", 2),
	}, Options{})
	s := res.Summaries[0]
	require.NotNil(t, s.CurrentStock)
	assert.Equal(t, 5.0, *s.CurrentStock)
	assert.Nil(t, s.Usage14d)
	assert.Nil(t, s.DaysLeft)
	assert.Nil(t, s.ReorderQty)
	assert.Equal(t, SeverityUnknown, s.Severity)
}

func TestUsage14d_ProrationBoundaries(t *testing.T) {
	l := ledgerOf(t,
		remainder("flour", "2024-01-01", 10),
		remainder("flour", "2024-01-05", 6),
		purchase("flour", "2024-01-10", 10),
		remainder("flour", "2024-02-10", 12),
	)

	est, ok := EstimateUsage(l)
	require.True(t, ok)
	assert.Equal(t, date("2024-01-27"), est.WindowStart)
	assert.Equal(t, date("2024-02-10"), est.WindowEnd)

	// the January 1-5 segment lies wholly before the window
	require.Len(t, est.Contributions, 1)
	c := est.Contributions[0]
	assert.Equal(t, 14, c.OverlapDays)
	assert.Equal(t, 31, c.Days())
	assert.InDelta(t, 4.0*14/31, c.Amount, 1e-9)
	assert.InDelta(t, 4.0*14/31, est.Total, 1e-9)
}

func TestOverlapDays(t *testing.T) {
	ws, we := date("2024-03-01"), date("2024-03-15")
	tests := []struct {
		name       string
		start, end string
		want       int
	}{
		{"before window", "2024-02-01", "2024-02-20", 0},
		{"ends at window start", "2024-02-20", "2024-03-01", 0},
		{"inside", "2024-03-03", "2024-03-08", 5},
		{"straddles start", "2024-02-25", "2024-03-04", 3},
		{"whole window", "2024-02-01", "2024-03-15", 14},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, overlapDays(date(tt.start), date(tt.end), ws, we))
		})
	}
}

func TestCurrentStock(t *testing.T) {
	t.Run("ends in remainder", func(t *testing.T) {
		l := ledgerOf(t,
			purchase("egg", "2024-01-01", 30),
			remainder("egg", "2024-01-04", 12),
		)
		require.NotNil(t, CurrentStock(l))
		assert.Equal(t, 12.0, *CurrentStock(l))
	})

	t.Run("purchases after remainder add up", func(t *testing.T) {
		l := ledgerOf(t,
			purchase("egg", "2024-01-01", 30),
			remainder("egg", "2024-01-04", 12),
			purchase("egg", "2024-01-05", 6),
			purchase("egg", "2024-01-06", 4),
		)
		require.NotNil(t, CurrentStock(l))
		assert.Equal(t, 22.0, *CurrentStock(l))
	})

	t.Run("empty ledger is unknown", func(t *testing.T) {
		assert.Nil(t, CurrentStock(nil))
	})
}

func TestBuildLedgers_SameDayKeepsInputOrder(t *testing.T) {
	purchaseFirst := ledgerOf(t,
		purchase("tofu", "2024-01-05", 10),
		remainder("tofu", "2024-01-05", 3),
	)
	require.NotNil(t, CurrentStock(purchaseFirst))
	assert.Equal(t, 3.0, *CurrentStock(purchaseFirst))

	remainderFirst := ledgerOf(t,
		remainder("tofu", "2024-01-05", 3),
		purchase("tofu", "2024-01-05", 10),
	)
	require.NotNil(t, CurrentStock(remainderFirst))
	assert.Equal(t, 13.0, *CurrentStock(remainderFirst))
}

func TestBuildLedgers_SortsByDate(t *testing.T) {
	l := ledgerOf(t,
		remainder("tea", "2024-01-09", 1),
		purchase("tea", "2024-01-02", 5),
		remainder("tea", "2024-01-05", 3),
	)

	require.Len(t, l, 3)
	assert.Equal(t, date("2024-01-02"), l[0].Date)
	assert.Equal(t, date("2024-01-05"), l[1].Date)
	assert.Equal(t, date("2024-01-09"), l[2].Date)
	assert.Equal(t, 1, l[0].Sequence)
}

func TestCompute_DropsMalformedRows(t *testing.T) {
	badKind := remainder("rice", "2024-01-02", 1)
	badKind.Kind = "used"
	noQty := remainder("rice", "2024-01-02", 1)
	noQty.Quantity = nil

	records := []domain.Record{
		purchase("", "2024-01-01", 1),
		{Item: "rice", Kind: domain.EventPurchase, Quantity: qty(1)},
		badKind,
		noQty,
		remainder("rice", "2024-01-03", -2),
		purchase("beans", "2024-01-01", 4),
	}

	res := Compute(records, Options{})
	assert.Equal(t, 6, res.InputRows)
	require.Len(t, res.Dropped, 5)

	fields := make([]string, 0, len(res.Dropped))
	for _, d := range res.Dropped {
		fields = append(fields, d.Field)
	}
	assert.Equal(t, []string{"item", "date", "kind", "quantity", "quantity"}, fields)
	assert.Equal(t, "eventkind", res.Dropped[2].Reason)
	assert.Equal(t, "gte", res.Dropped[4].Reason)
	assert.Equal(t, 4, res.Dropped[4].Index)

	require.Len(t, res.Summaries, 1)
	assert.Equal(t, "beans", res.Summaries[0].Item)
}

func TestCompute_EmptyInput(t *testing.T) {
	res := Compute(nil, Options{})
	assert.Empty(t, res.Summaries)
	assert.Empty(t, res.Dropped)
	assert.Equal(t, 0, res.InputRows)
}

func TestExtractSegments_ClampedPurchase(t *testing.T) {
	l := ledgerOf(t,
		purchase("soy", "2024-01-01", 5),
		remainder("soy", "2024-01-03", 8),
	)

	segments, corrections := ExtractSegments(l)
	require.Len(t, segments, 1)
	assert.Equal(t, 0.0, segments[0].Consumed)
	require.Len(t, corrections, 1)
	assert.Equal(t, CorrectionClamped, corrections[0].Reason)
	assert.False(t, corrections[0].Rebase)
}

func TestExtractSegments_ZeroDurationCarriesLevel(t *testing.T) {
	l := ledgerOf(t,
		purchase("leek", "2024-01-01", 10),
		remainder("leek", "2024-01-01", 7),
		remainder("leek", "2024-01-04", 4),
	)

	segments, corrections := ExtractSegments(l)
	require.Len(t, segments, 1)
	assert.Equal(t, 3.0, segments[0].Consumed)
	assert.Equal(t, 3, segments[0].Days())
	require.Len(t, corrections, 1)
	assert.Equal(t, CorrectionZeroDuration, corrections[0].Reason)

	usage := Usage14d(l)
	require.NotNil(t, usage)
	assert.InDelta(t, 3.0, *usage, 1e-9)
}

func TestExtractSegments_PurchaseRunsAccumulate(t *testing.T) {
	l := ledgerOf(t,
		purchase("pork", "2024-01-01", 4),
		purchase("pork", "2024-01-02", 6),
		remainder("pork", "2024-01-06", 2),
	)

	segments, _ := ExtractSegments(l)
	require.Len(t, segments, 1)
	assert.Equal(t, 8.0, segments[0].Consumed)
	assert.Equal(t, date("2024-01-02"), segments[0].Start)
}

func TestSelectAnchor_RebaseBeforeWindowIgnored(t *testing.T) {
	l := ledgerOf(t,
		remainder("sugar", "2024-01-01", 1),
		remainder("sugar", "2024-01-02", 9),
		remainder("sugar", "2024-01-20", 7),
		remainder("sugar", "2024-01-30", 5),
	)

	est, ok := EstimateUsage(l)
	require.True(t, ok)
	assert.Equal(t, AnchorInWindow, est.AnchorKind)
	assert.Equal(t, date("2024-01-20"), *est.Anchor)
	// the Jan 2 - Jan 20 segment straddles the window start on Jan 16
	assert.InDelta(t, 2.0*4/18+2.0, est.Total, 1e-9)
}

func TestDaysLeft(t *testing.T) {
	assert.Nil(t, DaysLeft(qty(5), nil))
	assert.Nil(t, DaysLeft(qty(5), qty(0)))
	assert.Nil(t, DaysLeft(nil, qty(7)))

	got := DaysLeft(qty(7), qty(14))
	require.NotNil(t, got)
	assert.Equal(t, 7.0, *got)
	assert.Greater(t, *got, 0.0)
}

func TestReorderQty(t *testing.T) {
	assert.Nil(t, ReorderQty(qty(3), nil))

	unknownStock := ReorderQty(nil, qty(6))
	require.NotNil(t, unknownStock)
	assert.Equal(t, 6.0, *unknownStock)

	overStocked := ReorderQty(qty(20), qty(6))
	require.NotNil(t, overStocked)
	assert.Equal(t, 0.0, *overStocked)
}

func TestSummarize_CumulativeSpend(t *testing.T) {
	price := decimal.RequireFromString("2.5")
	total := decimal.RequireFromString("7.30")

	first := purchase("beef", "2024-01-01", 4)
	first.UnitPrice = &price
	second := purchase("beef", "2024-01-05", 1)
	second.TotalCost = &total

	res := Compute([]domain.Record{first, second}, Options{})
	s := res.Summaries[0]
	assert.True(t, s.CumulativeSpend.Equal(decimal.RequireFromString("17.3")), s.CumulativeSpend.String())
	assert.Nil(t, s.LastPurchasePrice)
	assert.Equal(t, 4.0, *s.AvgPurchaseIntervalDays)
}

func TestCompute_Idempotent(t *testing.T) {
	records := append(riceRecords(),
		remainder("oil", "2024-02-01", 2),
		remainder("oil", "2024-02-05", 8),
	)

	first := Compute(records, Options{Workers: 4})
	second := Compute(records, Options{Workers: 4})
	assert.Equal(t, first, second)
}

func TestCompute_ParallelMatchesSequential(t *testing.T) {
	var records []domain.Record
	for i := 0; i < 40; i++ {
		item := fmt.Sprintf("item-%02d", i)
		records = append(records,
			purchase(item, "2024-01-01", float64(10+i)),
			remainder(item, "2024-01-08", float64(i%7)),
		)
	}

	sequential := Compute(records, Options{Workers: 1})
	parallel := Compute(records, Options{Workers: 8})
	assert.Equal(t, sequential.Summaries, parallel.Summaries)
}

func TestSortByDaysLeft(t *testing.T) {
	summaries := []ItemSummary{
		{Item: "d", DaysLeft: nil},
		{Item: "c", DaysLeft: qty(5)},
		{Item: "a", DaysLeft: nil},
		{Item: "b", DaysLeft: qty(5)},
		{Item: "e", DaysLeft: qty(2)},
	}

	SortByDaysLeft(summaries)

	var order []string
	for _, s := range summaries {
		order = append(order, s.Item)
	}
	assert.Equal(t, []string{"e", "b", "c", "a", "d"}, order)
}

func TestSortBySeverity(t *testing.T) {
	summaries := []ItemSummary{
		{Item: "n", Severity: SeverityNormal, DaysLeft: qty(30)},
		{Item: "u", Severity: SeverityUnknown},
		{Item: "fraction", Severity: SeverityUrgent},
		{Item: "w", Severity: SeverityWarn, DaysLeft: qty(6)},
		{Item: "x", Severity: SeverityUrgent, DaysLeft: qty(1)},
	}

	SortBySeverity(summaries)

	var order []string
	for _, s := range summaries {
		order = append(order, s.Item)
	}
	assert.Equal(t, []string{"x", "fraction", "w", "n", "u"}, order)
}
