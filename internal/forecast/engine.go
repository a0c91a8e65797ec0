package forecast

import (
	"sort"

	"github.com/Chenyi0309/inventory-dashboard/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Compute builds ledgers from the records and summarizes every item that has
// at least one valid event. Items are independent, so they may be summarized
// concurrently; the output order does not depend on it.
func Compute(records []domain.Record, opts Options) Result {
	ledgers, dropped := BuildLedgers(records)

	items := make([]string, 0, len(ledgers))
	for item := range ledgers {
		items = append(items, item)
	}
	sort.Strings(items)

	calc := NewCalculator(opts.Thresholds, opts.Catalog)
	summaries := make([]ItemSummary, len(items))

	if opts.Workers > 1 && len(items) > 1 {
		var g errgroup.Group
		g.SetLimit(opts.Workers)
		for i, item := range items {
			i, item := i, item
			g.Go(func() error {
				summaries[i] = calc.Summarize(item, ledgers[item])
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, item := range items {
			summaries[i] = calc.Summarize(item, ledgers[item])
		}
	}

	SortByDaysLeft(summaries)

	if dropped == nil {
		dropped = []RowError{}
	}

	return Result{
		Summaries: summaries,
		Dropped:   dropped,
		InputRows: len(records),
		Ledgers:   ledgers,
	}
}
