// internal/service/inventory_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Chenyi0309/inventory-dashboard/internal/cache"
	"github.com/Chenyi0309/inventory-dashboard/internal/catalog"
	"github.com/Chenyi0309/inventory-dashboard/internal/domain"
	"github.com/Chenyi0309/inventory-dashboard/internal/forecast"
	"github.com/Chenyi0309/inventory-dashboard/internal/metrics"
	"github.com/Chenyi0309/inventory-dashboard/internal/normalize"
	"github.com/Chenyi0309/inventory-dashboard/internal/repository"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var (
	ErrItemNotFound = errors.New("item not found")
	ErrInvalidQuery = errors.New("invalid query")
	ErrInvalidEntry = errors.New("invalid entry")
)

const (
	detailHistoryDays = 60
	recentEventsLimit = 10
)

// Options configure an InventoryService.
type Options struct {
	Thresholds forecast.Thresholds
	Workers    int
}

type InventoryService struct {
	store      repository.EventStore
	cache      cache.EventsCache
	catalog    *catalog.Catalog
	thresholds forecast.Thresholds
	workers    int
	source     string
}

func NewInventoryService(store repository.EventStore, cacheImpl cache.EventsCache, cat *catalog.Catalog, opts Options) *InventoryService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopEventsCache()
	}

	source := store.Name()
	if named, ok := store.(interface{ Source() string }); ok {
		source = named.Source()
	}

	return &InventoryService{
		store:      store,
		cache:      cacheImpl,
		catalog:    cat,
		thresholds: opts.Thresholds,
		workers:    opts.Workers,
		source:     source,
	}
}

// Query narrows the dashboard and overrides the day thresholds.
type Query struct {
	Category   string `form:"category"`
	WarnDays   int    `form:"warn_days"`
	UrgentDays int    `form:"urgent_days"`
}

// Dashboard is the payload behind the inventory page.
type Dashboard struct {
	Summaries   []forecast.ItemSummary `json:"summaries"`
	KPIs        domain.DashboardKPIs   `json:"kpis"`
	Dropped     []forecast.RowError    `json:"dropped"`
	Categories  []string               `json:"categories"`
	Thresholds  forecast.Thresholds    `json:"thresholds"`
	InputRows   int                    `json:"input_rows"`
	GeneratedAt time.Time              `json:"generated_at"`
}

// TrajectoryPoint is one remainder observation on the stock chart.
type TrajectoryPoint struct {
	Date     time.Time `json:"date"`
	Quantity float64   `json:"quantity"`
}

// ItemDetail explains one item's summary.
type ItemDetail struct {
	Summary      forecast.ItemSummary    `json:"summary"`
	Usage        *forecast.UsageEstimate `json:"usage"`
	Corrections  []forecast.Correction   `json:"corrections"`
	StockoutDate *time.Time              `json:"stockout_date"`
	Trajectory   []TrajectoryPoint       `json:"trajectory"`
	Events       []forecast.Event        `json:"events"`
	Recent       []forecast.Event        `json:"recent"`
}

// GetSummaries computes every item's summary and the dashboard KPIs.
func (s *InventoryService) GetSummaries(ctx context.Context, q Query) (*Dashboard, error) {
	thresholds, err := s.resolveThresholds(q)
	if err != nil {
		return nil, err
	}

	records, err := s.loadRecords(ctx)
	if err != nil {
		return nil, err
	}

	res := s.compute(records, thresholds)

	summaries := filterCategory(res.Summaries, q.Category)
	forecast.SortBySeverity(summaries)

	return &Dashboard{
		Summaries:   summaries,
		KPIs:        buildKPIs(summaries),
		Dropped:     res.Dropped,
		Categories:  categoriesOf(records),
		Thresholds:  thresholds,
		InputRows:   res.InputRows,
		GeneratedAt: time.Now(),
	}, nil
}

// GetItemDetail returns the summary of one item with the usage breakdown and
// its recent history relative to today.
func (s *InventoryService) GetItemDetail(ctx context.Context, item string, today time.Time) (*ItemDetail, error) {
	item = strings.TrimSpace(item)

	records, err := s.loadRecords(ctx)
	if err != nil {
		return nil, err
	}

	res := s.compute(records, s.thresholds)

	idx := -1
	for i := range res.Summaries {
		if res.Summaries[i].Item == item {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, item)
	}

	summary := res.Summaries[idx]
	ledger := res.Ledgers[item]
	today = startOfDay(today)

	detail := &ItemDetail{
		Summary:     summary,
		Corrections: summary.Corrections,
		Trajectory:  []TrajectoryPoint{},
		Events:      []forecast.Event{},
		Recent:      []forecast.Event{},
	}

	if est, ok := forecast.EstimateUsage(ledger); ok {
		detail.Usage = &est
	}

	if summary.DaysLeft != nil {
		stockout := today.AddDate(0, 0, int(math.Floor(*summary.DaysLeft)))
		detail.StockoutDate = &stockout
	}

	from := today.AddDate(0, 0, -detailHistoryDays)
	for _, ev := range ledger {
		if ev.Date.Before(from) || ev.Date.After(today) {
			continue
		}
		detail.Events = append(detail.Events, ev)
		if ev.IsRemainder() {
			detail.Trajectory = append(detail.Trajectory, TrajectoryPoint{Date: ev.Date, Quantity: ev.Quantity})
		}
	}

	for i := len(ledger) - 1; i >= 0 && len(detail.Recent) < recentEventsLimit; i-- {
		detail.Recent = append(detail.Recent, ledger[i])
	}

	return detail, nil
}

// Categories lists the distinct categories in the event table.
func (s *InventoryService) Categories(ctx context.Context) ([]string, error) {
	records, err := s.loadRecords(ctx)
	if err != nil {
		return nil, err
	}
	return categoriesOf(records), nil
}

// RecordEvents appends one batch entry. Lines that fail validation are
// reported and skipped; the rest are appended together.
func (s *InventoryService) RecordEvents(ctx context.Context, entry domain.Entry, today time.Time) ([]domain.EntryOutcome, error) {
	kind, ok := normalize.ParseStatus(entry.Kind)
	if !ok {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidEntry, entry.Kind)
	}

	date := startOfDay(today)
	if strings.TrimSpace(entry.Date) != "" {
		parsed, ok := normalize.ParseDate(entry.Date)
		if !ok {
			return nil, fmt.Errorf("%w: unparseable date %q", ErrInvalidEntry, entry.Date)
		}
		date = parsed
	}

	records, err := s.loadRecords(ctx)
	if err != nil {
		return nil, err
	}
	units := latestUnits(records)

	outcomes := make([]domain.EntryOutcome, len(entry.Lines))
	accepted := make([]domain.Record, 0, len(entry.Lines))
	acceptedLines := make([]int, 0, len(entry.Lines))

	for i, line := range entry.Lines {
		item := strings.TrimSpace(line.Item)
		outcomes[i] = domain.EntryOutcome{Item: item, Status: domain.EntryFailed}

		rec, reason := s.buildRecord(kind, date, strings.TrimSpace(entry.Category), line, units)
		if reason != "" {
			outcomes[i].Reason = reason
			continue
		}

		accepted = append(accepted, rec)
		acceptedLines = append(acceptedLines, i)
	}

	if len(accepted) == 0 {
		return outcomes, nil
	}

	if err := s.store.AppendRecords(ctx, accepted); err != nil {
		return nil, fmt.Errorf("append records: %w", err)
	}
	metrics.EventsAppended(s.store.Name(), len(accepted))

	for _, i := range acceptedLines {
		outcomes[i].Status = domain.EntryOK
	}

	s.bustCache(ctx)

	log.Info().
		Str("kind", string(kind)).
		Int("appended", len(accepted)).
		Int("rejected", len(entry.Lines)-len(accepted)).
		Msg("inventory: recorded entry")

	return outcomes, nil
}

// Refresh drops the cached event table so the next read hits the store.
func (s *InventoryService) Refresh(ctx context.Context) error {
	if err := s.cache.Invalidate(ctx, s.source); err != nil {
		return fmt.Errorf("invalidate cache: %w", err)
	}
	return nil
}

func (s *InventoryService) buildRecord(kind domain.EventKind, date time.Time, category string, line domain.EntryLine, units map[string]string) (domain.Record, string) {
	item := strings.TrimSpace(line.Item)
	if item == "" {
		return domain.Record{}, "item is required"
	}
	if line.Quantity == nil || math.IsNaN(*line.Quantity) || math.IsInf(*line.Quantity, 0) {
		return domain.Record{}, "quantity is required"
	}

	qty := *line.Quantity
	switch {
	case kind == domain.EventPurchase && qty <= 0:
		return domain.Record{}, "purchase quantity must be greater than zero"
	case kind == domain.EventRemainder && qty < 0:
		return domain.Record{}, "remaining quantity must not be negative"
	}

	unit := strings.TrimSpace(line.Unit)
	if unit == "" {
		unit = units[item]
	}
	if unit == "" {
		if entry, ok := s.catalog.Lookup(item); ok {
			unit = entry.Unit
		}
	}

	if category == "" {
		if entry, ok := s.catalog.Lookup(item); ok {
			category = entry.Category
		}
	}

	rec := domain.Record{
		Item:     item,
		Date:     date,
		Kind:     kind,
		Quantity: &qty,
		Unit:     unit,
		Category: category,
		Notes:    strings.TrimSpace(line.Notes),
	}

	if kind == domain.EventPurchase && line.UnitPrice != nil {
		if *line.UnitPrice < 0 || math.IsNaN(*line.UnitPrice) || math.IsInf(*line.UnitPrice, 0) {
			return domain.Record{}, "unit price must be a non-negative number"
		}
		price := decimal.NewFromFloat(*line.UnitPrice)
		rec.UnitPrice = &price
		normalize.FillTotalCost(&rec)
	}

	if err := forecast.ValidateRecord(0, rec); err != nil {
		return domain.Record{}, err.Error()
	}

	return rec, ""
}

func (s *InventoryService) compute(records []domain.Record, thresholds forecast.Thresholds) forecast.Result {
	start := time.Now()
	res := forecast.Compute(records, forecast.Options{
		Thresholds: thresholds,
		Catalog:    s.catalog,
		Workers:    s.workers,
	})
	metrics.ObserveResult(res, time.Since(start))

	if len(res.Dropped) > 0 {
		log.Debug().Int("dropped", len(res.Dropped)).Int("rows", res.InputRows).Msg("inventory: dropped malformed rows")
	}

	return res
}

func (s *InventoryService) resolveThresholds(q Query) (forecast.Thresholds, error) {
	t := s.thresholds
	if q.WarnDays < 0 || q.UrgentDays < 0 {
		return t, fmt.Errorf("%w: thresholds must not be negative", ErrInvalidQuery)
	}
	if q.WarnDays > 0 {
		t.WarnDays = q.WarnDays
	}
	if q.UrgentDays > 0 {
		t.UrgentDays = q.UrgentDays
	}
	if t.WarnDays > 0 && t.UrgentDays > t.WarnDays {
		return t, fmt.Errorf("%w: urgent days (%d) must not exceed warn days (%d)", ErrInvalidQuery, t.UrgentDays, t.WarnDays)
	}
	return t, nil
}

func (s *InventoryService) loadRecords(ctx context.Context) ([]domain.Record, error) {
	if records, ok, err := s.cache.GetRecords(ctx, s.source); err == nil && ok {
		metrics.CacheRequest(metrics.CacheHit)
		return records, nil
	} else if err != nil {
		metrics.CacheRequest(metrics.CacheError)
		log.Warn().Err(err).Msg("inventory: cache get records failed")
	} else {
		metrics.CacheRequest(metrics.CacheMiss)
	}

	records, err := s.store.ListRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records from %s: %w", s.store.Name(), err)
	}

	if err := s.cache.SetRecords(ctx, s.source, records); err != nil {
		log.Warn().Err(err).Msg("inventory: cache set records failed")
	}

	return records, nil
}

func (s *InventoryService) bustCache(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, s.source); err != nil {
		log.Warn().Err(err).Msg("inventory: cache invalidate failed")
	}
}

func buildKPIs(summaries []forecast.ItemSummary) domain.DashboardKPIs {
	kpis := domain.DashboardKPIs{
		TotalItems: len(summaries),
		TotalSpend: decimal.Zero,
	}
	for _, s := range summaries {
		kpis.TotalSpend = kpis.TotalSpend.Add(s.CumulativeSpend)
		switch s.Severity {
		case forecast.SeverityUrgent, forecast.SeverityWarn:
			kpis.LowStock++
		case forecast.SeverityUnknown:
			kpis.UnknownItems++
		}
		if s.Usage14d != nil && *s.Usage14d > 0 {
			kpis.WithUsage++
		}
	}
	return kpis
}

func filterCategory(summaries []forecast.ItemSummary, category string) []forecast.ItemSummary {
	category = strings.TrimSpace(category)
	if category == "" {
		return summaries
	}

	filtered := make([]forecast.ItemSummary, 0, len(summaries))
	for _, s := range summaries {
		if strings.EqualFold(s.Category, category) {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

func categoriesOf(records []domain.Record) []string {
	seen := make(map[string]struct{})
	categories := make([]string, 0)
	for _, r := range records {
		c := strings.TrimSpace(r.Category)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		categories = append(categories, c)
	}
	sort.Strings(categories)
	return categories
}

// latestUnits maps each item to the unit of its most recent row that has one.
func latestUnits(records []domain.Record) map[string]string {
	units := make(map[string]string)
	dates := make(map[string]time.Time)
	for _, r := range records {
		item := strings.TrimSpace(r.Item)
		unit := strings.TrimSpace(r.Unit)
		if item == "" || unit == "" {
			continue
		}
		if last, ok := dates[item]; ok && r.Date.Before(last) {
			continue
		}
		units[item] = unit
		dates[item] = r.Date
	}
	return units
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
