package metrics

import (
	"net/http"
	"time"

	"github.com/Chenyi0309/inventory-dashboard/internal/forecast"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "inventory"

// Cache request outcomes.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

var (
	// rowsDropped is the number of malformed rows in the latest computation.
	rowsDropped = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "rows_dropped",
		Help:      "Event rows dropped by the latest summary because a required field was missing or invalid",
	})

	// corrections is the latest computation's ledger anomalies by reason.
	// Labels: reason (unrecorded_purchase, clamped, zero_duration)
	corrections = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "corrections",
		Help:      "Ledger anomalies corrected by the latest summary",
	}, []string{"reason"})

	summaryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "summary_duration_seconds",
		Help:      "Time to compute the summary of every item",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	})

	// items is the item count of the latest summary by severity.
	// Labels: severity (urgent, warn, normal, unknown)
	items = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "items",
		Help:      "Items in the latest summary by severity",
	}, []string{"severity"})

	// eventsAppended counts rows written to the event table.
	// Labels: backend (sheets, postgres, file)
	eventsAppended = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_appended_total",
		Help:      "Event rows appended to the event table",
	}, []string{"backend"})

	// cacheRequests counts event-table cache lookups.
	// Labels: result (hit, miss, error)
	cacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_requests_total",
		Help:      "Event table cache lookups by result",
	}, []string{"result"})
)

var reasons = []forecast.CorrectionReason{
	forecast.CorrectionUnrecordedPurchase,
	forecast.CorrectionClamped,
	forecast.CorrectionZeroDuration,
}

var severities = []forecast.Severity{
	forecast.SeverityUrgent,
	forecast.SeverityWarn,
	forecast.SeverityNormal,
	forecast.SeverityUnknown,
}

// ObserveResult records the outcome of one Compute run. The gauges describe
// the event table as of this run and are replaced, not accumulated.
func ObserveResult(res forecast.Result, elapsed time.Duration) {
	summaryDuration.Observe(elapsed.Seconds())
	rowsDropped.Set(float64(len(res.Dropped)))

	bySeverity := make(map[forecast.Severity]int, len(severities))
	byReason := make(map[forecast.CorrectionReason]int, len(reasons))
	for _, s := range res.Summaries {
		bySeverity[s.Severity]++
		for _, c := range s.Corrections {
			byReason[c.Reason]++
		}
	}
	for _, sev := range severities {
		items.WithLabelValues(string(sev)).Set(float64(bySeverity[sev]))
	}
	for _, reason := range reasons {
		corrections.WithLabelValues(string(reason)).Set(float64(byReason[reason]))
	}
}

func EventsAppended(backend string, n int) {
	eventsAppended.WithLabelValues(backend).Add(float64(n))
}

func CacheRequest(result string) {
	cacheRequests.WithLabelValues(result).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
