package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Chenyi0309/inventory-dashboard/internal/forecast"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveResult(t *testing.T) {
	res := forecast.Result{
		Summaries: []forecast.ItemSummary{
			{Item: "rice", Severity: forecast.SeverityUrgent, Corrections: []forecast.Correction{{Reason: forecast.CorrectionClamped}}},
			{Item: "salt", Severity: forecast.SeverityUnknown},
			{Item: "oil", Severity: forecast.SeverityUnknown},
		},
		Dropped: []forecast.RowError{{Index: 3, Field: "item", Reason: "required"}},
	}

	ObserveResult(res, 5*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(rowsDropped))
	assert.Equal(t, 1.0, testutil.ToFloat64(corrections.WithLabelValues(string(forecast.CorrectionClamped))))
	assert.Equal(t, 0.0, testutil.ToFloat64(corrections.WithLabelValues(string(forecast.CorrectionZeroDuration))))
	assert.Equal(t, 1.0, testutil.ToFloat64(items.WithLabelValues("urgent")))
	assert.Equal(t, 0.0, testutil.ToFloat64(items.WithLabelValues("warn")))
	assert.Equal(t, 2.0, testutil.ToFloat64(items.WithLabelValues("unknown")))
}

func TestObserveResult_RepeatedRunsDoNotAccumulate(t *testing.T) {
	res := forecast.Result{
		Summaries: []forecast.ItemSummary{
			{Item: "rice", Corrections: []forecast.Correction{
				{Reason: forecast.CorrectionUnrecordedPurchase},
				{Reason: forecast.CorrectionUnrecordedPurchase},
			}},
		},
		Dropped: []forecast.RowError{{Index: 0}, {Index: 1}},
	}

	for i := 0; i < 3; i++ {
		ObserveResult(res, time.Millisecond)
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(rowsDropped))
	assert.Equal(t, 2.0, testutil.ToFloat64(corrections.WithLabelValues(string(forecast.CorrectionUnrecordedPurchase))))

	ObserveResult(forecast.Result{}, time.Millisecond)
	assert.Equal(t, 0.0, testutil.ToFloat64(rowsDropped))
	assert.Equal(t, 0.0, testutil.ToFloat64(corrections.WithLabelValues(string(forecast.CorrectionUnrecordedPurchase))))
}

func TestCountersAndHandler(t *testing.T) {
	EventsAppended("file", 3)
	CacheRequest(CacheMiss)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `inventory_events_appended_total{backend="file"}`))
	assert.True(t, strings.Contains(body, `inventory_cache_requests_total{result="miss"}`))
}
