package forecast

import (
	"sort"

	"github.com/Chenyi0309/inventory-dashboard/internal/domain"
)

func (t Thresholds) withDefaults() Thresholds {
	if t.WarnDays <= 0 {
		t.WarnDays = DefaultWarnDays
	}
	if t.UrgentDays <= 0 {
		t.UrgentDays = DefaultUrgentDays
	}
	if t.PercentLow <= 0 || t.PercentLow >= 1 {
		t.PercentLow = DefaultPercentLow
	}
	return t
}

// Classify buckets a summary. Countable items key off days left; opened
// containers key off the remaining fraction.
func Classify(s ItemSummary, t Thresholds) Severity {
	t = t.withDefaults()

	if s.Tracking == domain.TrackingFractional {
		if s.CurrentStock == nil {
			return SeverityUnknown
		}
		if *s.CurrentStock <= t.PercentLow {
			return SeverityUrgent
		}
		return SeverityNormal
	}

	switch {
	case s.DaysLeft == nil:
		return SeverityUnknown
	case *s.DaysLeft <= float64(t.UrgentDays):
		return SeverityUrgent
	case *s.DaysLeft <= float64(t.WarnDays):
		return SeverityWarn
	default:
		return SeverityNormal
	}
}

// Reclassify recomputes severity for every summary with new thresholds.
func Reclassify(summaries []ItemSummary, t Thresholds) {
	for i := range summaries {
		summaries[i].Severity = Classify(summaries[i], t)
	}
}

// SortByDaysLeft orders summaries by ascending days left, unknown last, then
// by item name.
func SortByDaysLeft(summaries []ItemSummary) {
	sort.SliceStable(summaries, func(i, j int) bool {
		return lessDaysLeft(summaries[i], summaries[j])
	})
}

// SortBySeverity orders summaries urgent first, then by days left.
func SortBySeverity(summaries []ItemSummary) {
	sort.SliceStable(summaries, func(i, j int) bool {
		ri, rj := severityRank[summaries[i].Severity], severityRank[summaries[j].Severity]
		if ri != rj {
			return ri < rj
		}
		return lessDaysLeft(summaries[i], summaries[j])
	})
}

func lessDaysLeft(a, b ItemSummary) bool {
	switch {
	case a.DaysLeft != nil && b.DaysLeft != nil:
		if *a.DaysLeft != *b.DaysLeft {
			return *a.DaysLeft < *b.DaysLeft
		}
	case a.DaysLeft != nil:
		return true
	case b.DaysLeft != nil:
		return false
	}
	return a.Item < b.Item
}
