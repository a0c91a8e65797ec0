package forecast

import "time"

// AnchorKind says how the usage window's starting boundary was chosen.
type AnchorKind string

const (
	AnchorRebase       AnchorKind = "rebase"
	AnchorInWindow     AnchorKind = "in_window"
	AnchorBeforeWindow AnchorKind = "before_window"
	AnchorNone         AnchorKind = "none"
)

// Contribution is the prorated share of one segment inside the window.
type Contribution struct {
	Segment
	OverlapDays int     `json:"overlap_days"`
	Amount      float64 `json:"amount"`
}

// UsageEstimate explains how a 14-day usage figure was reached.
type UsageEstimate struct {
	WindowStart   time.Time      `json:"window_start"`
	WindowEnd     time.Time      `json:"window_end"`
	Anchor        *time.Time     `json:"anchor"`
	AnchorKind    AnchorKind     `json:"anchor_kind"`
	Contributions []Contribution `json:"contributions"`
	Corrections   []Correction   `json:"corrections"`
	Total         float64        `json:"total"`
}

// Usage14d returns the consumption attributed to the 14 days ending at the
// last remainder, or nil when the ledger has no remainder.
func Usage14d(l Ledger) *float64 {
	est, ok := EstimateUsage(l)
	if !ok {
		return nil
	}
	return floatPtr(est.Total)
}

// EstimateUsage computes the windowed usage and returns the breakdown. The
// second result is false when the ledger holds no remainder.
//
// Each segment's consumption is spread evenly over its days and only the
// days overlapping [end-14d, end] are counted. When an unrecorded purchase
// rebased the ledger at or after the window start, segments closing at or
// before that baseline are left out.
func EstimateUsage(l Ledger) (UsageEstimate, bool) {
	last := lastRemainderIndex(l)
	if last < 0 {
		return UsageEstimate{AnchorKind: AnchorNone}, false
	}

	end := l[last].Date
	est := UsageEstimate{
		WindowStart: end.Add(-UsageWindowDays * day),
		WindowEnd:   end,
		AnchorKind:  AnchorNone,
	}

	segments, corrections := ExtractSegments(l)
	est.Corrections = corrections
	anchorIdx, kind := selectAnchor(l, rebaseIndexes(corrections), est.WindowStart)
	if anchorIdx >= 0 {
		est.Anchor = timePtr(l[anchorIdx].Date)
		est.AnchorKind = kind
	}

	for _, seg := range segments {
		if kind == AnchorRebase && seg.EndIndex <= anchorIdx {
			continue
		}

		dur := seg.Days()
		overlap := overlapDays(seg.Start, seg.End, est.WindowStart, est.WindowEnd)
		if dur <= 0 || overlap <= 0 {
			continue
		}

		amount := seg.Consumed * float64(overlap) / float64(dur)
		est.Contributions = append(est.Contributions, Contribution{
			Segment:     seg,
			OverlapDays: overlap,
			Amount:      amount,
		})
		est.Total += amount
	}

	if est.Total < 0 {
		est.Total = 0
	}

	return est, true
}

// selectAnchor picks the window's starting observation: the latest rebase at
// or after the window start, else the earliest remainder inside the window,
// else the nearest remainder before it.
func selectAnchor(l Ledger, rebases []int, windowStart time.Time) (int, AnchorKind) {
	for i := len(rebases) - 1; i >= 0; i-- {
		if !l[rebases[i]].Date.Before(windowStart) {
			return rebases[i], AnchorRebase
		}
	}

	before := -1
	for i, ev := range l {
		if !ev.IsRemainder() {
			continue
		}
		if !ev.Date.Before(windowStart) {
			return i, AnchorInWindow
		}
		before = i
	}

	if before >= 0 {
		return before, AnchorBeforeWindow
	}
	return -1, AnchorNone
}

func overlapDays(start, end, windowStart, windowEnd time.Time) int {
	lo := start
	if windowStart.After(lo) {
		lo = windowStart
	}
	hi := end
	if windowEnd.Before(hi) {
		hi = windowEnd
	}
	if !hi.After(lo) {
		return 0
	}
	return daysBetween(lo, hi)
}
