package forecast

import "time"

// Segment is a stretch between two adjacent stock observations with no
// restock in between, and what was consumed over it.
type Segment struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Consumed float64   `json:"consumed"`
	// StartIndex and EndIndex are ledger positions of the bounding events.
	StartIndex int `json:"start_index"`
	EndIndex   int `json:"end_index"`
}

// Days is the segment duration in whole days.
func (s Segment) Days() int { return daysBetween(s.Start, s.End) }

// CorrectionReason says why a segment was altered or left out.
type CorrectionReason string

const (
	// CorrectionUnrecordedPurchase marks a remainder that did not drop from the
	// previous remainder, implying a purchase that was never entered.
	CorrectionUnrecordedPurchase CorrectionReason = "unrecorded_purchase"
	// CorrectionClamped marks a purchase-to-remainder drop that came out
	// negative and was counted as zero.
	CorrectionClamped CorrectionReason = "clamped"
	// CorrectionZeroDuration marks a segment that starts and ends on the same date.
	CorrectionZeroDuration CorrectionReason = "zero_duration"
)

// Correction records a read-time adjustment to the ledger's segments. The
// events themselves are never changed.
type Correction struct {
	Start  time.Time        `json:"start"`
	End    time.Time        `json:"end"`
	From   float64          `json:"from"`
	To     float64          `json:"to"`
	Reason CorrectionReason `json:"reason"`
	// Rebase is set when the closing remainder becomes the new baseline.
	Rebase   bool `json:"rebase"`
	EndIndex int  `json:"end_index"`
}

// ExtractSegments walks adjacent pairs of the ledger and returns the
// consumption segments together with every correction applied on the way.
//
// The walk carries the stock level: a remainder sets it, a purchase adds to
// it (or sets it when nothing is known yet). Purchase-to-purchase pairs only
// move the level.
func ExtractSegments(l Ledger) ([]Segment, []Correction) {
	var (
		segments    []Segment
		corrections []Correction
		level       float64
		known       bool
	)

	for i, ev := range l {
		if ev.IsPurchase() {
			if known {
				level += ev.Quantity
			} else {
				level = ev.Quantity
				known = true
			}
			continue
		}

		if i > 0 && known {
			prev := l[i-1]
			corr := Correction{
				Start:    prev.Date,
				End:      ev.Date,
				From:     level,
				To:       ev.Quantity,
				EndIndex: i,
			}
			consumed := level - ev.Quantity

			switch {
			case prev.IsRemainder() && ev.Quantity >= prev.Quantity:
				corr.Reason = CorrectionUnrecordedPurchase
				corr.Rebase = true
				corrections = append(corrections, corr)
			case !ev.Date.After(prev.Date):
				corr.Reason = CorrectionZeroDuration
				corrections = append(corrections, corr)
			default:
				if consumed < 0 {
					corr.Reason = CorrectionClamped
					corrections = append(corrections, corr)
					consumed = 0
				}
				segments = append(segments, Segment{
					Start:      prev.Date,
					End:        ev.Date,
					Consumed:   consumed,
					StartIndex: i - 1,
					EndIndex:   i,
				})
			}
		}

		level = ev.Quantity
		known = true
	}

	return segments, corrections
}

// rebaseIndexes returns the ledger positions that became baselines after an
// unrecorded purchase, in ledger order.
func rebaseIndexes(corrections []Correction) []int {
	var out []int
	for _, c := range corrections {
		if c.Rebase {
			out = append(out, c.EndIndex)
		}
	}
	return out
}
