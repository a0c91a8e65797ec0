package forecast

// lastRemainderIndex returns the position of the last remainder, or -1.
func lastRemainderIndex(l Ledger) int {
	for i := len(l) - 1; i >= 0; i-- {
		if l[i].IsRemainder() {
			return i
		}
	}
	return -1
}

// CurrentStock reconstructs the stock on hand. A remainder is an absolute
// observation, so only purchases after the last one can have changed the
// level. Without any remainder the purchases are summed. Nil means unknown.
func CurrentStock(l Ledger) *float64 {
	last := lastRemainderIndex(l)

	var (
		stock float64
		known bool
	)
	if last >= 0 {
		stock = l[last].Quantity
		known = true
	}

	for _, ev := range l[last+1:] {
		if ev.IsPurchase() {
			stock += ev.Quantity
			known = true
		}
	}

	if !known {
		return nil
	}
	return &stock
}
