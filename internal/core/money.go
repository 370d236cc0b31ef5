package core

// Milliunits is a ledger amount in thousandths of the display currency.
type Milliunits int64

// Display returns the amount in display units.
// Only aggregation converts; stored amounts stay integral.
func (m Milliunits) Display() float64 {
	return float64(m) / 1000.0
}

// Ptr returns a pointer to m, for optional goal targets.
func (m Milliunits) Ptr() *Milliunits {
	return &m
}
