package payroll

import "github.com/shopspring/decimal"

const (
	// exactPlaces is far below the resolution of any stored amount, so a value
	// lying exactly on a rounding tie is still represented exactly.
	exactPlaces = 28
	// prorationPlaces matches the stored precision of the proration factor.
	prorationPlaces = 8
)

// proration carries present/working days as a fraction. Amounts are kept
// multiplied by the working days, so prorating never divides and a slip's
// amounts are divided exactly once, when they are reported.
type proration struct {
	present decimal.Decimal
	working decimal.Decimal
}

func newProration(presentDays, workingDays int) proration {
	return proration{
		present: decimal.NewFromInt(int64(presentDays)),
		working: decimal.NewFromInt(int64(workingDays)),
	}
}

// prorate scales an amount that is paid in proportion to attendance.
func (p proration) prorate(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(p.present)
}

// whole scales an amount that is paid in full regardless of attendance.
func (p proration) whole(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(p.working)
}

// value turns a scaled amount back into rupees.
func (p proration) value(scaled decimal.Decimal) decimal.Decimal {
	return scaled.DivRound(p.working, exactPlaces)
}

func (p proration) factor() decimal.Decimal {
	return p.present.DivRound(p.working, exactPlaces)
}
