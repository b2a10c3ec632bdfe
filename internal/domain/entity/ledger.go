package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthKey is the calendar-month key of monthly ledger entries, "2006-01".
func MonthKey(date time.Time) string {
	return date.Format("2006-01")
}

// FundingLedgerEntry is the persisted accumulation of funding consumption,
// keyed by funding id and, for monthly-frequency fundings, by calendar month.
// Invariant: the accumulated value never exceeds the funding's cap; the
// allocator computes deltas that keep this true, and the repository applies
// them as atomic SQL additive increments.
type FundingLedgerEntry struct {
	FundingID string
	Month     string // "" for once-frequency fundings
	CareHours decimal.Decimal
	AmountTTC decimal.Decimal
	UpdatedAt time.Time
}

// LedgerKey addresses a ledger entry.
type LedgerKey struct {
	FundingID string
	Month     string
}

// Key returns the entry's address.
func (e FundingLedgerEntry) Key() LedgerKey {
	return LedgerKey{FundingID: e.FundingID, Month: e.Month}
}

// LedgerDelta is an additive increment produced by the allocator and committed
// by the finalizer. Deltas are never applied as read-modify-write.
type LedgerDelta struct {
	FundingID string
	Month     string
	CareHours decimal.Decimal
	AmountTTC decimal.Decimal
}

// Key returns the address of the entry the delta applies to.
func (d LedgerDelta) Key() LedgerKey {
	return LedgerKey{FundingID: d.FundingID, Month: d.Month}
}

// IsZero reports whether the delta carries no consumption.
func (d LedgerDelta) IsZero() bool {
	return d.CareHours.IsZero() && d.AmountTTC.IsZero()
}
