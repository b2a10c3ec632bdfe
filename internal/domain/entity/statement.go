package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PayerStatement is the periodic roll-up of all payer bills for one
// third-party payer and billing period. It is created with its own sequence
// number on the first payer bill of the period; later bills in the same
// period accumulate into NetInclTaxes and reuse the number.
type PayerStatement struct {
	ID                string
	CompanyID         string
	ThirdPartyPayerID string
	Period            string // "2006-01"
	Number            string
	NetInclTaxes      decimal.Decimal
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// BillNumberCounter holds the next sequence value for one (company, prefix)
// pair. Created on first use of a prefix, advanced exactly once per
// finalization batch by the count of numbers consumed.
type BillNumberCounter struct {
	CompanyID string
	Prefix    string // e.g. "FACT-0921"
	Seq       int64
	UpdatedAt time.Time
}
