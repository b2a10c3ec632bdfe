package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// CareEvent is an immutable scheduling fact created by the scheduling
// subsystem. Once billed, the engine writes IsBilled and the pricing snapshot;
// everything else stays read-only.
type CareEvent struct {
	ID             string
	CompanyID      string
	CustomerID     string
	SubscriptionID string
	AuxiliaryID    string
	StartDate      time.Time
	EndDate        time.Time
	IsBilled       bool
	Bills          EventBillingSnapshot
}

// DurationMinutes returns the event duration in whole minutes.
func (e *CareEvent) DurationMinutes() int64 {
	return int64(e.EndDate.Sub(e.StartDate) / time.Minute)
}

// EventBillingSnapshot is the per-bill pricing embedded into the event at
// finalization time, so the event keeps its billed amounts even if rates or
// fundings change later.
type EventBillingSnapshot struct {
	ExclTaxesCustomer decimal.Decimal `json:"excl_taxes_customer"`
	InclTaxesCustomer decimal.Decimal `json:"incl_taxes_customer"`
	ExclTaxesTpp      decimal.Decimal `json:"excl_taxes_tpp"`
	InclTaxesTpp      decimal.Decimal `json:"incl_taxes_tpp"`
	FundingID         string          `json:"funding_id,omitempty"`
	ThirdPartyPayerID string          `json:"third_party_payer_id,omitempty"`
	CareHours         decimal.Decimal `json:"care_hours"`
	Surcharges        []string        `json:"surcharges,omitempty"`
}
