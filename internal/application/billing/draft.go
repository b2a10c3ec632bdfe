// Package billing implements the billing engine use cases: draft bill
// aggregation and bill finalization. Draft aggregates are in-memory only;
// nothing is persisted until the operator confirms a batch.
package billing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/CompaniTech/compani-api-sub000/internal/domain/entity"
)

// DraftBillLine is the per-(bill, subscription) accumulation: totals, hours
// and the priced events it summarizes.
type DraftBillLine struct {
	SubscriptionID string                 `json:"subscription_id"`
	ServiceName    string                 `json:"service_name"`
	ServiceNature  entity.Nature          `json:"service_nature"`
	VAT            decimal.Decimal        `json:"vat"`
	UnitExclTaxes  decimal.Decimal        `json:"unit_excl_taxes"`
	Hours          decimal.Decimal        `json:"hours"`
	ExclTaxes      decimal.Decimal        `json:"excl_taxes"`
	InclTaxes      decimal.Decimal        `json:"incl_taxes"`
	Discount       decimal.Decimal        `json:"discount"`
	Events         []entity.BillEventLine `json:"events"`
}

// CustomerDraftBill is the customer portion of a group.
type CustomerDraftBill struct {
	CustomerID    string          `json:"customer_id"`
	CustomerName  string          `json:"customer_name"`
	NetInclTaxes  decimal.Decimal `json:"net_incl_taxes"`
	Subscriptions []DraftBillLine `json:"subscriptions"`
}

// PayerDraftBill is one third-party payer portion of a group, carrying the
// ledger deltas to commit atomically with the bill.
type PayerDraftBill struct {
	ThirdPartyPayerID string               `json:"third_party_payer_id"`
	PayerName         string               `json:"payer_name"`
	ExternalBilling   bool                 `json:"external_billing"`
	NetInclTaxes      decimal.Decimal      `json:"net_incl_taxes"`
	Subscriptions     []DraftBillLine      `json:"subscriptions"`
	Deltas            []entity.LedgerDelta `json:"deltas"`
}

// CustomerBillGroup is the draft output for one customer: an optional
// customer bill (absent when fully payer-funded) plus zero-or-more payer
// bills, and the per-event pricing snapshots the finalizer embeds into the
// events.
type CustomerBillGroup struct {
	CustomerID   string                                 `json:"customer_id"`
	CustomerName string                                 `json:"customer_name"`
	Customer     *CustomerDraftBill                     `json:"customer,omitempty"`
	Payers       []PayerDraftBill                       `json:"payers,omitempty"`
	Snapshots    map[string]entity.EventBillingSnapshot `json:"snapshots"`
}

// DraftBills is a whole draft batch for a company and billing window.
type DraftBills struct {
	CompanyID string              `json:"company_id"`
	StartDate time.Time           `json:"start_date"`
	EndDate   time.Time           `json:"end_date"`
	Groups    []CustomerBillGroup `json:"groups"`
}

// EventCount returns the number of events summarized by the batch.
func (d *DraftBills) EventCount() int {
	n := 0
	for _, g := range d.Groups {
		n += len(g.Snapshots)
	}
	return n
}
