package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bill types.
const (
	BillTypeAutomatic = "automatic" // produced by the billing engine
	BillTypeManual    = "manual"
)

// Bill is a finalized, immutable invoice. Number is empty only for
// externally-billed payer bills. Corrections go through credit notes; a bill
// is never mutated after creation.
type Bill struct {
	ID                string
	CompanyID         string
	Number            string
	Date              time.Time
	CustomerID        string
	ThirdPartyPayerID string // empty for customer bills
	Type              string // BillTypeAutomatic | BillTypeManual
	NetInclTaxes      decimal.Decimal
	Subscriptions     []BillSubscription
	CreatedAt         time.Time
}

// IsPayerBill reports whether the bill goes to a third-party payer.
func (b *Bill) IsPayerBill() bool {
	return b.ThirdPartyPayerID != ""
}

// BillSubscription is the per-subscription snapshot embedded in a bill:
// the service as sold, the summarized events and the totals at finalization.
type BillSubscription struct {
	SubscriptionID string          `json:"subscription_id"`
	ServiceName    string          `json:"service_name"`
	ServiceNature  Nature          `json:"service_nature"`
	VAT            decimal.Decimal `json:"vat"`
	Events         []BillEventLine `json:"events"`
	Hours          decimal.Decimal `json:"hours"`
	UnitExclTaxes  decimal.Decimal `json:"unit_excl_taxes"`
	ExclTaxes      decimal.Decimal `json:"excl_taxes"`
	InclTaxes      decimal.Decimal `json:"incl_taxes"`
	Discount       decimal.Decimal `json:"discount"`
}

// BillEventLine is one priced event inside a bill subscription snapshot.
type BillEventLine struct {
	EventID     string          `json:"event_id"`
	AuxiliaryID string          `json:"auxiliary_id,omitempty"`
	StartDate   time.Time       `json:"start_date"`
	EndDate     time.Time       `json:"end_date"`
	ExclTaxes   decimal.Decimal `json:"excl_taxes"`
	InclTaxes   decimal.Decimal `json:"incl_taxes"`
	Surcharges  []string        `json:"surcharges,omitempty"`
	FundingID   string          `json:"funding_id,omitempty"`
	CareHours   decimal.Decimal `json:"care_hours,omitempty"`
}
