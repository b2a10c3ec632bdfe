package entity

import "time"

// Billing modes of a third-party payer. Only direct payers are eligible for
// ledger-based allocation: indirect payers reimburse the customer afterwards.
const (
	BillingModeDirect   = "direct"
	BillingModeIndirect = "indirect"
)

// ThirdPartyPayer is a public or private funder covering part of a customer's
// care costs. Payers with ExternalBilling set are invoiced outside the system
// and their bills carry no sequence number.
type ThirdPartyPayer struct {
	ID              string
	CompanyID       string
	Name            string
	BillingMode     string // BillingModeDirect | BillingModeIndirect
	ExternalBilling bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
