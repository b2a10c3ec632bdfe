package entity

import "time"

// Customer is a person receiving care, the recipient of customer bills.
// Fundings and Subscriptions are loaded with the customer when billing.
type Customer struct {
	ID            string
	CompanyID     string
	Identity      Identity
	Fundings      []Funding
	Subscriptions []Subscription
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Identity civil identity of a customer.
type Identity struct {
	Title     string // "mr" | "mrs"
	Firstname string
	Lastname  string
}

// FullName renders the identity for invoice display.
func (i Identity) FullName() string {
	if i.Firstname == "" {
		return i.Lastname
	}
	return i.Firstname + " " + i.Lastname
}

// Subscription links a customer to a service.
type Subscription struct {
	ID         string
	CustomerID string
	Service    Service
	CreatedAt  time.Time
}
