package entity

import "time"

// Company represents an agency operating the home-care service. Bills and
// bill-number counters are scoped to a company.
type Company struct {
	ID        string
	Name      string
	TradeName string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
