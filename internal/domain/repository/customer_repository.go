package repository

import (
	"context"

	"github.com/CompaniTech/compani-api-sub000/internal/domain/entity"
)

// CustomerRepository read access to customers with their subscriptions
// (service + rate versions + surcharge plans) and fundings populated, as the
// aggregator consumes them.
type CustomerRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Customer, error)

	// ListForBilling returns the company's customers with subscriptions and
	// fundings loaded. An empty ids slice means all customers.
	ListForBilling(ctx context.Context, companyID string, ids []string) ([]entity.Customer, error)
}
