package repository

import (
	"context"

	"github.com/CompaniTech/compani-api-sub000/internal/domain/entity"
)

// ThirdPartyPayerRepository read access to the payer registry.
type ThirdPartyPayerRepository interface {
	ListByCompany(ctx context.Context, companyID string) ([]entity.ThirdPartyPayer, error)
}
