package repository

import (
	"context"

	"github.com/CompaniTech/compani-api-sub000/internal/domain/entity"
)

// CompanyRepository read access to companies.
type CompanyRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Company, error)
}
