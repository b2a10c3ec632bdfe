package repository

import (
	"context"

	"github.com/CompaniTech/compani-api-sub000/internal/domain/entity"
)

// BillRepository persistence of finalized bills. Bills are write-once: there
// is no update operation, corrections go through credit notes.
type BillRepository interface {
	// Create persists a bill. A duplicate number for the company surfaces as
	// domain.ErrBillNumberConflict.
	Create(ctx context.Context, bill *entity.Bill) error

	GetByID(ctx context.Context, id string) (*entity.Bill, error)

	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]entity.Bill, error)
}
