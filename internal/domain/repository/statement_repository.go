package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/CompaniTech/compani-api-sub000/internal/domain/entity"
)

// StatementRepository persistence of periodic payer statements.
type StatementRepository interface {
	// FindByPeriod returns the statement for (company, payer, period), or nil
	// when this period has no payer bill yet.
	FindByPeriod(ctx context.Context, companyID, payerID, period string) (*entity.PayerStatement, error)

	Create(ctx context.Context, statement *entity.PayerStatement) error

	// AddToNet accumulates a payer bill's amount into an existing statement.
	AddToNet(ctx context.Context, id string, amount decimal.Decimal) error
}
