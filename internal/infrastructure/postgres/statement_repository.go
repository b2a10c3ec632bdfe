package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/CompaniTech/compani-api-sub000/internal/domain"
	"github.com/CompaniTech/compani-api-sub000/internal/domain/entity"
	"github.com/CompaniTech/compani-api-sub000/internal/domain/repository"
)

var _ repository.StatementRepository = (*StatementRepo)(nil)

// StatementRepo StatementRepository implementation (usable with pool or tx).
type StatementRepo struct {
	q Querier
}

// NewStatementRepository builds the adapter. Pass a pool or a tx (Querier).
func NewStatementRepository(q Querier) *StatementRepo {
	return &StatementRepo{q: q}
}

// FindByPeriod returns the statement for (company, payer, period), or nil
// when this period has no payer bill yet.
func (r *StatementRepo) FindByPeriod(ctx context.Context, companyID, payerID, period string) (*entity.PayerStatement, error) {
	query := `
		SELECT id, company_id, third_party_payer_id, period, number, net_incl_taxes, created_at, updated_at
		FROM payer_statements
		WHERE company_id = $1 AND third_party_payer_id = $2 AND period = $3`
	var s entity.PayerStatement
	err := r.q.QueryRow(ctx, query, companyID, payerID, period).Scan(
		&s.ID, &s.CompanyID, &s.ThirdPartyPayerID, &s.Period, &s.Number,
		&s.NetInclTaxes, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find payer statement: %w", err)
	}
	return &s, nil
}

// Create persists a new statement.
func (r *StatementRepo) Create(ctx context.Context, statement *entity.PayerStatement) error {
	if statement.ID == "" {
		statement.ID = uuid.New().String()
	}
	query := `
		INSERT INTO payer_statements (id, company_id, third_party_payer_id, period, number, net_incl_taxes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		statement.ID, statement.CompanyID, statement.ThirdPartyPayerID, statement.Period,
		statement.Number, statement.NetInclTaxes, statement.CreatedAt, statement.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("statement for period %s already exists: %w", statement.Period, err)
		}
		return fmt.Errorf("insert payer statement: %w", err)
	}
	return nil
}

// AddToNet accumulates a payer bill's amount into an existing statement. The
// addition happens inside the database.
func (r *StatementRepo) AddToNet(ctx context.Context, id string, amount decimal.Decimal) error {
	query := `
		UPDATE payer_statements
		SET net_incl_taxes = net_incl_taxes + $2, updated_at = NOW()
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, id, amount)
	if err != nil {
		return fmt.Errorf("accumulate payer statement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
