package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/CompaniTech/compani-api-sub000/internal/domain"
	"github.com/CompaniTech/compani-api-sub000/internal/domain/entity"
	"github.com/CompaniTech/compani-api-sub000/internal/domain/repository"
)

var _ repository.BillRepository = (*BillRepo)(nil)

// BillRepo BillRepository implementation (usable with pool or tx). The table
// carries a partial unique index on (company_id, number) where number is set;
// that index is what turns a stale counter into ErrBillNumberConflict.
type BillRepo struct {
	q Querier
}

// NewBillRepository builds the adapter. Pass a pool or a tx (Querier).
func NewBillRepository(q Querier) *BillRepo {
	return &BillRepo{q: q}
}

// Create persists a finalized bill. Bills are write-once.
func (r *BillRepo) Create(ctx context.Context, bill *entity.Bill) error {
	if bill.ID == "" {
		bill.ID = uuid.New().String()
	}
	query := `
		INSERT INTO bills (id, company_id, number, date, customer_id, third_party_payer_id, type, net_incl_taxes, subscriptions, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		bill.ID, bill.CompanyID, nullIfEmpty(bill.Number), bill.Date,
		bill.CustomerID, nullIfEmpty(bill.ThirdPartyPayerID), bill.Type,
		bill.NetInclTaxes, bill.Subscriptions, bill.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("bill number %s: %w", bill.Number, domain.ErrBillNumberConflict)
		}
		return fmt.Errorf("insert bill: %w", err)
	}
	return nil
}

// GetByID loads one bill.
func (r *BillRepo) GetByID(ctx context.Context, id string) (*entity.Bill, error) {
	query := `
		SELECT id, company_id, COALESCE(number, ''), date, customer_id, COALESCE(third_party_payer_id, ''), type, net_incl_taxes, subscriptions, created_at
		FROM bills
		WHERE id = $1`
	var b entity.Bill
	err := r.q.QueryRow(ctx, query, id).Scan(
		&b.ID, &b.CompanyID, &b.Number, &b.Date, &b.CustomerID, &b.ThirdPartyPayerID,
		&b.Type, &b.NetInclTaxes, &b.Subscriptions, &b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get bill: %w", err)
	}
	return &b, nil
}

// ListByCompany returns the company's bills, most recent first.
func (r *BillRepo) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]entity.Bill, error) {
	query := `
		SELECT id, company_id, COALESCE(number, ''), date, customer_id, COALESCE(third_party_payer_id, ''), type, net_incl_taxes, subscriptions, created_at
		FROM bills
		WHERE company_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, companyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	defer rows.Close()

	var bills []entity.Bill
	for rows.Next() {
		var b entity.Bill
		if err := rows.Scan(
			&b.ID, &b.CompanyID, &b.Number, &b.Date, &b.CustomerID, &b.ThirdPartyPayerID,
			&b.Type, &b.NetInclTaxes, &b.Subscriptions, &b.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		bills = append(bills, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bills: %w", err)
	}
	return bills, nil
}
