package postgres

import (
	"context"
	"fmt"

	"github.com/CompaniTech/compani-api-sub000/internal/domain"
	"github.com/CompaniTech/compani-api-sub000/internal/domain/entity"
	"github.com/CompaniTech/compani-api-sub000/internal/domain/repository"
)

var _ repository.BillNumberRepository = (*BillNumberRepo)(nil)

// BillNumberRepo BillNumberRepository implementation (usable with pool or tx).
type BillNumberRepo struct {
	q Querier
}

// NewBillNumberRepository builds the adapter. Pass a pool or a tx (Querier).
func NewBillNumberRepository(q Querier) *BillNumberRepo {
	return &BillNumberRepo{q: q}
}

// FetchOrCreate returns the counter for (company, prefix), creating it at
// seq 1 on first use. The upsert makes first use race-free; the no-op update
// only exists so RETURNING yields a row either way.
func (r *BillNumberRepo) FetchOrCreate(ctx context.Context, companyID, prefix string) (*entity.BillNumberCounter, error) {
	query := `
		INSERT INTO bill_number_counters (company_id, prefix, seq, updated_at)
		VALUES ($1, $2, 1, NOW())
		ON CONFLICT (company_id, prefix) DO UPDATE SET prefix = EXCLUDED.prefix
		RETURNING seq, updated_at`
	counter := &entity.BillNumberCounter{CompanyID: companyID, Prefix: prefix}
	err := r.q.QueryRow(ctx, query, companyID, prefix).Scan(&counter.Seq, &counter.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("fetch bill number counter: %w", err)
	}
	return counter, nil
}

// Advance increments the counter by the consumed count in a single additive
// update.
func (r *BillNumberRepo) Advance(ctx context.Context, companyID, prefix string, consumed int64) error {
	query := `
		UPDATE bill_number_counters
		SET seq = seq + $3, updated_at = NOW()
		WHERE company_id = $1 AND prefix = $2`
	tag, err := r.q.Exec(ctx, query, companyID, prefix, consumed)
	if err != nil {
		return fmt.Errorf("advance bill number counter: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
