package postgres

import (
	"context"
	"fmt"

	"github.com/CompaniTech/compani-api-sub000/internal/domain/entity"
	"github.com/CompaniTech/compani-api-sub000/internal/domain/repository"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

// LedgerRepo LedgerRepository implementation (usable with pool or tx).
// Increments go through a single additive upsert so concurrent batches can
// never lose consumption to a read-modify-write race.
type LedgerRepo struct {
	q Querier
}

// NewLedgerRepository builds the adapter. Pass a pool or a tx (Querier).
func NewLedgerRepository(q Querier) *LedgerRepo {
	return &LedgerRepo{q: q}
}

// Snapshot returns the entries for the given keys; keys with no row yet are
// absent from the result.
func (r *LedgerRepo) Snapshot(ctx context.Context, keys []entity.LedgerKey) ([]entity.FundingLedgerEntry, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	fundingIDs := make([]string, len(keys))
	months := make([]string, len(keys))
	for i, key := range keys {
		fundingIDs[i] = key.FundingID
		months[i] = key.Month
	}

	query := `
		SELECT l.funding_id, l.month, l.care_hours, l.amount_ttc, l.updated_at
		FROM funding_ledger l
		JOIN unnest($1::text[], $2::text[]) AS k(funding_id, month)
		  ON l.funding_id = k.funding_id AND l.month = k.month`
	rows, err := r.q.Query(ctx, query, fundingIDs, months)
	if err != nil {
		return nil, fmt.Errorf("snapshot funding ledger: %w", err)
	}
	defer rows.Close()

	var entries []entity.FundingLedgerEntry
	for rows.Next() {
		var e entity.FundingLedgerEntry
		if err := rows.Scan(&e.FundingID, &e.Month, &e.CareHours, &e.AmountTTC, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger entries: %w", err)
	}
	return entries, nil
}

// ApplyDelta adds the delta to the addressed entry, creating the row when
// absent. The addition happens inside the database.
func (r *LedgerRepo) ApplyDelta(ctx context.Context, delta entity.LedgerDelta) error {
	query := `
		INSERT INTO funding_ledger (funding_id, month, care_hours, amount_ttc, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (funding_id, month) DO UPDATE
		SET care_hours = funding_ledger.care_hours + EXCLUDED.care_hours,
		    amount_ttc = funding_ledger.amount_ttc + EXCLUDED.amount_ttc,
		    updated_at = NOW()`
	_, err := r.q.Exec(ctx, query, delta.FundingID, delta.Month, delta.CareHours, delta.AmountTTC)
	if err != nil {
		return fmt.Errorf("apply ledger delta: %w", err)
	}
	return nil
}
