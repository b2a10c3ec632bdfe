package postgres

import (
	"context"
	"fmt"

	"github.com/CompaniTech/compani-api-sub000/internal/domain/repository"
)

var _ repository.CreditNoteRepository = (*CreditNoteRepo)(nil)

// CreditNoteRepo CreditNoteRepository implementation (usable with pool or tx).
type CreditNoteRepo struct {
	q Querier
}

// NewCreditNoteRepository builds the adapter. Pass a pool or a tx (Querier).
func NewCreditNoteRepository(q Querier) *CreditNoteRepo {
	return &CreditNoteRepo{q: q}
}

// InvalidateByEvents marks every editable credit note referencing one of the
// event IDs as non-editable. Returns the number of notes touched.
func (r *CreditNoteRepo) InvalidateByEvents(ctx context.Context, companyID string, eventIDs []string) (int64, error) {
	if len(eventIDs) == 0 {
		return 0, nil
	}
	query := `
		UPDATE credit_notes
		SET is_editable = FALSE, updated_at = NOW()
		WHERE company_id = $1
		  AND is_editable = TRUE
		  AND event_ids && $2::text[]`
	tag, err := r.q.Exec(ctx, query, companyID, eventIDs)
	if err != nil {
		return 0, fmt.Errorf("invalidate credit notes: %w", err)
	}
	return tag.RowsAffected(), nil
}
