package repository

import "context"

// CreditNoteRepository exposes only the invalidation contract the billing
// engine needs: adjustment records referencing rebilled events stop being
// editable.
type CreditNoteRepository interface {
	// InvalidateByEvents marks every credit note referencing one of the event
	// IDs as non-editable. Returns the number of notes touched.
	InvalidateByEvents(ctx context.Context, companyID string, eventIDs []string) (int64, error)
}
