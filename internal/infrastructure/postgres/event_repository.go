package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/CompaniTech/compani-api-sub000/internal/domain"
	"github.com/CompaniTech/compani-api-sub000/internal/domain/entity"
	"github.com/CompaniTech/compani-api-sub000/internal/domain/repository"
)

var _ repository.EventRepository = (*EventRepo)(nil)

// EventRepo EventRepository implementation (usable with pool or tx).
type EventRepo struct {
	q Querier
}

// NewEventRepository builds the adapter. Pass a pool or a tx (Querier).
func NewEventRepository(q Querier) *EventRepo {
	return &EventRepo{q: q}
}

// ListNotBilled returns the unbilled events of the window in chronological
// order, ties broken by id so batches iterate the same way every run.
func (r *EventRepo) ListNotBilled(ctx context.Context, companyID string, start, end time.Time, customerIDs []string) ([]entity.CareEvent, error) {
	query := `
		SELECT id, company_id, customer_id, subscription_id, COALESCE(auxiliary_id, ''), start_date, end_date, is_billed
		FROM care_events
		WHERE company_id = $1
		  AND is_billed = FALSE
		  AND start_date >= $2
		  AND start_date < $3`
	args := []any{companyID, start, end}
	if len(customerIDs) > 0 {
		query += ` AND customer_id = ANY($4)`
		args = append(args, customerIDs)
	}
	query += ` ORDER BY start_date, id`

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list unbilled events: %w", err)
	}
	defer rows.Close()

	var events []entity.CareEvent
	for rows.Next() {
		var ev entity.CareEvent
		if err := rows.Scan(
			&ev.ID, &ev.CompanyID, &ev.CustomerID, &ev.SubscriptionID, &ev.AuxiliaryID,
			&ev.StartDate, &ev.EndDate, &ev.IsBilled,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// MarkBilled flips the event to billed and embeds the pricing snapshot.
func (r *EventRepo) MarkBilled(ctx context.Context, eventID string, snapshot entity.EventBillingSnapshot) error {
	query := `
		UPDATE care_events
		SET is_billed = TRUE, bills = $2
		WHERE id = $1 AND is_billed = FALSE`
	tag, err := r.q.Exec(ctx, query, eventID, snapshot)
	if err != nil {
		return fmt.Errorf("mark event billed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
