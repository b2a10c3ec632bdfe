package repository

import (
	"context"
	"time"

	"github.com/CompaniTech/compani-api-sub000/internal/domain/entity"
)

// EventRepository read/write access to care events. Events are created by the
// scheduling subsystem; the billing engine only reads them and flips the
// billed state at finalization.
type EventRepository interface {
	// ListNotBilled returns the unbilled events of a company within
	// [start, end), optionally restricted to customer IDs. Events come back
	// in chronological order.
	ListNotBilled(ctx context.Context, companyID string, start, end time.Time, customerIDs []string) ([]entity.CareEvent, error)

	// MarkBilled flips the event to billed and embeds the pricing snapshot.
	MarkBilled(ctx context.Context, eventID string, snapshot entity.EventBillingSnapshot) error
}
