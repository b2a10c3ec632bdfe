package repository

import (
	"context"

	"github.com/CompaniTech/compani-api-sub000/internal/domain/entity"
)

// BillNumberRepository is the persistence side of the bill number sequencer.
//
// The finalizer fetches the counter once per batch, assigns seq..seq+count-1
// to the bills in a stable order, persists them, then advances the counter by
// the consumed count. If the advance is lost the next batch reuses numbers and
// the unique index on persisted bills surfaces the conflict; the engine never
// retries on its own.
type BillNumberRepository interface {
	// FetchOrCreate atomically returns the counter for (company, prefix),
	// creating it at seq 1 on first use.
	FetchOrCreate(ctx context.Context, companyID, prefix string) (*entity.BillNumberCounter, error)

	// Advance increments the counter by the count of numbers consumed, in a
	// single additive update.
	Advance(ctx context.Context, companyID, prefix string, consumed int64) error
}
