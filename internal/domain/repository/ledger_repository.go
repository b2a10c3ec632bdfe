package repository

import (
	"context"

	"github.com/CompaniTech/compani-api-sub000/internal/domain/entity"
)

// LedgerRepository persistence of funding consumption. The ledger is shared
// mutable state across every customer funded by the same payer: increments
// must be applied as atomic SQL additions, never as read-modify-write on a
// cached value, so the cap invariant holds under concurrent batches.
type LedgerRepository interface {
	// Snapshot returns the entries for the given keys. Missing entries are
	// simply absent from the result (zero consumption).
	Snapshot(ctx context.Context, keys []entity.LedgerKey) ([]entity.FundingLedgerEntry, error)

	// ApplyDelta adds the delta to the addressed entry, creating it when
	// absent (upsert with additive update).
	ApplyDelta(ctx context.Context, delta entity.LedgerDelta) error
}
