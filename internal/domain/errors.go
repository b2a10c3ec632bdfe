package domain

import "errors"

// Domain errors (no external dependencies).
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("access denied")

	// ErrMissingRateVersion means a subscription references a service with no
	// rate version effective at the event date. Upstream data corruption: the
	// whole batch aborts before any persistence.
	ErrMissingRateVersion = errors.New("no rate version effective at event date")

	// ErrInvalidFundingFrequency means a fixed-nature funding declares a
	// monthly frequency, which is not a supported combination.
	ErrInvalidFundingFrequency = errors.New("fixed funding cannot use monthly frequency")

	// ErrBillNumberConflict means a reserved bill number collided with an
	// already persisted one (lost counter advance). The caller must re-derive
	// the batch numbering; the engine never retries on its own.
	ErrBillNumberConflict = errors.New("bill number already exists")
)
