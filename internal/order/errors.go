package order

import "errors"

var (
	// ErrBadRequest marks malformed input that slipped past transport
	// validation (empty item list, non-positive quantity or page).
	ErrBadRequest = errors.New("bad request")

	// ErrNotFound covers an unknown or inactive order id, and a page
	// beyond the last one.
	ErrNotFound = errors.New("order not found")

	// ErrValidation means the catalog could not confirm every requested
	// product; the creation persists nothing.
	ErrValidation = errors.New("product validation failed")

	// ErrPersistence wraps store write failures.
	ErrPersistence = errors.New("order persistence failed")

	// ErrInvalidTransition rejects a payment confirmation for an order
	// that is neither PENDING nor already PAID.
	ErrInvalidTransition = errors.New("illegal status transition")

	// ErrSessionUnavailable means the order was persisted but the payment
	// gateway could not open a session; session creation may be retried.
	ErrSessionUnavailable = errors.New("payment session unavailable")
)
