package router

import "errors"

// Service errors
var (
	// ErrRateLimited rejects a request before any fraud scoring, bank call
	// or ledger write happens.
	ErrRateLimited = errors.New("device transaction rate limit exceeded")

	// ErrNotRequested rejects an approval for a transaction that is not in
	// the REQUESTED state.
	ErrNotRequested = errors.New("transaction is not in requested state")

	// ErrScreeningUnavailable wraps a fraud pipeline failure. The rule
	// stage fails closed, so this never silently allows a payment.
	ErrScreeningUnavailable = errors.New("fraud screening unavailable")
)
