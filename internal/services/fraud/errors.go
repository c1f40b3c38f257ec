package fraud

import "errors"

// Service errors
var (
	// ErrBlocklistUnavailable wraps a blocklist store failure. The rule
	// stage fails closed: a store error propagates instead of silently
	// allowing the payment.
	ErrBlocklistUnavailable = errors.New("blocklist store unavailable")
)
