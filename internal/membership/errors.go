package membership

import "errors"

var (
	// ErrNotFound is returned when no membership or recurring payment matches.
	ErrNotFound = errors.New("membership not found")
	// ErrInactive is returned when a debit is requested for a subscription that is not active.
	ErrInactive = errors.New("invalid or inactive subscription")
	// ErrNoRedirect is returned when the gateway created an order without a payment page.
	ErrNoRedirect = errors.New("gateway returned no redirect url")
)
