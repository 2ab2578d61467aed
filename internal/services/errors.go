package services

import "errors"

// Shared error taxonomy for the usage and entitlement services. Handlers
// map these to HTTP statuses; services never swallow them.
var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrAccountNotFound      = errors.New("account not found")
	ErrStoreUnavailable     = errors.New("store unavailable")
	ErrReconciliationFailed = errors.New("reconciliation failed")
)
