package utils

import "errors"

// Common application errors used across services.
var (
	ErrInvalidToken      = errors.New("INVALID_TOKEN")
	ErrInvalidDevice     = errors.New("INVALID_DEVICE")
	ErrDeviceInactive    = errors.New("DEVICE_INACTIVE")
	ErrDeviceNotFound    = errors.New("DEVICE_NOT_FOUND")
	ErrRecordNotFound    = errors.New("RECORD_NOT_FOUND")
	ErrEmptyLineItems    = errors.New("EMPTY_LINE_ITEMS")
	ErrInvalidQuantity   = errors.New("INVALID_QUANTITY")
	ErrMissingPayment    = errors.New("MISSING_PAYMENT_METHOD")
	ErrMalformedPayload  = errors.New("MALFORMED_PAYLOAD")
	ErrNotInConflict     = errors.New("NOT_IN_CONFLICT")
	ErrMissingPatch      = errors.New("MISSING_PATCH")
	ErrInvalidAction     = errors.New("INVALID_ACTION")
	ErrInsufficientStock = errors.New("INSUFFICIENT_STOCK")
	ErrAlreadyCommitted  = errors.New("ALREADY_COMMITTED")
)
