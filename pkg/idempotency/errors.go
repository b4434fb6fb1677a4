package idempotency

import "errors"

var (
	// ErrKeyRequired is returned for an empty key
	ErrKeyRequired = errors.New("idempotency key is required")

	// ErrKeyInvalid is returned for keys with characters outside [a-zA-Z0-9_-]
	ErrKeyInvalid = errors.New("invalid idempotency key format")

	// ErrKeyTooLong is returned for keys longer than the configured maximum
	ErrKeyTooLong = errors.New("idempotency key exceeds maximum length")

	// ErrNotFound is returned when no record exists for a key
	ErrNotFound = errors.New("idempotency key not found")

	// ErrMessageAlreadyProcessed is returned when a message id was already recorded
	ErrMessageAlreadyProcessed = errors.New("message has already been processed")
)
