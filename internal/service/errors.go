package service

import (
	"errors"

	"biliticket/otpservice/internal/repository"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	// ErrStoreUnavailable is the repository sentinel, re-exported for handlers.
	ErrStoreUnavailable = repository.ErrStoreUnavailable
)

// Outcome classifies a Validate call. Only OutcomeSuccess validates a code;
// the negatives are distinguished for logs, metrics and audit only.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeNotFound Outcome = "not_found"
	OutcomeMismatch Outcome = "mismatch"
	OutcomeExpired  Outcome = "expired"
)
