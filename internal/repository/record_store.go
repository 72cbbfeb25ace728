package repository

import (
	"context"
	"errors"
	"fmt"

	"biliticket/otpservice/internal/model"
)

// ErrStoreUnavailable reports that the backing store could not serve a request
// (connection failure, timeout, cancelled context). It never means "not found".
var ErrStoreUnavailable = errors.New("record store unavailable")

// RecordStore owns OTP records keyed by identity key.
// Implementations: Redis (production), PostgreSQL, or in-memory (local dev / single instance).
type RecordStore interface {
	// Put inserts or overwrites the record for key.
	Put(ctx context.Context, key string, record *model.OTPRecord) error
	// Get is a non-destructive read for diagnostics. Returns nil, nil when absent.
	Get(ctx context.Context, key string) (*model.OTPRecord, error)
	// TakeIfPresent reads and removes the record for key in one atomic step.
	// Returns nil, nil when absent.
	TakeIfPresent(ctx context.Context, key string) (*model.OTPRecord, error)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}
