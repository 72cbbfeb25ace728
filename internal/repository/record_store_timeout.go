package repository

import (
	"context"
	"errors"
	"time"

	"biliticket/otpservice/internal/model"
)

type timeoutRecordStore struct {
	next    RecordStore
	timeout time.Duration
}

// WithTimeout bounds every call on next. An exceeded deadline is always
// reported as ErrStoreUnavailable. timeout <= 0 returns next unchanged.
func WithTimeout(next RecordStore, timeout time.Duration) RecordStore {
	if timeout <= 0 {
		return next
	}
	return &timeoutRecordStore{next: next, timeout: timeout}
}

func (s *timeoutRecordStore) Put(ctx context.Context, key string, record *model.OTPRecord) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return asUnavailable("put", s.next.Put(ctx, key, record))
}

func (s *timeoutRecordStore) Get(ctx context.Context, key string) (*model.OTPRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	rec, err := s.next.Get(ctx, key)
	return rec, asUnavailable("get", err)
}

func (s *timeoutRecordStore) TakeIfPresent(ctx context.Context, key string) (*model.OTPRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	rec, err := s.next.TakeIfPresent(ctx, key)
	return rec, asUnavailable("take", err)
}

func asUnavailable(op string, err error) error {
	if err == nil || errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return unavailable(op, err)
	}
	return err
}
