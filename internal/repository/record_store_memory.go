package repository

import (
	"context"
	"sync"
	"time"

	"biliticket/otpservice/internal/model"
	"biliticket/otpservice/pkg/clock"
)

type memoryRecordStore struct {
	mu        sync.Mutex
	records   map[string]model.OTPRecord
	clock     clock.Clock
	retention time.Duration
	lastPrune time.Time
}

// NewMemoryRecordStore returns a process-local RecordStore. Records are kept
// until retention has passed after their expiration time. They are dropped
// lazily on access, and Put sweeps the whole map at most once per retention
// period. With retention <= 0 records are kept until taken or overwritten, so
// the map grows with the number of distinct pairs never validated.
func NewMemoryRecordStore(clk clock.Clock, retention time.Duration) RecordStore {
	if clk == nil {
		clk = clock.New()
	}
	return &memoryRecordStore{
		records:   make(map[string]model.OTPRecord),
		clock:     clk,
		retention: retention,
	}
}

func (s *memoryRecordStore) Put(ctx context.Context, key string, record *model.OTPRecord) error {
	if err := ctx.Err(); err != nil {
		return unavailable("put", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	s.records[key] = *record
	return nil
}

func (s *memoryRecordStore) Get(ctx context.Context, key string) (*model.OTPRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("get", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.lookupLocked(key)
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *memoryRecordStore) TakeIfPresent(ctx context.Context, key string) (*model.OTPRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("take", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.lookupLocked(key)
	if !ok {
		return nil, nil
	}
	delete(s.records, key)
	return &rec, nil
}

// pruneLocked drops every record past retention. Must be called with s.mu held.
func (s *memoryRecordStore) pruneLocked() {
	if s.retention <= 0 {
		return
	}
	now := s.clock.Now()
	if now.Sub(s.lastPrune) < s.retention {
		return
	}
	s.lastPrune = now
	for key, rec := range s.records {
		if now.After(rec.ExpiresAt().Add(s.retention)) {
			delete(s.records, key)
		}
	}
}

// lookupLocked must be called with s.mu held.
func (s *memoryRecordStore) lookupLocked(key string) (model.OTPRecord, bool) {
	rec, ok := s.records[key]
	if !ok {
		return model.OTPRecord{}, false
	}
	if s.retention > 0 && s.clock.Now().After(rec.ExpiresAt().Add(s.retention)) {
		delete(s.records, key)
		return model.OTPRecord{}, false
	}
	return rec, true
}
