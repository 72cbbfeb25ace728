package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"biliticket/otpservice/internal/model"
	"biliticket/otpservice/pkg/clock"
)

const redisKeyPrefix = "otp:"

// minRedisTTL keeps a record addressable even if it is written already expired,
// so Validate reports it as expired rather than missing.
const minRedisTTL = time.Second

type redisRecordStore struct {
	client    redis.UniversalClient
	clock     clock.Clock
	retention time.Duration
}

// NewRedisRecordStore stores records as JSON with a native TTL of
// (expiration - now + retention). TakeIfPresent uses GETDEL, Redis >= 6.2.
func NewRedisRecordStore(client redis.UniversalClient, clk clock.Clock, retention time.Duration) RecordStore {
	if clk == nil {
		clk = clock.New()
	}
	return &redisRecordStore{client: client, clock: clk, retention: retention}
}

func (s *redisRecordStore) Put(ctx context.Context, key string, record *model.OTPRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode otp record: %w", err)
	}

	ttl := record.ExpiresAt().Sub(s.clock.Now()) + s.retention
	if ttl < minRedisTTL {
		ttl = minRedisTTL
	}
	if err := s.client.Set(ctx, redisKeyPrefix+key, payload, ttl).Err(); err != nil {
		return unavailable("redis set", err)
	}
	return nil
}

func (s *redisRecordStore) Get(ctx context.Context, key string) (*model.OTPRecord, error) {
	val, err := s.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("redis get", err)
	}
	return decodeRecord(val)
}

func (s *redisRecordStore) TakeIfPresent(ctx context.Context, key string) (*model.OTPRecord, error) {
	val, err := s.client.GetDel(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("redis getdel", err)
	}
	return decodeRecord(val)
}

func decodeRecord(val []byte) (*model.OTPRecord, error) {
	var rec model.OTPRecord
	if err := json.Unmarshal(val, &rec); err != nil {
		return nil, fmt.Errorf("decode otp record: %w", err)
	}
	return &rec, nil
}
