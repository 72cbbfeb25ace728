package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"biliticket/otpservice/pkg/clock"
)

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Fatalf("start redis container: %v", err)
	}

	uri, err := ctr.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("redis connection string: %v", err)
	}
	opt, err := redis.ParseURL(uri)
	if err != nil {
		t.Fatalf("parse redis url: %v", err)
	}
	client := redis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisRecordStore(t *testing.T) {
	client := newRedisClient(t)
	runRecordStoreSuite(t, func(t *testing.T) RecordStore {
		if err := client.FlushDB(context.Background()).Err(); err != nil {
			t.Fatalf("flush redis: %v", err)
		}
		return NewRedisRecordStore(client, nil, time.Minute)
	})
}

func TestRedisRecordStore_NativeTTL(t *testing.T) {
	client := newRedisClient(t)
	clk := clock.NewFake(time.Now())
	store := NewRedisRecordStore(client, clk, time.Minute)
	ctx := context.Background()

	rec := newTestRecord("1234567890", "user123", "123456", clk.Now().Add(5*time.Minute))
	if err := store.Put(ctx, rec.ID, rec); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	ttl, err := client.PTTL(ctx, redisKeyPrefix+rec.ID).Result()
	if err != nil {
		t.Fatalf("PTTL failed: %v", err)
	}
	if ttl <= 5*time.Minute || ttl > 6*time.Minute {
		t.Fatalf("expected ttl of expiry plus retention, got %s", ttl)
	}
}

func TestRedisRecordStore_ExpiredRecordStillAddressable(t *testing.T) {
	client := newRedisClient(t)
	store := NewRedisRecordStore(client, nil, 0)
	ctx := context.Background()

	rec := newTestRecord("1234567890", "user123", "123456", time.Now().Add(-time.Minute))
	if err := store.Put(ctx, rec.ID, rec); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, err := store.TakeIfPresent(ctx, rec.ID)
	if err != nil || got == nil {
		t.Fatalf("expected expired record to be taken, got record=%v err=%v", got, err)
	}
}

func TestRedisRecordStore_ClosedClientIsUnavailable(t *testing.T) {
	client := newRedisClient(t)
	store := NewRedisRecordStore(client, nil, time.Minute)
	_ = client.Close()

	_, err := store.TakeIfPresent(context.Background(), "1234567890:user123")
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}
