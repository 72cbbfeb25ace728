package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"biliticket/otpservice/internal/model"
)

func newTestRecord(mobile, user, code string, expiresAt time.Time) *model.OTPRecord {
	return &model.OTPRecord{
		ID:             model.IdentityKey(mobile, user),
		Code:           code,
		MobileNumber:   mobile,
		UserID:         user,
		ExpirationTime: expiresAt.UnixMilli(),
	}
}

// runRecordStoreSuite checks the RecordStore contract against any backend.
func runRecordStoreSuite(t *testing.T, newStore func(t *testing.T) RecordStore) {
	t.Helper()
	ctx := context.Background()
	expiresAt := time.Now().Add(5 * time.Minute)

	t.Run("PutThenGet", func(t *testing.T) {
		store := newStore(t)
		rec := newTestRecord("1234567890", "user-get", "123456", expiresAt)
		if err := store.Put(ctx, rec.ID, rec); err != nil {
			t.Fatalf("Put failed: %v", err)
		}

		got, err := store.Get(ctx, rec.ID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got == nil {
			t.Fatalf("expected record, got nil")
		}
		if *got != *rec {
			t.Errorf("record mismatch: got %+v want %+v", *got, *rec)
		}

		// Get is non-destructive.
		again, err := store.Get(ctx, rec.ID)
		if err != nil || again == nil {
			t.Fatalf("second Get: record=%v err=%v", again, err)
		}
	})

	t.Run("GetAbsent", func(t *testing.T) {
		store := newStore(t)
		got, err := store.Get(ctx, model.IdentityKey("0000000000", "nobody"))
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got != nil {
			t.Fatalf("expected nil, got %+v", got)
		}
	})

	t.Run("PutOverwrites", func(t *testing.T) {
		store := newStore(t)
		first := newTestRecord("1234567890", "user-overwrite", "111111", expiresAt)
		second := newTestRecord("1234567890", "user-overwrite", "222222", expiresAt.Add(time.Minute))
		if err := store.Put(ctx, first.ID, first); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if err := store.Put(ctx, second.ID, second); err != nil {
			t.Fatalf("overwriting Put failed: %v", err)
		}

		got, err := store.Get(ctx, first.ID)
		if err != nil || got == nil {
			t.Fatalf("Get: record=%v err=%v", got, err)
		}
		if got.Code != "222222" || got.ExpirationTime != second.ExpirationTime {
			t.Errorf("expected overwritten record, got %+v", *got)
		}
	})

	t.Run("TakeRemoves", func(t *testing.T) {
		store := newStore(t)
		rec := newTestRecord("1234567890", "user-take", "654321", expiresAt)
		if err := store.Put(ctx, rec.ID, rec); err != nil {
			t.Fatalf("Put failed: %v", err)
		}

		got, err := store.TakeIfPresent(ctx, rec.ID)
		if err != nil {
			t.Fatalf("TakeIfPresent failed: %v", err)
		}
		if got == nil || got.Code != "654321" {
			t.Fatalf("expected taken record, got %+v", got)
		}

		again, err := store.TakeIfPresent(ctx, rec.ID)
		if err != nil {
			t.Fatalf("second TakeIfPresent failed: %v", err)
		}
		if again != nil {
			t.Fatalf("record taken twice: %+v", again)
		}
		if left, _ := store.Get(ctx, rec.ID); left != nil {
			t.Fatalf("record still readable after take: %+v", left)
		}
	})

	t.Run("TakeAbsent", func(t *testing.T) {
		store := newStore(t)
		got, err := store.TakeIfPresent(ctx, model.IdentityKey("0000000000", "ghost"))
		if err != nil {
			t.Fatalf("TakeIfPresent failed: %v", err)
		}
		if got != nil {
			t.Fatalf("expected nil, got %+v", got)
		}
	})

	t.Run("KeysAreIndependent", func(t *testing.T) {
		store := newStore(t)
		a := newTestRecord("1234567890", "alice", "111111", expiresAt)
		b := newTestRecord("1234567890", "bob", "222222", expiresAt)
		for _, rec := range []*model.OTPRecord{a, b} {
			if err := store.Put(ctx, rec.ID, rec); err != nil {
				t.Fatalf("Put failed: %v", err)
			}
		}
		if _, err := store.TakeIfPresent(ctx, a.ID); err != nil {
			t.Fatalf("TakeIfPresent failed: %v", err)
		}
		got, err := store.Get(ctx, b.ID)
		if err != nil || got == nil || got.Code != "222222" {
			t.Fatalf("unrelated record affected: record=%v err=%v", got, err)
		}
	})

	t.Run("ConcurrentTakeSingleWinner", func(t *testing.T) {
		store := newStore(t)
		rec := newTestRecord("1234567890", "user-race", "999999", expiresAt)
		if err := store.Put(ctx, rec.ID, rec); err != nil {
			t.Fatalf("Put failed: %v", err)
		}

		const callers = 16
		var (
			wg      sync.WaitGroup
			winners atomic.Int32
			start   = make(chan struct{})
		)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				got, err := store.TakeIfPresent(ctx, rec.ID)
				if err != nil {
					t.Errorf("TakeIfPresent failed: %v", err)
					return
				}
				if got != nil {
					winners.Add(1)
				}
			}()
		}
		close(start)
		wg.Wait()

		if n := winners.Load(); n != 1 {
			t.Fatalf("expected exactly one winner, got %d", n)
		}
	})
}
