package service

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "staybook/pkg/errors"
	"staybook/pkg/logger"
	"staybook/pkg/model"
)

func TestListingLock_ReleasedAfterUse(t *testing.T) {
	locks := newFakeLockRepository()
	locker := NewListingLocker(locks, 10*time.Second, time.Second, logger.Discard())

	ran := false
	err := locker.WithListingLock(context.Background(), "listing-1", func(ctx context.Context) error {
		ran = true
		if locks.held() != 1 {
			t.Errorf("expected lock to be held inside fn, got %d", locks.held())
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ran {
		t.Fatal("fn was not called")
	}
	if locks.held() != 0 {
		t.Errorf("expected lock to be released, %d still held", locks.held())
	}
}

func TestListingLock_ReleasedOnError(t *testing.T) {
	locks := newFakeLockRepository()
	locker := NewListingLocker(locks, 10*time.Second, time.Second, logger.Discard())

	boom := errors.New("boom")
	err := locker.WithListingLock(context.Background(), "listing-1", func(ctx context.Context) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}
	if locks.held() != 0 {
		t.Errorf("expected lock to be released, %d still held", locks.held())
	}
}

func TestListingLock_BusyAfterWait(t *testing.T) {
	locks := newFakeLockRepository()
	_ = locks.Create(context.Background(), &model.BookingLock{
		ID:        model.ListingLockID("listing-1"),
		Owner:     "someone-else",
		ExpiresAt: time.Now().Add(time.Minute),
	})
	locker := NewListingLocker(locks, 10*time.Second, 100*time.Millisecond, logger.Discard())

	called := false
	err := locker.WithListingLock(context.Background(), "listing-1", func(ctx context.Context) error {
		called = true
		return nil
	})

	assertCode(t, err, apperrors.CodeConflict)
	assertMessage(t, err, "Rental is busy with another booking request, please retry")
	if called {
		t.Error("fn must not run without the lock")
	}

	lock := locks.lockFor(model.ListingLockID("listing-1"))
	if lock == nil || lock.Owner != "someone-else" {
		t.Error("foreign lock must be left in place")
	}
}

func TestListingLock_TakesOverExpiredLock(t *testing.T) {
	locks := newFakeLockRepository()
	_ = locks.Create(context.Background(), &model.BookingLock{
		ID:        model.ListingLockID("listing-1"),
		Owner:     "crashed-instance",
		ExpiresAt: time.Now().Add(-time.Second),
	})
	locker := NewListingLocker(locks, 10*time.Second, 100*time.Millisecond, logger.Discard())

	err := locker.WithListingLock(context.Background(), "listing-1", func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Fatalf("expected expired lock to be taken over, got %v", err)
	}
	if locks.held() != 0 {
		t.Errorf("expected lock to be released, %d still held", locks.held())
	}
}

func TestListingLock_OtherListingsProceed(t *testing.T) {
	locks := newFakeLockRepository()
	locker := NewListingLocker(locks, 10*time.Second, 100*time.Millisecond, logger.Discard())

	err := locker.WithListingLock(context.Background(), "listing-1", func(ctx context.Context) error {
		return locker.WithListingLock(ctx, "listing-2", func(ctx context.Context) error {
			return nil
		})
	})
	if err != nil {
		t.Fatalf("locks on different listings must not contend: %v", err)
	}
}

func TestListingLock_ReleaseKeepsSuccessorLock(t *testing.T) {
	locks := newFakeLockRepository()
	id := model.ListingLockID("listing-1")
	_ = locks.Create(context.Background(), &model.BookingLock{ID: id, Owner: "successor", ExpiresAt: time.Now().Add(time.Minute)})

	if err := locks.Release(context.Background(), id, "original"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if locks.held() != 1 {
		t.Error("release by a former owner must not remove the successor's lock")
	}
}

func TestListingLock_HolderCutOffBeforeExpiry(t *testing.T) {
	locks := newFakeLockRepository()
	ttl := 100 * time.Millisecond
	locker := NewListingLocker(locks, ttl, time.Second, logger.Discard())

	var lockExpiry, fnDeadline time.Time
	err := locker.WithListingLock(context.Background(), "listing-1", func(ctx context.Context) error {
		lockExpiry = locks.lockFor(model.ListingLockID("listing-1")).ExpiresAt
		fnDeadline, _ = ctx.Deadline()
		<-ctx.Done()
		return ctx.Err()
	})

	assertCode(t, err, apperrors.CodeTimeout)
	if fnDeadline.IsZero() {
		t.Fatal("fn ran without a deadline")
	}
	if !fnDeadline.Before(lockExpiry) {
		t.Errorf("fn deadline %v is not before lock expiry %v", fnDeadline, lockExpiry)
	}
	if locks.held() != 0 {
		t.Errorf("expected lock to be released, %d still held", locks.held())
	}
}

func TestListingLock_CallerCancellationIsNotATimeout(t *testing.T) {
	locks := newFakeLockRepository()
	locker := NewListingLocker(locks, 10*time.Second, time.Second, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	err := locker.WithListingLock(ctx, "listing-1", func(ctx context.Context) error {
		cancel()
		return ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected caller cancellation to pass through, got %v", err)
	}
}
