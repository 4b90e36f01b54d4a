package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "staybook/internal/bookings/errors"
	"staybook/internal/bookings/repository"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/logger"
	"staybook/pkg/model"

	"github.com/google/uuid"
)

const (
	lockInitialBackoff = 20 * time.Millisecond
	lockMaxBackoff     = 200 * time.Millisecond
	lockReleaseTimeout = 2 * time.Second

	// fn may use this share of the lock TTL; the remainder is headroom for
	// the commit.
	lockHoldFraction = 0.8
)

// ListingLocker serialises booking writes for one listing across every
// instance of the service.
type ListingLocker interface {
	WithListingLock(ctx context.Context, listingID string, fn func(ctx context.Context) error) error
}

type mongoListingLocker struct {
	repo repository.BookingLockRepository
	ttl  time.Duration
	wait time.Duration
	log  *logger.Logger
	now  func() time.Time
}

// NewListingLocker builds a locker on the advisory lock collection. Locks
// expire after ttl and fn is cancelled before that happens; an acquirer gives
// up after wait.
func NewListingLocker(repo repository.BookingLockRepository, ttl, wait time.Duration, log *logger.Logger) ListingLocker {
	return &mongoListingLocker{
		repo: repo,
		ttl:  ttl,
		wait: wait,
		log:  log,
		now:  time.Now,
	}
}

func (l *mongoListingLocker) WithListingLock(ctx context.Context, listingID string, fn func(ctx context.Context) error) error {
	lockID := model.ListingLockID(listingID)
	owner := uuid.NewString()

	if err := l.acquire(ctx, lockID, owner); err != nil {
		return err
	}
	defer l.release(ctx, lockID, owner)

	holdCtx, cancel := context.WithTimeout(ctx, l.holdTimeout())
	defer cancel()

	err := fn(holdCtx)
	if err != nil && ctx.Err() == nil && errors.Is(holdCtx.Err(), context.DeadlineExceeded) {
		l.log.Warn("Booking lock hold time exceeded, request aborted",
			"lock_id", lockID,
			"hold_timeout", l.holdTimeout(),
			"error", err,
		)
		return apperrors.Timeout("Booking request took too long, please retry")
	}
	return err
}

func (l *mongoListingLocker) holdTimeout() time.Duration {
	return time.Duration(float64(l.ttl) * lockHoldFraction)
}

func (l *mongoListingLocker) acquire(ctx context.Context, lockID, owner string) error {
	deadline := l.now().Add(l.wait)
	backoff := lockInitialBackoff

	for {
		now := l.now()
		lock := &model.BookingLock{
			ID:        lockID,
			Owner:     owner,
			ExpiresAt: now.Add(l.ttl),
			CreatedAt: now,
		}

		err := l.repo.Create(ctx, lock)
		if err == nil {
			return nil
		}
		if !errors.Is(err, bookingserrors.ErrLockHeld) {
			return apperrors.Internal("Failed to acquire booking lock", err)
		}

		taken, err := l.repo.DeleteExpired(ctx, lockID, now)
		if err != nil {
			return apperrors.Internal("Failed to acquire booking lock", err)
		}
		if taken {
			l.log.Warn("Took over expired booking lock", "lock_id", lockID)
			continue
		}

		if !l.now().Add(backoff).Before(deadline) {
			return apperrors.Conflict("Rental is busy with another booking request, please retry")
		}

		select {
		case <-ctx.Done():
			return apperrors.Timeout(fmt.Sprintf("Timed out waiting for booking lock: %v", ctx.Err()))
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > lockMaxBackoff {
			backoff = lockMaxBackoff
		}
	}
}

func (l *mongoListingLocker) release(ctx context.Context, lockID, owner string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lockReleaseTimeout)
	defer cancel()

	if err := l.repo.Release(ctx, lockID, owner); err != nil {
		l.log.Error("Failed to release booking lock, it will expire on its own",
			"lock_id", lockID,
			"error", err,
		)
	}
}
