package model

import "time"

// BookingLock is an advisory lock serialising booking writes for one listing.
// The unique _id makes a second insert fail while the lock is held.
type BookingLock struct {
	ID        string    `bson:"_id" json:"id"`
	Owner     string    `bson:"owner" json:"owner"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

func ListingLockID(listingID string) string {
	return "listing_lock_" + listingID
}

func (l *BookingLock) Expired(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}
