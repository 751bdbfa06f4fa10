// Package lock implements the time-boxed reservation lock held by an order
// between hold and payment. A lock is just an opaque token plus an expiry
// stored on the order row; validation is a pure function of those two values
// and the current time, so it behaves identically across service instances.
package lock

import (
	"time"

	"github.com/google/uuid"

	apperrors "tessera/internal/errors"
)

// Lock is a minted reservation lock
type Lock struct {
	Token    string
	ExpireAt time.Time
}

// New mints a fresh lock valid for ttl from now. Minting a new lock for an
// order replaces any previous one, which invalidates the prior token.
func New(ttl time.Duration, now time.Time) Lock {
	return Lock{
		Token:    uuid.New().String(),
		ExpireAt: now.Add(ttl),
	}
}

// Validate checks a supplied token against the stored lock state.
// Expiry wins over mismatch: a stale token for an expired lock reports
// ErrLockExpired, so callers see the reason the hold is gone.
func Validate(storedToken string, expireAt time.Time, suppliedToken string, now time.Time) error {
	if !now.Before(expireAt) {
		return apperrors.ErrLockExpired
	}
	if storedToken == "" || storedToken != suppliedToken {
		return apperrors.ErrLockMismatch
	}
	return nil
}

// Expired reports whether the lock is past its expiry at now.
func Expired(expireAt time.Time, now time.Time) bool {
	return !now.Before(expireAt)
}
