package errors

import "errors"

// Caller-facing outcomes of the reservation and review engines. All of these
// are legitimate business results, not engine faults; handlers map them to
// HTTP statuses.
var (
	ErrOutOfStock         = errors.New("not enough remaining tickets")
	ErrLockExpired        = errors.New("reservation lock has expired")
	ErrLockMismatch       = errors.New("reservation lock token does not match")
	ErrInvalidTransition  = errors.New("order status transition is not allowed")
	ErrInvalidReviewState = errors.New("concert is not in a reviewable state")
	ErrUnauthorized       = errors.New("user is not authorized")
	ErrNotFound           = errors.New("record not found")
	ErrSaleWindowClosed   = errors.New("ticket type is not on sale")
)
