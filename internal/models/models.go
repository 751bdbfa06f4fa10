package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Orders API

type CreateHoldRequest struct {
	TicketTypeID   string  `json:"ticket_type_id" binding:"required"`
	Quantity       int     `json:"quantity"`
	PurchaserName  *string `json:"purchaser_name"`
	PurchaserEmail *string `json:"purchaser_email"`
	PurchaserPhone *string `json:"purchaser_phone"`
	// TTLSeconds overrides the configured hold TTL when positive.
	TTLSeconds int `json:"ttl_seconds"`
}

type CreateHoldResponse struct {
	OrderID        string    `json:"order_id"`
	LockToken      string    `json:"lock_token"`
	LockExpireTime time.Time `json:"lock_expire_time"`
}

type ConfirmOrderRequest struct {
	OrderID   string `json:"order_id" binding:"required"`
	LockToken string `json:"lock_token" binding:"required"`
}

type CancelOrderRequest struct {
	OrderID string `json:"order_id" binding:"required"`
}

type RefundOrderRequest struct {
	OrderID string `json:"order_id" binding:"required"`
}

type OrderStatsResponse struct {
	Total     int `json:"total"`
	Held      int `json:"held"`
	Paid      int `json:"paid"`
	Cancelled int `json:"cancelled"`
	Refunded  int `json:"refunded"`
	Expired   int `json:"expired"`
}

// Concerts API

type CreateConcertRequest struct {
	ConTitle        string     `json:"con_title" binding:"required"`
	ConIntroduction *string    `json:"con_introduction"`
	EventStartDate  *time.Time `json:"event_start_date"`
	EventEndDate    *time.Time `json:"event_end_date"`
}

type CreateConcertResponse struct {
	ID string `json:"id"`
}

type SubmitConcertRequest struct {
	ConcertID string `json:"concert_id" binding:"required"`
}

type ReviewConcertRequest struct {
	ConcertID string `json:"concert_id" binding:"required"`
	Status    string `json:"status" binding:"required"` // approved or rejected
	Notes     string `json:"notes"`
}

type ResubmitConcertRequest struct {
	ConcertID string `json:"concert_id" binding:"required"`
}

type SkipReviewRequest struct {
	ConcertID string `json:"concert_id" binding:"required"`
}

// ConcertStatsResponse mirrors the dashboard review counters
type ConcertStatsResponse struct {
	Total         int `json:"total"`
	PendingReview int `json:"pending_review"`
	Reviewing     int `json:"reviewing"`
	Published     int `json:"published"`
	Draft         int `json:"draft"`
	Rejected      int `json:"rejected"`
	Finished      int `json:"finished"`
	ReviewSkipped int `json:"review_skipped"`
}

// Ticket types API

type CreateTicketTypeRequest struct {
	ConcertID       string          `json:"concert_id" binding:"required"`
	TicketTypeName  string          `json:"ticket_type_name" binding:"required"`
	TicketTypePrice decimal.Decimal `json:"ticket_type_price"`
	TotalQuantity   int             `json:"total_quantity" binding:"required"`
	SellBeginDate   *time.Time      `json:"sell_begin_date"`
	SellEndDate     *time.Time      `json:"sell_end_date"`
}

type CreateTicketTypeResponse struct {
	ID string `json:"id"`
}
