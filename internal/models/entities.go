package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order. Held is the only
// non-terminal state.
type OrderStatus string

const (
	OrderHeld      OrderStatus = "held"
	OrderPaid      OrderStatus = "paid"
	OrderCancelled OrderStatus = "cancelled"
	OrderRefunded  OrderStatus = "refunded"
	OrderExpired   OrderStatus = "expired"
)

// Terminal reports whether no further transitions are allowed out of s.
func (s OrderStatus) Terminal() bool {
	return s != OrderHeld
}

// ConInfoStatus is the publication state of a concert listing.
type ConInfoStatus string

const (
	ConcertDraft     ConInfoStatus = "draft"
	ConcertReviewing ConInfoStatus = "reviewing"
	ConcertPublished ConInfoStatus = "published"
	ConcertRejected  ConInfoStatus = "rejected"
	ConcertFinished  ConInfoStatus = "finished"
)

// ReviewStatus is the review axis of a concert, independent of ConInfoStatus.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
	ReviewSkipped  ReviewStatus = "skipped"
)

// User roles
const (
	RoleUser      = "user"
	RoleAdmin     = "admin"
	RoleSuperuser = "superuser"
)

// User represents a platform account
type User struct {
	UserID       int64     `json:"user_id" db:"user_id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Name         string    `json:"name" db:"name"`
	Role         string    `json:"role" db:"role"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	RegisteredAt time.Time `json:"registered_at" db:"registered_at"`
	LastLoggedIn time.Time `json:"last_logged_in" db:"last_logged_in"`
}

// Concert represents an event listing with its two status axes
type Concert struct {
	ID              string        `json:"id" db:"id"`
	ConTitle        string        `json:"con_title" db:"con_title"`
	ConIntroduction *string       `json:"con_introduction" db:"con_introduction"`
	ConInfoStatus   ConInfoStatus `json:"con_info_status" db:"con_info_status"`
	ReviewStatus    *ReviewStatus `json:"review_status" db:"review_status"`
	ReviewNote      *string       `json:"review_note" db:"review_note"`
	EventStartDate  *time.Time    `json:"event_start_date" db:"event_start_date"`
	EventEndDate    *time.Time    `json:"event_end_date" db:"event_end_date"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" db:"updated_at"`
}

// TicketType is a sellable category of tickets for a concert.
// RemainingQuantity is mutated only through the inventory ledger operations
// in the repository layer, never assigned directly.
type TicketType struct {
	ID                string          `json:"id" db:"id"`
	ConcertID         string          `json:"concert_id" db:"concert_id"`
	TicketTypeName    string          `json:"ticket_type_name" db:"ticket_type_name"`
	TicketTypePrice   decimal.Decimal `json:"ticket_type_price" db:"ticket_type_price"`
	TotalQuantity     int             `json:"total_quantity" db:"total_quantity"`
	RemainingQuantity int             `json:"remaining_quantity" db:"remaining_quantity"`
	SoldQuantity      int             `json:"sold_quantity" db:"sold_quantity"`
	SellBeginDate     *time.Time      `json:"sell_begin_date" db:"sell_begin_date"`
	SellEndDate       *time.Time      `json:"sell_end_date" db:"sell_end_date"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

// Order is a single purchase attempt bound to one ticket type.
// While held, LockToken and LockExpireTime carry the reservation lock;
// both are cleared on every terminal transition.
type Order struct {
	ID              string      `json:"id" db:"id"`
	TicketTypeID    string      `json:"ticket_type_id" db:"ticket_type_id"`
	UserID          *int64      `json:"user_id" db:"user_id"`
	Quantity        int         `json:"quantity" db:"quantity"`
	OrderStatus     OrderStatus `json:"order_status" db:"order_status"`
	IsLocked        bool        `json:"is_locked" db:"is_locked"`
	LockToken       *string     `json:"-" db:"lock_token"`
	LockExpireTime  *time.Time  `json:"lock_expire_time" db:"lock_expire_time"`
	PurchaserName   *string     `json:"purchaser_name" db:"purchaser_name"`
	PurchaserEmail  *string     `json:"purchaser_email" db:"purchaser_email"`
	PurchaserPhone  *string     `json:"purchaser_phone" db:"purchaser_phone"`
	InvoicePlatform *string     `json:"invoice_platform" db:"invoice_platform"`
	InvoiceType     *string     `json:"invoice_type" db:"invoice_type"`
	InvoiceCarrier  *string     `json:"invoice_carrier" db:"invoice_carrier"`
	InvoiceStatus   *string     `json:"invoice_status" db:"invoice_status"`
	InvoiceNumber   *string     `json:"invoice_number" db:"invoice_number"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at" db:"updated_at"`
}
