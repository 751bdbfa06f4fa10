package models

import "time"

// NATS event subjects
const (
	EventOrderHeld      = "order.held"
	EventOrderPaid      = "order.paid"
	EventOrderCancelled = "order.cancelled"
	EventOrderRefunded  = "order.refunded"
	EventOrderExpired   = "order.expired"

	EventConcertSubmitted = "concert.submitted"
	EventConcertPublished = "concert.published"
	EventConcertRejected  = "concert.rejected"
	EventConcertFinished  = "concert.finished"

	// Consumed subjects: the payment provider reports results on the bus.
	EventPaymentCompleted = "payment.completed"
	EventPaymentFailed    = "payment.failed"
)

// OrderTransitionEvent is published on every order status change
type OrderTransitionEvent struct {
	OrderID      string      `json:"order_id"`
	TicketTypeID string      `json:"ticket_type_id"`
	Quantity     int         `json:"quantity"`
	From         OrderStatus `json:"from"`
	To           OrderStatus `json:"to"`
	Timestamp    time.Time   `json:"timestamp"`
}

// ConcertTransitionEvent is published on every concert status change
type ConcertTransitionEvent struct {
	ConcertID     string        `json:"concert_id"`
	ConInfoStatus ConInfoStatus `json:"con_info_status"`
	ReviewStatus  *ReviewStatus `json:"review_status"`
	Timestamp     time.Time     `json:"timestamp"`
}

// PaymentCompletedEvent reports a successful payment for a held order
type PaymentCompletedEvent struct {
	OrderID   string    `json:"order_id"`
	LockToken string    `json:"lock_token"`
	PaymentID string    `json:"payment_id"`
	Timestamp time.Time `json:"timestamp"`
}

// PaymentFailedEvent reports a failed or abandoned payment
type PaymentFailedEvent struct {
	OrderID   string    `json:"order_id"`
	PaymentID string    `json:"payment_id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}
