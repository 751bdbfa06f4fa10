package service

import (
	"context"
	"fmt"
	"time"

	apperrors "tessera/internal/errors"
	"tessera/internal/lock"
	"tessera/internal/logger"
	"tessera/internal/metrics"
	"tessera/internal/models"
)

// OrderService is the order state machine. Orders start held and end in
// exactly one of paid, cancelled, refunded or expired; every transition
// checks its guard here and applies its side effects atomically in the
// store. Event publishing and metrics never fail a transition.
type OrderService struct {
	orders        OrderStore
	ticketTypes   TicketTypeStore
	publisher     Publisher
	holdTTL       time.Duration
	refundRestock bool

	// now is swapped out by tests to simulate lock expiry.
	now func() time.Time
}

func NewOrderService(orders OrderStore, ticketTypes TicketTypeStore, publisher Publisher, opts Options) *OrderService {
	return &OrderService{
		orders:        orders,
		ticketTypes:   ticketTypes,
		publisher:     publisher,
		holdTTL:       opts.HoldTTL,
		refundRestock: opts.RefundRestock,
		now:           time.Now,
	}
}

// CreateHold reserves inventory for a new order and issues its reservation
// lock. Fails with ErrOutOfStock when remaining quantity is insufficient,
// leaving no side effects.
func (s *OrderService) CreateHold(ctx context.Context, req *models.CreateHoldRequest) (*models.CreateHoldResponse, error) {
	qty := req.Quantity
	if qty <= 0 {
		qty = 1
	}

	tt, err := s.ticketTypes.GetByID(ctx, req.TicketTypeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket type: %w", err)
	}
	if tt == nil {
		return nil, apperrors.ErrNotFound
	}

	now := s.now()
	if err := checkSaleWindow(tt, now); err != nil {
		return nil, err
	}

	ttl := s.holdTTL
	if req.TTLSeconds > 0 {
		ttl = time.Duration(req.TTLSeconds) * time.Second
	}

	l := lock.New(ttl, now)
	order := &models.Order{
		TicketTypeID:   tt.ID,
		Quantity:       qty,
		OrderStatus:    models.OrderHeld,
		IsLocked:       true,
		LockToken:      &l.Token,
		LockExpireTime: &l.ExpireAt,
		PurchaserName:  req.PurchaserName,
		PurchaserEmail: req.PurchaserEmail,
		PurchaserPhone: req.PurchaserPhone,
	}

	if err := s.orders.CreateHeld(ctx, order); err != nil {
		if err == apperrors.ErrOutOfStock {
			metrics.OutOfStock(tt.ID)
			return nil, err
		}
		return nil, fmt.Errorf("failed to create hold: %w", err)
	}

	metrics.HoldOpened()
	metrics.OrderTransition("new", string(models.OrderHeld))
	s.publishOrderEvent(ctx, models.EventOrderHeld, order, "new", models.OrderHeld)

	return &models.CreateHoldResponse{
		OrderID:        order.ID,
		LockToken:      l.Token,
		LockExpireTime: l.ExpireAt,
	}, nil
}

// Confirm settles a held order after payment. The supplied lock token must
// match the stored one and the lock must still be live; the inventory was
// already decremented at hold time, so only the sold counter moves.
func (s *OrderService) Confirm(ctx context.Context, orderID, token string) (*models.Order, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.OrderStatus.Terminal() {
		return nil, apperrors.ErrInvalidTransition
	}

	if order.LockToken == nil || order.LockExpireTime == nil {
		// Held without a lock is the inconsistency the sweeper resolves;
		// a confirm attempt sees it as an expired lock.
		return nil, apperrors.ErrLockExpired
	}
	if err := lock.Validate(*order.LockToken, *order.LockExpireTime, token, s.now()); err != nil {
		return nil, err
	}

	if err := s.orders.MarkPaid(ctx, order); err != nil {
		return nil, err
	}

	order.OrderStatus = models.OrderPaid
	order.IsLocked = false
	order.LockToken = nil
	order.LockExpireTime = nil

	metrics.HoldClosed()
	metrics.OrderTransition(string(models.OrderHeld), string(models.OrderPaid))
	s.publishOrderEvent(ctx, models.EventOrderPaid, order, string(models.OrderHeld), models.OrderPaid)

	return order, nil
}

// Cancel releases a held order on the purchaser's initiative. The lock need
// not be valid; holding the order id is enough to abandon it.
func (s *OrderService) Cancel(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.OrderStatus.Terminal() {
		return nil, apperrors.ErrInvalidTransition
	}

	if err := s.orders.ReleaseHeld(ctx, order, models.OrderCancelled); err != nil {
		return nil, err
	}

	order.OrderStatus = models.OrderCancelled
	order.IsLocked = false
	order.LockToken = nil
	order.LockExpireTime = nil

	metrics.HoldClosed()
	metrics.OrderTransition(string(models.OrderHeld), string(models.OrderCancelled))
	s.publishOrderEvent(ctx, models.EventOrderCancelled, order, string(models.OrderHeld), models.OrderCancelled)

	return order, nil
}

// Refund moves a paid order to refunded. Whether the units return to the
// pool is the RefundRestock policy flag, not a guess.
func (s *OrderService) Refund(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.OrderStatus != models.OrderPaid {
		return nil, apperrors.ErrInvalidTransition
	}

	if err := s.orders.MarkRefunded(ctx, order, s.refundRestock); err != nil {
		return nil, err
	}

	order.OrderStatus = models.OrderRefunded

	metrics.OrderTransition(string(models.OrderPaid), string(models.OrderRefunded))
	s.publishOrderEvent(ctx, models.EventOrderRefunded, order, string(models.OrderPaid), models.OrderRefunded)

	return order, nil
}

// ExtendHold re-issues the reservation lock on a still-held order. The
// caller must present the current token; the previous token stops working
// the moment the new one is installed.
func (s *OrderService) ExtendHold(ctx context.Context, orderID, token string) (*models.CreateHoldResponse, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.OrderStatus.Terminal() {
		return nil, apperrors.ErrInvalidTransition
	}
	if order.LockToken == nil || order.LockExpireTime == nil {
		return nil, apperrors.ErrLockExpired
	}

	now := s.now()
	if err := lock.Validate(*order.LockToken, *order.LockExpireTime, token, now); err != nil {
		return nil, err
	}

	l := lock.New(s.holdTTL, now)
	if err := s.orders.ReplaceLock(ctx, orderID, l.Token, l.ExpireAt); err != nil {
		return nil, err
	}

	return &models.CreateHoldResponse{
		OrderID:        orderID,
		LockToken:      l.Token,
		LockExpireTime: l.ExpireAt,
	}, nil
}

// Sweep forces a held order with an expired lock to expired and returns its
// units to the pool. Sweeping an order that is already terminal, or whose
// lock is still live, fails with ErrInvalidTransition and changes nothing,
// which is what makes repeated sweeps safe.
func (s *OrderService) Sweep(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.OrderStatus.Terminal() {
		return nil, apperrors.ErrInvalidTransition
	}
	if order.LockExpireTime != nil && !lock.Expired(*order.LockExpireTime, s.now()) {
		return nil, apperrors.ErrInvalidTransition
	}

	if err := s.orders.ReleaseHeld(ctx, order, models.OrderExpired); err != nil {
		return nil, err
	}

	order.OrderStatus = models.OrderExpired
	order.IsLocked = false
	order.LockToken = nil
	order.LockExpireTime = nil

	metrics.HoldClosed()
	metrics.OrderTransition(string(models.OrderHeld), string(models.OrderExpired))
	s.publishOrderEvent(ctx, models.EventOrderExpired, order, string(models.OrderHeld), models.OrderExpired)

	return order, nil
}

// ListExpiredHolds returns the held orders whose lock has expired, for the
// sweeper to reclaim through Sweep.
func (s *OrderService) ListExpiredHolds(ctx context.Context) ([]models.Order, error) {
	return s.orders.ListExpiredHeld(ctx, s.now())
}

func (s *OrderService) Get(ctx context.Context, orderID string) (*models.Order, error) {
	return s.getOrder(ctx, orderID)
}

func (s *OrderService) List(ctx context.Context, status *models.OrderStatus) ([]models.Order, error) {
	return s.orders.List(ctx, status)
}

func (s *OrderService) Stats(ctx context.Context) (*models.OrderStatsResponse, error) {
	return s.orders.Stats(ctx)
}

func (s *OrderService) getOrder(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, apperrors.ErrNotFound
	}
	return order, nil
}

func (s *OrderService) publishOrderEvent(ctx context.Context, subject string, order *models.Order, from string, to models.OrderStatus) {
	event := models.OrderTransitionEvent{
		OrderID:      order.ID,
		TicketTypeID: order.TicketTypeID,
		Quantity:     order.Quantity,
		From:         models.OrderStatus(from),
		To:           to,
		Timestamp:    s.now(),
	}

	if err := s.publisher.Publish(subject, event); err != nil {
		logger.WithContext(ctx).Error("Failed to publish order event",
			"error", err,
			"order_id", order.ID,
			"event_type", subject)
	}
}

func checkSaleWindow(tt *models.TicketType, now time.Time) error {
	if tt.SellBeginDate != nil && now.Before(*tt.SellBeginDate) {
		return apperrors.ErrSaleWindowClosed
	}
	if tt.SellEndDate != nil && now.After(*tt.SellEndDate) {
		return apperrors.ErrSaleWindowClosed
	}
	return nil
}
