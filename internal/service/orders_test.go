package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "tessera/internal/errors"
	"tessera/internal/models"
)

type orderFixture struct {
	store   *memStore
	pub     *fakePublisher
	svc     *OrderService
	tt      *models.TicketType
	current time.Time
}

func newOrderFixture(t *testing.T, total int, opts Options) *orderFixture {
	t.Helper()

	store := newMemStore()
	pub := &fakePublisher{}
	svc := NewOrderService(store, ticketTypeView{store}, pub, opts)

	f := &orderFixture{
		store:   store,
		pub:     pub,
		svc:     svc,
		current: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	svc.now = func() time.Time { return f.current }

	tt := &models.TicketType{ConcertID: "concert-1", TicketTypeName: "GA", TotalQuantity: total}
	require.NoError(t, store.Create(context.Background(), tt))
	f.tt = tt

	return f
}

func (f *orderFixture) advance(d time.Duration) {
	f.current = f.current.Add(d)
}

func (f *orderFixture) remaining(t *testing.T) int {
	t.Helper()
	tt, err := f.store.GetTicketType(context.Background(), f.tt.ID)
	require.NoError(t, err)
	return tt.RemainingQuantity
}

func TestCreateHoldReservesInventory(t *testing.T) {
	f := newOrderFixture(t, 10, Options{HoldTTL: 15 * time.Minute})

	resp, err := f.svc.CreateHold(context.Background(), &models.CreateHoldRequest{
		TicketTypeID: f.tt.ID,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.OrderID)
	assert.NotEmpty(t, resp.LockToken)
	assert.Equal(t, f.current.Add(15*time.Minute), resp.LockExpireTime)
	assert.Equal(t, 9, f.remaining(t))
	assert.True(t, f.pub.published(models.EventOrderHeld))

	order, err := f.svc.Get(context.Background(), resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderHeld, order.OrderStatus)
	assert.True(t, order.IsLocked)
}

func TestCreateHoldOutOfStock(t *testing.T) {
	f := newOrderFixture(t, 1, Options{HoldTTL: 15 * time.Minute})

	_, err := f.svc.CreateHold(context.Background(), &models.CreateHoldRequest{
		TicketTypeID: f.tt.ID, Quantity: 2,
	})
	assert.ErrorIs(t, err, apperrors.ErrOutOfStock)
	assert.Equal(t, 1, f.remaining(t))
}

func TestCreateHoldUnknownTicketType(t *testing.T) {
	f := newOrderFixture(t, 1, Options{HoldTTL: 15 * time.Minute})

	_, err := f.svc.CreateHold(context.Background(), &models.CreateHoldRequest{
		TicketTypeID: "no-such-type",
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCreateHoldOutsideSaleWindow(t *testing.T) {
	f := newOrderFixture(t, 10, Options{HoldTTL: 15 * time.Minute})

	begin := f.current.Add(time.Hour)
	f.store.ticketTypes[f.tt.ID].SellBeginDate = &begin

	_, err := f.svc.CreateHold(context.Background(), &models.CreateHoldRequest{
		TicketTypeID: f.tt.ID,
	})
	assert.ErrorIs(t, err, apperrors.ErrSaleWindowClosed)
}

func TestConcurrentHoldsOnLastUnit(t *testing.T) {
	f := newOrderFixture(t, 1, Options{HoldTTL: 15 * time.Minute})

	const callers = 8
	var wg sync.WaitGroup
	results := make(chan error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.CreateHold(context.Background(), &models.CreateHoldRequest{
				TicketTypeID: f.tt.ID,
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, outOfStock int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case err == apperrors.ErrOutOfStock:
			outOfStock++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, callers-1, outOfStock)
	assert.Equal(t, 0, f.remaining(t))
}

func TestConfirmWithCorrectToken(t *testing.T) {
	f := newOrderFixture(t, 10, Options{HoldTTL: 15 * time.Minute})

	resp, err := f.svc.CreateHold(context.Background(), &models.CreateHoldRequest{TicketTypeID: f.tt.ID})
	require.NoError(t, err)

	order, err := f.svc.Confirm(context.Background(), resp.OrderID, resp.LockToken)
	require.NoError(t, err)

	assert.Equal(t, models.OrderPaid, order.OrderStatus)
	assert.False(t, order.IsLocked)
	// Paid keeps the unit out of the pool; no re-increment.
	assert.Equal(t, 9, f.remaining(t))
	assert.True(t, f.pub.published(models.EventOrderPaid))

	// A second confirm finds a terminal order.
	_, err = f.svc.Confirm(context.Background(), resp.OrderID, resp.LockToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestConfirmWithWrongToken(t *testing.T) {
	f := newOrderFixture(t, 10, Options{HoldTTL: 15 * time.Minute})

	resp, err := f.svc.CreateHold(context.Background(), &models.CreateHoldRequest{TicketTypeID: f.tt.ID})
	require.NoError(t, err)

	_, err = f.svc.Confirm(context.Background(), resp.OrderID, "forged-token")
	assert.ErrorIs(t, err, apperrors.ErrLockMismatch)
	assert.Equal(t, 9, f.remaining(t))
}

func TestConfirmAfterExpiry(t *testing.T) {
	f := newOrderFixture(t, 10, Options{HoldTTL: time.Minute})

	resp, err := f.svc.CreateHold(context.Background(), &models.CreateHoldRequest{TicketTypeID: f.tt.ID})
	require.NoError(t, err)

	f.advance(61 * time.Second)

	_, err = f.svc.Confirm(context.Background(), resp.OrderID, resp.LockToken)
	assert.ErrorIs(t, err, apperrors.ErrLockExpired)
}

func TestCancelRestoresInventory(t *testing.T) {
	f := newOrderFixture(t, 10, Options{HoldTTL: 15 * time.Minute})

	resp, err := f.svc.CreateHold(context.Background(), &models.CreateHoldRequest{TicketTypeID: f.tt.ID})
	require.NoError(t, err)
	assert.Equal(t, 9, f.remaining(t))

	order, err := f.svc.Cancel(context.Background(), resp.OrderID)
	require.NoError(t, err)

	assert.Equal(t, models.OrderCancelled, order.OrderStatus)
	assert.Equal(t, 10, f.remaining(t))
	assert.True(t, f.pub.published(models.EventOrderCancelled))

	_, err = f.svc.Cancel(context.Background(), resp.OrderID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestCancelWorksWithExpiredLock(t *testing.T) {
	f := newOrderFixture(t, 10, Options{HoldTTL: time.Minute})

	resp, err := f.svc.CreateHold(context.Background(), &models.CreateHoldRequest{TicketTypeID: f.tt.ID})
	require.NoError(t, err)

	// The lock guard does not apply to cancel.
	f.advance(2 * time.Minute)

	order, err := f.svc.Cancel(context.Background(), resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, order.OrderStatus)
	assert.Equal(t, 10, f.remaining(t))
}

func TestSweepExpiredHold(t *testing.T) {
	f := newOrderFixture(t, 10, Options{HoldTTL: time.Minute})

	resp, err := f.svc.CreateHold(context.Background(), &models.CreateHoldRequest{TicketTypeID: f.tt.ID})
	require.NoError(t, err)
	assert.Equal(t, 9, f.remaining(t))

	f.advance(61 * time.Second)

	order, err := f.svc.Sweep(context.Background(), resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderExpired, order.OrderStatus)
	assert.Equal(t, 10, f.remaining(t))
	assert.True(t, f.pub.published(models.EventOrderExpired))

	// Sweeping again is a no-op failure, not a second release.
	_, err = f.svc.Sweep(context.Background(), resp.OrderID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	assert.Equal(t, 10, f.remaining(t))
}

func TestSweepRefusesLiveLock(t *testing.T) {
	f := newOrderFixture(t, 10, Options{HoldTTL: 15 * time.Minute})

	resp, err := f.svc.CreateHold(context.Background(), &models.CreateHoldRequest{TicketTypeID: f.tt.ID})
	require.NoError(t, err)

	_, err = f.svc.Sweep(context.Background(), resp.OrderID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	assert.Equal(t, 9, f.remaining(t))
}

func TestListExpiredHolds(t *testing.T) {
	f := newOrderFixture(t, 10, Options{HoldTTL: time.Minute})

	stale, err := f.svc.CreateHold(context.Background(), &models.CreateHoldRequest{TicketTypeID: f.tt.ID})
	require.NoError(t, err)

	f.advance(2 * time.Minute)

	fresh, err := f.svc.CreateHold(context.Background(), &models.CreateHoldRequest{TicketTypeID: f.tt.ID})
	require.NoError(t, err)

	expired, err := f.svc.ListExpiredHolds(context.Background())
	require.NoError(t, err)

	require.Len(t, expired, 1)
	assert.Equal(t, stale.OrderID, expired[0].ID)
	assert.NotEqual(t, fresh.OrderID, expired[0].ID)
}

func TestRefundKeepsInventoryByDefault(t *testing.T) {
	f := newOrderFixture(t, 10, Options{HoldTTL: 15 * time.Minute})

	resp, err := f.svc.CreateHold(context.Background(), &models.CreateHoldRequest{TicketTypeID: f.tt.ID})
	require.NoError(t, err)
	_, err = f.svc.Confirm(context.Background(), resp.OrderID, resp.LockToken)
	require.NoError(t, err)

	order, err := f.svc.Refund(context.Background(), resp.OrderID)
	require.NoError(t, err)

	assert.Equal(t, models.OrderRefunded, order.OrderStatus)
	assert.Equal(t, 9, f.remaining(t))
	assert.True(t, f.pub.published(models.EventOrderRefunded))
}

func TestRefundRestocksWhenConfigured(t *testing.T) {
	f := newOrderFixture(t, 10, Options{HoldTTL: 15 * time.Minute, RefundRestock: true})

	resp, err := f.svc.CreateHold(context.Background(), &models.CreateHoldRequest{TicketTypeID: f.tt.ID})
	require.NoError(t, err)
	_, err = f.svc.Confirm(context.Background(), resp.OrderID, resp.LockToken)
	require.NoError(t, err)

	_, err = f.svc.Refund(context.Background(), resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, 10, f.remaining(t))
}

func TestRefundRequiresPaid(t *testing.T) {
	f := newOrderFixture(t, 10, Options{HoldTTL: 15 * time.Minute})

	resp, err := f.svc.CreateHold(context.Background(), &models.CreateHoldRequest{TicketTypeID: f.tt.ID})
	require.NoError(t, err)

	_, err = f.svc.Refund(context.Background(), resp.OrderID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestExtendHoldReplacesToken(t *testing.T) {
	f := newOrderFixture(t, 10, Options{HoldTTL: time.Minute})

	resp, err := f.svc.CreateHold(context.Background(), &models.CreateHoldRequest{TicketTypeID: f.tt.ID})
	require.NoError(t, err)

	f.advance(30 * time.Second)

	renewed, err := f.svc.ExtendHold(context.Background(), resp.OrderID, resp.LockToken)
	require.NoError(t, err)

	assert.NotEqual(t, resp.LockToken, renewed.LockToken)
	assert.Equal(t, f.current.Add(time.Minute), renewed.LockExpireTime)

	// The replaced token no longer confirms.
	_, err = f.svc.Confirm(context.Background(), resp.OrderID, resp.LockToken)
	assert.ErrorIs(t, err, apperrors.ErrLockMismatch)

	order, err := f.svc.Confirm(context.Background(), resp.OrderID, renewed.LockToken)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, order.OrderStatus)
}

func TestExtendHoldRequiresLiveLock(t *testing.T) {
	f := newOrderFixture(t, 10, Options{HoldTTL: time.Minute})

	resp, err := f.svc.CreateHold(context.Background(), &models.CreateHoldRequest{TicketTypeID: f.tt.ID})
	require.NoError(t, err)

	f.advance(2 * time.Minute)

	_, err = f.svc.ExtendHold(context.Background(), resp.OrderID, resp.LockToken)
	assert.ErrorIs(t, err, apperrors.ErrLockExpired)
}

func TestPublishFailureDoesNotFailTransition(t *testing.T) {
	f := newOrderFixture(t, 10, Options{HoldTTL: 15 * time.Minute})
	f.pub.fail = true

	resp, err := f.svc.CreateHold(context.Background(), &models.CreateHoldRequest{TicketTypeID: f.tt.ID})
	require.NoError(t, err)
	assert.Equal(t, 9, f.remaining(t))

	_, err = f.svc.Confirm(context.Background(), resp.OrderID, resp.LockToken)
	assert.NoError(t, err)
}

func TestOrderStats(t *testing.T) {
	f := newOrderFixture(t, 10, Options{HoldTTL: 15 * time.Minute})

	held, err := f.svc.CreateHold(context.Background(), &models.CreateHoldRequest{TicketTypeID: f.tt.ID})
	require.NoError(t, err)
	_, err = f.svc.Confirm(context.Background(), held.OrderID, held.LockToken)
	require.NoError(t, err)

	cancelled, err := f.svc.CreateHold(context.Background(), &models.CreateHoldRequest{TicketTypeID: f.tt.ID})
	require.NoError(t, err)
	_, err = f.svc.Cancel(context.Background(), cancelled.OrderID)
	require.NoError(t, err)

	stats, err := f.svc.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Paid)
	assert.Equal(t, 1, stats.Cancelled)
	assert.Equal(t, 0, stats.Held)
}
