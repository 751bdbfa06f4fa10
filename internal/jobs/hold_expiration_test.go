package jobs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "tessera/internal/errors"
	"tessera/internal/models"
)

type sweeperStub struct {
	expired []models.Order
	swept   map[string]int
	// terminal marks orders that refuse the sweep transition.
	terminal map[string]bool
}

func newSweeperStub(expired ...models.Order) *sweeperStub {
	return &sweeperStub{
		expired:  expired,
		swept:    make(map[string]int),
		terminal: make(map[string]bool),
	}
}

func (s *sweeperStub) ListExpiredHolds(context.Context) ([]models.Order, error) {
	return s.expired, nil
}

func (s *sweeperStub) Sweep(_ context.Context, orderID string) (*models.Order, error) {
	if s.terminal[orderID] {
		return nil, apperrors.ErrInvalidTransition
	}
	s.swept[orderID]++
	s.terminal[orderID] = true
	return &models.Order{ID: orderID, OrderStatus: models.OrderExpired}, nil
}

func TestRunOnceSweepsAllExpiredHolds(t *testing.T) {
	stub := newSweeperStub(
		models.Order{ID: "o1", OrderStatus: models.OrderHeld},
		models.Order{ID: "o2", OrderStatus: models.OrderHeld},
	)
	job := NewHoldExpirationJob(stub, 0)

	reclaimed := job.RunOnce(context.Background())

	assert.Equal(t, 2, reclaimed)
	assert.Equal(t, 1, stub.swept["o1"])
	assert.Equal(t, 1, stub.swept["o2"])
}

func TestRunOnceIsIdempotent(t *testing.T) {
	stub := newSweeperStub(models.Order{ID: "o1", OrderStatus: models.OrderHeld})
	job := NewHoldExpirationJob(stub, 0)

	assert.Equal(t, 1, job.RunOnce(context.Background()))

	// The listing is stale on the second pass; the guarded transition
	// rejects the repeat and nothing is released twice.
	assert.Equal(t, 0, job.RunOnce(context.Background()))
	assert.Equal(t, 1, stub.swept["o1"])
}

func TestRunOnceSkipsRacedOrders(t *testing.T) {
	stub := newSweeperStub(
		models.Order{ID: "o1", OrderStatus: models.OrderHeld},
		models.Order{ID: "o2", OrderStatus: models.OrderHeld},
	)
	// o2 was confirmed between listing and sweeping.
	stub.terminal["o2"] = true
	job := NewHoldExpirationJob(stub, 0)

	reclaimed := job.RunOnce(context.Background())

	assert.Equal(t, 1, reclaimed)
	assert.Equal(t, 0, stub.swept["o2"])
}

func TestRunOnceWithNothingExpired(t *testing.T) {
	job := NewHoldExpirationJob(newSweeperStub(), 0)
	assert.Equal(t, 0, job.RunOnce(context.Background()))
}

type finisherStub struct {
	ended    []models.Concert
	finished map[string]int
}

func (s *finisherStub) ListEnded(context.Context) ([]models.Concert, error) {
	return s.ended, nil
}

func (s *finisherStub) Complete(_ context.Context, concertID string) (*models.Concert, error) {
	if s.finished == nil {
		s.finished = make(map[string]int)
	}
	s.finished[concertID]++
	return &models.Concert{ID: concertID, ConInfoStatus: models.ConcertFinished}, nil
}

func TestConcertCompletionRunOnce(t *testing.T) {
	stub := &finisherStub{ended: []models.Concert{{ID: "c1"}, {ID: "c2"}}}
	job := NewConcertCompletionJob(stub, 0)

	assert.Equal(t, 2, job.RunOnce(context.Background()))
	assert.Equal(t, 1, stub.finished["c1"])
	assert.Equal(t, 1, stub.finished["c2"])
}
