package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "tessera/internal/errors"
	"tessera/internal/models"
)

// memStore is an in-memory stand-in for the Postgres repositories. It keeps
// the same transition semantics: conditional status guards, and hold/release
// applied together with the status change under one mutex.
type memStore struct {
	mu          sync.Mutex
	orders      map[string]*models.Order
	ticketTypes map[string]*models.TicketType
	concerts    map[string]*models.Concert
	nextID      int
}

func newMemStore() *memStore {
	return &memStore{
		orders:      make(map[string]*models.Order),
		ticketTypes: make(map[string]*models.TicketType),
		concerts:    make(map[string]*models.Concert),
	}
}

func (m *memStore) genID() string {
	m.nextID++
	return fmt.Sprintf("id-%d", m.nextID)
}

func copyOrder(o *models.Order) *models.Order {
	c := *o
	return &c
}

// OrderStore

func (m *memStore) CreateHeld(_ context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tt, ok := m.ticketTypes[order.TicketTypeID]
	if !ok || tt.RemainingQuantity < order.Quantity {
		return apperrors.ErrOutOfStock
	}
	tt.RemainingQuantity -= order.Quantity

	order.ID = m.genID()
	order.OrderStatus = models.OrderHeld
	order.IsLocked = true
	m.orders[order.ID] = copyOrder(order)
	return nil
}

func (m *memStore) GetByID(_ context.Context, id string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	return copyOrder(o), nil
}

func (m *memStore) MarkPaid(_ context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[order.ID]
	if !ok || o.OrderStatus != models.OrderHeld {
		return apperrors.ErrInvalidTransition
	}
	o.OrderStatus = models.OrderPaid
	o.IsLocked = false
	o.LockToken = nil
	o.LockExpireTime = nil

	m.ticketTypes[o.TicketTypeID].SoldQuantity += o.Quantity
	return nil
}

func (m *memStore) ReleaseHeld(_ context.Context, order *models.Order, to models.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[order.ID]
	if !ok || o.OrderStatus != models.OrderHeld {
		return apperrors.ErrInvalidTransition
	}
	o.OrderStatus = to
	o.IsLocked = false
	o.LockToken = nil
	o.LockExpireTime = nil

	m.ticketTypes[o.TicketTypeID].RemainingQuantity += o.Quantity
	return nil
}

func (m *memStore) MarkRefunded(_ context.Context, order *models.Order, restock bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[order.ID]
	if !ok || o.OrderStatus != models.OrderPaid {
		return apperrors.ErrInvalidTransition
	}
	o.OrderStatus = models.OrderRefunded

	if restock {
		m.ticketTypes[o.TicketTypeID].RemainingQuantity += o.Quantity
	}
	return nil
}

func (m *memStore) ReplaceLock(_ context.Context, orderID, token string, expireAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[orderID]
	if !ok || o.OrderStatus != models.OrderHeld {
		return apperrors.ErrInvalidTransition
	}
	o.LockToken = &token
	o.LockExpireTime = &expireAt
	o.IsLocked = true
	return nil
}

func (m *memStore) ListExpiredHeld(_ context.Context, now time.Time) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Order
	for _, o := range m.orders {
		if o.OrderStatus == models.OrderHeld && o.LockExpireTime != nil && !now.Before(*o.LockExpireTime) {
			out = append(out, *copyOrder(o))
		}
	}
	return out, nil
}

func (m *memStore) List(_ context.Context, status *models.OrderStatus) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Order
	for _, o := range m.orders {
		if status == nil || o.OrderStatus == *status {
			out = append(out, *copyOrder(o))
		}
	}
	return out, nil
}

func (m *memStore) Stats(_ context.Context) (*models.OrderStatsResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := &models.OrderStatsResponse{}
	for _, o := range m.orders {
		stats.Total++
		switch o.OrderStatus {
		case models.OrderHeld:
			stats.Held++
		case models.OrderPaid:
			stats.Paid++
		case models.OrderCancelled:
			stats.Cancelled++
		case models.OrderRefunded:
			stats.Refunded++
		case models.OrderExpired:
			stats.Expired++
		}
	}
	return stats, nil
}

// TicketTypeStore

func (m *memStore) Create(_ context.Context, tt *models.TicketType) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tt.ID = m.genID()
	tt.RemainingQuantity = tt.TotalQuantity
	c := *tt
	m.ticketTypes[tt.ID] = &c
	return nil
}

func (m *memStore) GetTicketType(_ context.Context, id string) (*models.TicketType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tt, ok := m.ticketTypes[id]
	if !ok {
		return nil, nil
	}
	c := *tt
	return &c, nil
}

func (m *memStore) ListByConcert(_ context.Context, concertID string) ([]models.TicketType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.TicketType
	for _, tt := range m.ticketTypes {
		if tt.ConcertID == concertID {
			out = append(out, *tt)
		}
	}
	return out, nil
}

func (m *memStore) Reserve(_ context.Context, id string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tt, ok := m.ticketTypes[id]
	if !ok || tt.RemainingQuantity < qty {
		return apperrors.ErrOutOfStock
	}
	tt.RemainingQuantity -= qty
	return nil
}

func (m *memStore) Release(_ context.Context, id string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tt, ok := m.ticketTypes[id]
	if !ok || tt.RemainingQuantity+qty > tt.TotalQuantity {
		return fmt.Errorf("release would exceed total quantity")
	}
	tt.RemainingQuantity += qty
	return nil
}

func (m *memStore) Commit(_ context.Context, id string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tt, ok := m.ticketTypes[id]
	if !ok {
		return fmt.Errorf("unknown ticket type")
	}
	tt.SoldQuantity += qty
	return nil
}

// ticketTypeView adapts memStore to TicketTypeStore (GetByID name collides
// with the order accessor).
type ticketTypeView struct{ *memStore }

func (v ticketTypeView) GetByID(ctx context.Context, id string) (*models.TicketType, error) {
	return v.GetTicketType(ctx, id)
}

// ConcertStore

type memConcertStore struct {
	mu       sync.Mutex
	concerts map[string]*models.Concert
	nextID   int
}

func newMemConcertStore() *memConcertStore {
	return &memConcertStore{concerts: make(map[string]*models.Concert)}
}

func (m *memConcertStore) Create(_ context.Context, concert *models.Concert) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	concert.ID = fmt.Sprintf("concert-%d", m.nextID)
	concert.ConInfoStatus = models.ConcertDraft
	c := *concert
	m.concerts[concert.ID] = &c
	return nil
}

func (m *memConcertStore) GetByID(_ context.Context, id string) (*models.Concert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.concerts[id]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (m *memConcertStore) Transition(_ context.Context, id string,
	from models.ConInfoStatus, fromReview *models.ReviewStatus,
	to models.ConInfoStatus, toReview *models.ReviewStatus, note *string) (bool, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.concerts[id]
	if !ok || c.ConInfoStatus != from {
		return false, nil
	}
	if fromReview != nil && (c.ReviewStatus == nil || *c.ReviewStatus != *fromReview) {
		return false, nil
	}

	c.ConInfoStatus = to
	c.ReviewStatus = toReview
	if note != nil {
		c.ReviewNote = note
	}
	return true, nil
}

func (m *memConcertStore) List(_ context.Context, status *models.ConInfoStatus) ([]models.Concert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Concert
	for _, c := range m.concerts {
		if status == nil || c.ConInfoStatus == *status {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memConcertStore) ListPublishedEnded(_ context.Context, now time.Time) ([]models.Concert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Concert
	for _, c := range m.concerts {
		if c.ConInfoStatus == models.ConcertPublished && c.EventEndDate != nil && !now.Before(*c.EventEndDate) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memConcertStore) Stats(_ context.Context) (*models.ConcertStatsResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := &models.ConcertStatsResponse{}
	for _, c := range m.concerts {
		stats.Total++
		switch c.ConInfoStatus {
		case models.ConcertDraft:
			stats.Draft++
		case models.ConcertReviewing:
			stats.Reviewing++
			if c.ReviewStatus != nil && *c.ReviewStatus == models.ReviewPending {
				stats.PendingReview++
			}
		case models.ConcertPublished:
			stats.Published++
		case models.ConcertRejected:
			stats.Rejected++
		case models.ConcertFinished:
			stats.Finished++
		}
		if c.ReviewStatus != nil && *c.ReviewStatus == models.ReviewSkipped {
			stats.ReviewSkipped++
		}
	}
	return stats, nil
}

// fakePublisher records published events; fail makes every publish error.
type fakePublisher struct {
	mu       sync.Mutex
	subjects []string
	fail     bool
}

func (p *fakePublisher) Publish(subject string, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.fail {
		return fmt.Errorf("bus unavailable")
	}
	p.subjects = append(p.subjects, subject)
	return nil
}

func (p *fakePublisher) published(subject string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, s := range p.subjects {
		if s == subject {
			return true
		}
	}
	return false
}

// fakeIndexer records indexed concert IDs.
type fakeIndexer struct {
	mu      sync.Mutex
	indexed []string
}

func (f *fakeIndexer) IndexConcert(_ context.Context, concert *models.Concert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed = append(f.indexed, concert.ID)
	return nil
}

func (f *fakeIndexer) DeleteConcert(_ context.Context, _ string) error {
	return nil
}
