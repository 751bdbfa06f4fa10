package service

import (
	"context"
	"time"

	"tessera/internal/models"
	"tessera/internal/repository"
)

// OrderStore is the durable home of orders. Implementations must make each
// transition method a single atomic unit: the status change and its
// inventory effect commit together or not at all.
type OrderStore interface {
	CreateHeld(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	MarkPaid(ctx context.Context, order *models.Order) error
	ReleaseHeld(ctx context.Context, order *models.Order, to models.OrderStatus) error
	MarkRefunded(ctx context.Context, order *models.Order, restock bool) error
	ReplaceLock(ctx context.Context, orderID, token string, expireAt time.Time) error
	ListExpiredHeld(ctx context.Context, now time.Time) ([]models.Order, error)
	List(ctx context.Context, status *models.OrderStatus) ([]models.Order, error)
	Stats(ctx context.Context) (*models.OrderStatsResponse, error)
}

// TicketTypeStore is the inventory ledger plus ticket type CRUD.
type TicketTypeStore interface {
	Create(ctx context.Context, tt *models.TicketType) error
	GetByID(ctx context.Context, id string) (*models.TicketType, error)
	ListByConcert(ctx context.Context, concertID string) ([]models.TicketType, error)
	Reserve(ctx context.Context, id string, qty int) error
	Release(ctx context.Context, id string, qty int) error
	Commit(ctx context.Context, id string, qty int) error
}

// ConcertStore persists concerts and their guarded status transitions.
type ConcertStore interface {
	Create(ctx context.Context, concert *models.Concert) error
	GetByID(ctx context.Context, id string) (*models.Concert, error)
	Transition(ctx context.Context, id string,
		from models.ConInfoStatus, fromReview *models.ReviewStatus,
		to models.ConInfoStatus, toReview *models.ReviewStatus, note *string) (bool, error)
	List(ctx context.Context, status *models.ConInfoStatus) ([]models.Concert, error)
	ListPublishedEnded(ctx context.Context, now time.Time) ([]models.Concert, error)
	Stats(ctx context.Context) (*models.ConcertStatsResponse, error)
}

// Publisher pushes domain events onto the bus. Satisfied by messaging.NATSClient.
type Publisher interface {
	Publish(subject string, data interface{}) error
}

// ConcertIndexer mirrors published concerts into the search index.
// Satisfied by search.ConcertIndex.
type ConcertIndexer interface {
	IndexConcert(ctx context.Context, concert *models.Concert) error
	DeleteConcert(ctx context.Context, concertID string) error
}

type Services struct {
	Orders      *OrderService
	Concerts    *ConcertService
	TicketTypes *TicketTypeService
}

type Options struct {
	HoldTTL       time.Duration
	RefundRestock bool
}

func NewServices(repos *repository.Repositories, publisher Publisher, index ConcertIndexer, opts Options) *Services {
	return &Services{
		Orders:      NewOrderService(repos.Orders, repos.TicketTypes, publisher, opts),
		Concerts:    NewConcertService(repos.Concerts, publisher, index),
		TicketTypes: NewTicketTypeService(repos.TicketTypes, repos.Concerts),
	}
}
