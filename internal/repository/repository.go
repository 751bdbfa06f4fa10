package repository

import (
	"tessera/internal/database"
)

type Repositories struct {
	Concerts    *ConcertRepository
	TicketTypes *TicketTypeRepository
	Orders      *OrderRepository
	Users       *UserRepository
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Concerts:    NewConcertRepository(db),
		TicketTypes: NewTicketTypeRepository(db),
		Orders:      NewOrderRepository(db),
		Users:       NewUserRepository(db),
	}
}
