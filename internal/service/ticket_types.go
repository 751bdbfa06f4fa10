package service

import (
	"context"
	"fmt"

	apperrors "tessera/internal/errors"
	"tessera/internal/models"
)

// TicketTypeService manages sellable ticket categories. Creation fixes the
// total quantity; remaining starts equal to total and moves only through
// the ledger operations driven by order transitions.
type TicketTypeService struct {
	ticketTypes TicketTypeStore
	concerts    ConcertStore
}

func NewTicketTypeService(ticketTypes TicketTypeStore, concerts ConcertStore) *TicketTypeService {
	return &TicketTypeService{
		ticketTypes: ticketTypes,
		concerts:    concerts,
	}
}

func (s *TicketTypeService) Create(ctx context.Context, req *models.CreateTicketTypeRequest) (*models.TicketType, error) {
	if req.TotalQuantity < 0 {
		return nil, fmt.Errorf("total quantity must not be negative")
	}
	if req.SellBeginDate != nil && req.SellEndDate != nil && req.SellEndDate.Before(*req.SellBeginDate) {
		return nil, fmt.Errorf("sale window ends before it begins")
	}

	concert, err := s.concerts.GetByID(ctx, req.ConcertID)
	if err != nil {
		return nil, fmt.Errorf("failed to get concert: %w", err)
	}
	if concert == nil {
		return nil, apperrors.ErrNotFound
	}

	tt := &models.TicketType{
		ConcertID:       req.ConcertID,
		TicketTypeName:  req.TicketTypeName,
		TicketTypePrice: req.TicketTypePrice,
		TotalQuantity:   req.TotalQuantity,
		SellBeginDate:   req.SellBeginDate,
		SellEndDate:     req.SellEndDate,
	}

	if err := s.ticketTypes.Create(ctx, tt); err != nil {
		return nil, fmt.Errorf("failed to create ticket type: %w", err)
	}

	return tt, nil
}

func (s *TicketTypeService) Get(ctx context.Context, id string) (*models.TicketType, error) {
	tt, err := s.ticketTypes.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket type: %w", err)
	}
	if tt == nil {
		return nil, apperrors.ErrNotFound
	}
	return tt, nil
}

func (s *TicketTypeService) ListByConcert(ctx context.Context, concertID string) ([]models.TicketType, error) {
	return s.ticketTypes.ListByConcert(ctx, concertID)
}
