package repository

import (
	"context"
	"database/sql"
	"fmt"

	"tessera/internal/database"
	apperrors "tessera/internal/errors"
	"tessera/internal/models"
)

// TicketTypeRepository is the inventory ledger. remaining_quantity is only
// ever touched by the guarded statements in this file; the check and the
// decrement are a single conditional UPDATE so concurrent holds against the
// last unit cannot both succeed.
type TicketTypeRepository struct {
	db *database.DB
}

func NewTicketTypeRepository(db *database.DB) *TicketTypeRepository {
	return &TicketTypeRepository{db: db}
}

func (r *TicketTypeRepository) Create(ctx context.Context, tt *models.TicketType) error {
	query := `
		INSERT INTO ticket_types (concert_id, ticket_type_name, ticket_type_price,
		                          total_quantity, remaining_quantity, sell_begin_date, sell_end_date)
		VALUES ($1, $2, $3, $4, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		tt.ConcertID,
		tt.TicketTypeName,
		tt.TicketTypePrice,
		tt.TotalQuantity,
		tt.SellBeginDate,
		tt.SellEndDate,
	).Scan(&tt.ID, &tt.CreatedAt, &tt.UpdatedAt)

	if err == nil {
		tt.RemainingQuantity = tt.TotalQuantity
	}
	return err
}

func (r *TicketTypeRepository) GetByID(ctx context.Context, id string) (*models.TicketType, error) {
	tt := &models.TicketType{}
	query := `
		SELECT id, concert_id, ticket_type_name, ticket_type_price, total_quantity,
		       remaining_quantity, sold_quantity, sell_begin_date, sell_end_date,
		       created_at, updated_at
		FROM ticket_types
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&tt.ID,
		&tt.ConcertID,
		&tt.TicketTypeName,
		&tt.TicketTypePrice,
		&tt.TotalQuantity,
		&tt.RemainingQuantity,
		&tt.SoldQuantity,
		&tt.SellBeginDate,
		&tt.SellEndDate,
		&tt.CreatedAt,
		&tt.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return tt, err
}

func (r *TicketTypeRepository) ListByConcert(ctx context.Context, concertID string) ([]models.TicketType, error) {
	var types []models.TicketType
	query := `
		SELECT id, concert_id, ticket_type_name, ticket_type_price, total_quantity,
		       remaining_quantity, sold_quantity, sell_begin_date, sell_end_date,
		       created_at, updated_at
		FROM ticket_types
		WHERE concert_id = $1
		ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, concertID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var tt models.TicketType
		err := rows.Scan(
			&tt.ID,
			&tt.ConcertID,
			&tt.TicketTypeName,
			&tt.TicketTypePrice,
			&tt.TotalQuantity,
			&tt.RemainingQuantity,
			&tt.SoldQuantity,
			&tt.SellBeginDate,
			&tt.SellEndDate,
			&tt.CreatedAt,
			&tt.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		types = append(types, tt)
	}

	return types, rows.Err()
}

// Reserve atomically decrements remaining_quantity by qty when enough stock
// remains, otherwise fails with ErrOutOfStock and no side effects.
func (r *TicketTypeRepository) Reserve(ctx context.Context, id string, qty int) error {
	return reserveStock(ctx, r.db, id, qty)
}

// Release atomically returns qty units to the remaining pool.
func (r *TicketTypeRepository) Release(ctx context.Context, id string, qty int) error {
	return releaseStock(ctx, r.db, id, qty)
}

// Commit records the sale of qty already-reserved units. remaining_quantity
// was decremented at reserve time, so only the sold counter moves.
func (r *TicketTypeRepository) Commit(ctx context.Context, id string, qty int) error {
	return commitStock(ctx, r.db, id, qty)
}

// execer lets the guarded stock statements run on the pool or inside an
// order-transition transaction without being duplicated.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func reserveStock(ctx context.Context, q execer, id string, qty int) error {
	query := `
		UPDATE ticket_types
		SET remaining_quantity = remaining_quantity - $2, updated_at = NOW()
		WHERE id = $1 AND remaining_quantity >= $2`

	res, err := q.ExecContext(ctx, query, id, qty)
	if err != nil {
		return fmt.Errorf("failed to reserve stock: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read reserve result: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrOutOfStock
	}
	return nil
}

func releaseStock(ctx context.Context, q execer, id string, qty int) error {
	// The guard keeps a double release from pushing remaining above total.
	query := `
		UPDATE ticket_types
		SET remaining_quantity = remaining_quantity + $2, updated_at = NOW()
		WHERE id = $1 AND remaining_quantity + $2 <= total_quantity`

	res, err := q.ExecContext(ctx, query, id, qty)
	if err != nil {
		return fmt.Errorf("failed to release stock: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read release result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("release of %d units for ticket type %s would exceed total quantity", qty, id)
	}
	return nil
}

func commitStock(ctx context.Context, q execer, id string, qty int) error {
	query := `
		UPDATE ticket_types
		SET sold_quantity = sold_quantity + $2, updated_at = NOW()
		WHERE id = $1`

	if _, err := q.ExecContext(ctx, query, id, qty); err != nil {
		return fmt.Errorf("failed to commit stock: %w", err)
	}
	return nil
}
