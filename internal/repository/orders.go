package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tessera/internal/database"
	apperrors "tessera/internal/errors"
	"tessera/internal/models"
)

// OrderRepository persists orders and executes their status transitions.
// Each transition is a single transaction: the conditional status update and
// its inventory effect commit together or not at all. The WHERE clause on the
// current status doubles as the concurrency guard, so a transition that lost
// a race affects zero rows and maps to ErrInvalidTransition.
type OrderRepository struct {
	db *database.DB
}

func NewOrderRepository(db *database.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `id, ticket_type_id, user_id, quantity, order_status, is_locked,
	       lock_token, lock_expire_time, purchaser_name, purchaser_email, purchaser_phone,
	       invoice_platform, invoice_type, invoice_carrier, invoice_status, invoice_number,
	       created_at, updated_at`

func scanOrder(row interface {
	Scan(dest ...interface{}) error
}, o *models.Order) error {
	return row.Scan(
		&o.ID,
		&o.TicketTypeID,
		&o.UserID,
		&o.Quantity,
		&o.OrderStatus,
		&o.IsLocked,
		&o.LockToken,
		&o.LockExpireTime,
		&o.PurchaserName,
		&o.PurchaserEmail,
		&o.PurchaserPhone,
		&o.InvoicePlatform,
		&o.InvoiceType,
		&o.InvoiceCarrier,
		&o.InvoiceStatus,
		&o.InvoiceNumber,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
}

// CreateHeld reserves inventory and inserts the held order in one
// transaction. The order must arrive with status held, a lock token and an
// expiry already set.
func (r *OrderRepository) CreateHeld(ctx context.Context, order *models.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := reserveStock(ctx, tx, order.TicketTypeID, order.Quantity); err != nil {
		return err
	}

	query := `
		INSERT INTO orders (ticket_type_id, user_id, quantity, order_status, is_locked,
		                    lock_token, lock_expire_time, purchaser_name, purchaser_email,
		                    purchaser_phone)
		VALUES ($1, $2, $3, 'held', TRUE, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	err = tx.QueryRowContext(ctx, query,
		order.TicketTypeID,
		order.UserID,
		order.Quantity,
		order.LockToken,
		order.LockExpireTime,
		order.PurchaserName,
		order.PurchaserEmail,
		order.PurchaserPhone,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert held order: %w", err)
	}

	order.OrderStatus = models.OrderHeld
	order.IsLocked = true

	return tx.Commit()
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	order := &models.Order{}
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	err := scanOrder(r.db.QueryRowContext(ctx, query, id), order)
	if err == sql.ErrNoRows {
		return nil, nil
	}

	return order, err
}

// MarkPaid moves a held order to paid, clears the lock and records the sale.
func (r *OrderRepository) MarkPaid(ctx context.Context, order *models.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		UPDATE orders
		SET order_status = 'paid', is_locked = FALSE, lock_token = NULL,
		    lock_expire_time = NULL, updated_at = NOW()
		WHERE id = $1 AND order_status = 'held'`

	res, err := tx.ExecContext(ctx, query, order.ID)
	if err != nil {
		return fmt.Errorf("failed to mark order paid: %w", err)
	}
	if affected, err := res.RowsAffected(); err != nil {
		return err
	} else if affected == 0 {
		return apperrors.ErrInvalidTransition
	}

	if err := commitStock(ctx, tx, order.TicketTypeID, order.Quantity); err != nil {
		return err
	}

	return tx.Commit()
}

// ReleaseHeld moves a held order to a terminal state (cancelled or expired),
// clears the lock and returns the reserved units to the pool, all in one
// transaction. The status guard makes a repeated sweep a clean
// ErrInvalidTransition instead of a double release.
func (r *OrderRepository) ReleaseHeld(ctx context.Context, order *models.Order, to models.OrderStatus) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		UPDATE orders
		SET order_status = $2, is_locked = FALSE, lock_token = NULL,
		    lock_expire_time = NULL, updated_at = NOW()
		WHERE id = $1 AND order_status = 'held'`

	res, err := tx.ExecContext(ctx, query, order.ID, to)
	if err != nil {
		return fmt.Errorf("failed to release held order: %w", err)
	}
	if affected, err := res.RowsAffected(); err != nil {
		return err
	} else if affected == 0 {
		return apperrors.ErrInvalidTransition
	}

	if err := releaseStock(ctx, tx, order.TicketTypeID, order.Quantity); err != nil {
		return err
	}

	return tx.Commit()
}

// MarkRefunded moves a paid order to refunded. Whether the units go back on
// sale is business policy, passed in as restock.
func (r *OrderRepository) MarkRefunded(ctx context.Context, order *models.Order, restock bool) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		UPDATE orders
		SET order_status = 'refunded', updated_at = NOW()
		WHERE id = $1 AND order_status = 'paid'`

	res, err := tx.ExecContext(ctx, query, order.ID)
	if err != nil {
		return fmt.Errorf("failed to mark order refunded: %w", err)
	}
	if affected, err := res.RowsAffected(); err != nil {
		return err
	} else if affected == 0 {
		return apperrors.ErrInvalidTransition
	}

	if restock {
		if err := releaseStock(ctx, tx, order.TicketTypeID, order.Quantity); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ReplaceLock installs a fresh lock token and expiry on a still-held order,
// invalidating the previous token.
func (r *OrderRepository) ReplaceLock(ctx context.Context, orderID, token string, expireAt time.Time) error {
	query := `
		UPDATE orders
		SET lock_token = $2, lock_expire_time = $3, is_locked = TRUE, updated_at = NOW()
		WHERE id = $1 AND order_status = 'held'`

	res, err := r.db.ExecContext(ctx, query, orderID, token, expireAt)
	if err != nil {
		return fmt.Errorf("failed to replace lock: %w", err)
	}
	if affected, err := res.RowsAffected(); err != nil {
		return err
	} else if affected == 0 {
		return apperrors.ErrInvalidTransition
	}
	return nil
}

// ListExpiredHeld returns held orders whose lock expired at or before now.
func (r *OrderRepository) ListExpiredHeld(ctx context.Context, now time.Time) ([]models.Order, error) {
	var orders []models.Order
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE order_status = 'held' AND lock_expire_time <= $1
		ORDER BY lock_expire_time ASC`

	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var order models.Order
		if err := scanOrder(rows, &order); err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	return orders, rows.Err()
}

// List returns orders, newest first, optionally filtered by status.
func (r *OrderRepository) List(ctx context.Context, status *models.OrderStatus) ([]models.Order, error) {
	var orders []models.Order
	query := `SELECT ` + orderColumns + ` FROM orders`
	var args []interface{}

	if status != nil {
		query += ` WHERE order_status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var order models.Order
		if err := scanOrder(rows, &order); err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	return orders, rows.Err()
}

// Stats counts orders per status for the dashboard cards.
func (r *OrderRepository) Stats(ctx context.Context) (*models.OrderStatsResponse, error) {
	stats := &models.OrderStatsResponse{}
	query := `SELECT order_status, COUNT(*) FROM orders GROUP BY order_status`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var status models.OrderStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}

		stats.Total += count
		switch status {
		case models.OrderHeld:
			stats.Held = count
		case models.OrderPaid:
			stats.Paid = count
		case models.OrderCancelled:
			stats.Cancelled = count
		case models.OrderRefunded:
			stats.Refunded = count
		case models.OrderExpired:
			stats.Expired = count
		}
	}

	return stats, rows.Err()
}
