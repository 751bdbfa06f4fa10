// Package jobs holds the periodic background workers: reclaiming expired
// holds and finishing concerts whose event date has passed. Both route every
// change through the guarded service transitions, so running a job twice
// over the same rows is harmless.
package jobs

import (
	"context"
	"log/slog"
	"time"

	apperrors "tessera/internal/errors"
	"tessera/internal/metrics"
	"tessera/internal/models"
)

// HoldSweeper is the slice of the order service the sweeper needs.
type HoldSweeper interface {
	ListExpiredHolds(ctx context.Context) ([]models.Order, error)
	Sweep(ctx context.Context, orderID string) (*models.Order, error)
}

// HoldExpirationJob converts held orders with expired locks to expired,
// returning their inventory to the pool.
type HoldExpirationJob struct {
	orders   HoldSweeper
	interval time.Duration
	ticker   *time.Ticker
	done     chan bool
}

func NewHoldExpirationJob(orders HoldSweeper, interval time.Duration) *HoldExpirationJob {
	return &HoldExpirationJob{
		orders:   orders,
		interval: interval,
		done:     make(chan bool),
	}
}

// Start begins the periodic sweep. An initial pass runs immediately.
func (j *HoldExpirationJob) Start(ctx context.Context) {
	slog.Info("Starting hold expiration job", "interval", j.interval.String())

	j.ticker = time.NewTicker(j.interval)

	go j.RunOnce(ctx)

	go func() {
		for {
			select {
			case <-j.ticker.C:
				go j.RunOnce(ctx)
			case <-j.done:
				slog.Info("Hold expiration job stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the job
func (j *HoldExpirationJob) Stop() {
	if j.ticker != nil {
		j.ticker.Stop()
	}
	close(j.done)
}

// RunOnce executes a single sweep pass and returns how many holds it
// reclaimed.
func (j *HoldExpirationJob) RunOnce(ctx context.Context) int {
	expired, err := j.orders.ListExpiredHolds(ctx)
	if err != nil {
		slog.Error("Failed to list expired holds", "error", err)
		return 0
	}

	if len(expired) == 0 {
		slog.Debug("No expired holds found")
		metrics.SweepRun(0)
		return 0
	}

	slog.Info("Found expired holds to reclaim", "count", len(expired))

	reclaimed := 0
	for _, order := range expired {
		_, err := j.orders.Sweep(ctx, order.ID)
		switch {
		case err == nil:
			reclaimed++
			slog.Info("Reclaimed expired hold",
				"order_id", order.ID,
				"ticket_type_id", order.TicketTypeID,
				"quantity", order.Quantity)
		case err == apperrors.ErrInvalidTransition:
			// Confirmed, cancelled or already swept since we listed it.
			slog.Debug("Hold no longer sweepable", "order_id", order.ID)
		default:
			slog.Error("Failed to sweep expired hold",
				"error", err,
				"order_id", order.ID)
		}
	}

	metrics.SweepRun(reclaimed)
	return reclaimed
}
