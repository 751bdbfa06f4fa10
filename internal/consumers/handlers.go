package consumers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/nats-io/stan.go"

	apperrors "tessera/internal/errors"
	"tessera/internal/models"
	"tessera/internal/service"
)

type Handlers struct {
	services *service.Services
}

func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{services: services}
}

// HandlePaymentCompleted confirms the held order named by the event. The
// payment provider echoes back the lock token issued at hold time, so a
// payment that raced past the hold window is rejected here and must be
// compensated upstream.
func (h *Handlers) HandlePaymentCompleted(m *stan.Msg) {
	var event models.PaymentCompletedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal payment completed event", "error", err)
		return
	}

	slog.Info("Processing payment completed event", "order_id", event.OrderID, "payment_id", event.PaymentID)

	ctx := context.Background()
	_, err := h.services.Orders.Confirm(ctx, event.OrderID, event.LockToken)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidTransition):
			// Already confirmed, a redelivery. Safe to ack.
			slog.Warn("Order not in held state, skipping", "order_id", event.OrderID)
		case errors.Is(err, apperrors.ErrLockExpired), errors.Is(err, apperrors.ErrLockMismatch):
			slog.Error("Payment arrived for a dead lock", "order_id", event.OrderID, "error", err)
		case errors.Is(err, apperrors.ErrNotFound):
			slog.Error("Payment for unknown order", "order_id", event.OrderID)
		default:
			// Transient failure, leave unacked for redelivery.
			slog.Error("Failed to confirm order", "order_id", event.OrderID, "error", err)
			return
		}
	}

	m.Ack()
}

// HandlePaymentFailed releases the hold so the tickets go back on sale.
func (h *Handlers) HandlePaymentFailed(m *stan.Msg) {
	var event models.PaymentFailedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal payment failed event", "error", err)
		return
	}

	slog.Info("Processing payment failed event", "order_id", event.OrderID, "reason", event.Reason)

	ctx := context.Background()
	_, err := h.services.Orders.Cancel(ctx, event.OrderID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidTransition):
			slog.Warn("Order not in held state, skipping", "order_id", event.OrderID)
		case errors.Is(err, apperrors.ErrNotFound):
			slog.Error("Payment failure for unknown order", "order_id", event.OrderID)
		default:
			slog.Error("Failed to cancel order", "order_id", event.OrderID, "error", err)
			return
		}
	}

	m.Ack()
}
