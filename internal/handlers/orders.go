package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"tessera/internal/models"
)

// Orders handlers

// CreateHold - POST /api/orders/hold
func (h *Handlers) CreateHold(c *gin.Context) {
	var req models.CreateHoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.services.Orders.CreateHold(c.Request.Context(), &req)
	if err != nil {
		slog.Error("Failed to create hold", "error", err, "ticket_type_id", req.TicketTypeID)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// ConfirmOrder - PATCH /api/orders/confirm
func (h *Handlers) ConfirmOrder(c *gin.Context) {
	var req models.ConfirmOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.services.Orders.Confirm(c.Request.Context(), req.OrderID, req.LockToken)
	if err != nil {
		slog.Error("Failed to confirm order", "error", err, "order_id", req.OrderID)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// CancelOrder - PATCH /api/orders/cancel
func (h *Handlers) CancelOrder(c *gin.Context) {
	var req models.CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.services.Orders.Cancel(c.Request.Context(), req.OrderID)
	if err != nil {
		slog.Error("Failed to cancel order", "error", err, "order_id", req.OrderID)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// RefundOrder - PATCH /api/orders/refund
func (h *Handlers) RefundOrder(c *gin.Context) {
	var req models.RefundOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.services.Orders.Refund(c.Request.Context(), req.OrderID)
	if err != nil {
		slog.Error("Failed to refund order", "error", err, "order_id", req.OrderID)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// ExtendHold - PATCH /api/orders/extend
func (h *Handlers) ExtendHold(c *gin.Context) {
	var req models.ConfirmOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.services.Orders.ExtendHold(c.Request.Context(), req.OrderID, req.LockToken)
	if err != nil {
		slog.Error("Failed to extend hold", "error", err, "order_id", req.OrderID)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetOrder - GET /api/orders/:id
func (h *Handlers) GetOrder(c *gin.Context) {
	order, err := h.services.Orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// ListOrders - GET /api/orders
func (h *Handlers) ListOrders(c *gin.Context) {
	var status *models.OrderStatus
	if v := c.Query("status"); v != "" {
		s := models.OrderStatus(v)
		status = &s
	}

	orders, err := h.services.Orders.List(c.Request.Context(), status)
	if err != nil {
		slog.Error("Failed to list orders", "error", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, orders)
}

// OrderStats - GET /api/orders/stats
func (h *Handlers) OrderStats(c *gin.Context) {
	stats, err := h.services.Orders.Stats(c.Request.Context())
	if err != nil {
		slog.Error("Failed to get order stats", "error", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
