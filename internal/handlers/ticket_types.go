package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"tessera/internal/models"
)

// Ticket type handlers

// CreateTicketType - POST /api/ticket-types
func (h *Handlers) CreateTicketType(c *gin.Context) {
	var req models.CreateTicketTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ticketType, err := h.services.TicketTypes.Create(c.Request.Context(), &req)
	if err != nil {
		slog.Error("Failed to create ticket type", "error", err, "concert_id", req.ConcertID)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ticketType)
}

// GetTicketType - GET /api/ticket-types/:id
func (h *Handlers) GetTicketType(c *gin.Context) {
	ticketType, err := h.services.TicketTypes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ticketType)
}

// ListTicketTypes - GET /api/ticket-types?concert_id=...
func (h *Handlers) ListTicketTypes(c *gin.Context) {
	concertID := c.Query("concert_id")
	if concertID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "concert_id is required"})
		return
	}

	ticketTypes, err := h.services.TicketTypes.ListByConcert(c.Request.Context(), concertID)
	if err != nil {
		slog.Error("Failed to list ticket types", "error", err, "concert_id", concertID)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ticketTypes)
}
