package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"tessera/internal/models"
)

// Concert handlers

// CreateConcert - POST /api/concerts
func (h *Handlers) CreateConcert(c *gin.Context) {
	var req models.CreateConcertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	concert, err := h.services.Concerts.Create(c.Request.Context(), &req)
	if err != nil {
		slog.Error("Failed to create concert", "error", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, concert)
}

// SubmitConcert - PATCH /api/concerts/submit
func (h *Handlers) SubmitConcert(c *gin.Context) {
	var req models.SubmitConcertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	concert, err := h.services.Concerts.Submit(c.Request.Context(), req.ConcertID)
	if err != nil {
		slog.Error("Failed to submit concert", "error", err, "concert_id", req.ConcertID)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, concert)
}

// ReviewConcert - PATCH /api/concerts/review
func (h *Handlers) ReviewConcert(c *gin.Context) {
	var req models.ReviewConcertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	concert, err := h.services.Concerts.Review(c.Request.Context(), req.ConcertID, req.Status, req.Notes)
	if err != nil {
		slog.Error("Failed to review concert", "error", err, "concert_id", req.ConcertID, "status", req.Status)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, concert)
}

// ResubmitConcert - PATCH /api/concerts/resubmit
func (h *Handlers) ResubmitConcert(c *gin.Context) {
	var req models.ResubmitConcertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	concert, err := h.services.Concerts.Resubmit(c.Request.Context(), req.ConcertID)
	if err != nil {
		slog.Error("Failed to resubmit concert", "error", err, "concert_id", req.ConcertID)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, concert)
}

// SkipReview - PATCH /api/concerts/skip-review
func (h *Handlers) SkipReview(c *gin.Context) {
	var req models.SkipReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	concert, err := h.services.Concerts.SkipReview(c.Request.Context(), req.ConcertID)
	if err != nil {
		slog.Error("Failed to skip review", "error", err, "concert_id", req.ConcertID)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, concert)
}

// GetConcert - GET /api/concerts/:id
func (h *Handlers) GetConcert(c *gin.Context) {
	concert, err := h.services.Concerts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, concert)
}

// ListConcerts - GET /api/concerts
func (h *Handlers) ListConcerts(c *gin.Context) {
	var status *models.ConInfoStatus
	if v := c.Query("status"); v != "" {
		s := models.ConInfoStatus(v)
		status = &s
	}

	concerts, err := h.services.Concerts.List(c.Request.Context(), status)
	if err != nil {
		slog.Error("Failed to list concerts", "error", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, concerts)
}

// ConcertStats - GET /api/concerts/stats
func (h *Handlers) ConcertStats(c *gin.Context) {
	stats, err := h.services.Concerts.Stats(c.Request.Context())
	if err != nil {
		slog.Error("Failed to get concert stats", "error", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
