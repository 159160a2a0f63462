package handlers

import (
	"context"
	"net/http"
	"strconv"

	"mindhaven/models"
	"mindhaven/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingService is the booking state machine as seen by the API.
type BookingService interface {
	Create(ctx context.Context, actor models.Actor, req models.CreateBookingRequest) (*models.Booking, error)
	Confirm(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error)
	ConfirmReschedule(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error)
	Cancel(ctx context.Context, actor models.Actor, bookingID, reason string) (*models.Booking, error)
	Complete(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error)
	Reschedule(ctx context.Context, actor models.Actor, bookingID string, req models.RescheduleRequest) (*models.Booking, error)
	Get(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error)
	ListMine(ctx context.Context, actor models.Actor, limit, offset int) ([]models.Booking, error)
}

type BookingHandler struct {
	Service BookingService
	Logger  *zap.Logger
}

func NewBookingHandler(service BookingService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{Service: service, Logger: logger}
}

// CreateBooking handles POST /api/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Logger.Debug("Invalid booking request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "message": err.Error()})
		return
	}

	b, err := h.Service.Create(c.Request.Context(), actor, req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"booking": b})
}

// ListBookings handles GET /api/bookings?limit=&offset=.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	bookings, err := h.Service.ListMine(c.Request.Context(), actor, limit, offset)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	b, err := h.Service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

func (h *BookingHandler) ConfirmBooking(c *gin.Context) {
	h.transition(c, h.Service.Confirm)
}

func (h *BookingHandler) ConfirmReschedule(c *gin.Context) {
	h.transition(c, h.Service.ConfirmReschedule)
}

func (h *BookingHandler) CompleteBooking(c *gin.Context) {
	h.transition(c, h.Service.Complete)
}

// CancelBooking handles POST /api/bookings/:id/cancel with an optional reason.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req models.CancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "message": err.Error()})
			return
		}
	}

	b, err := h.Service.Cancel(c.Request.Context(), actor, c.Param("id"), req.Reason)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

// RescheduleBooking handles POST /api/bookings/:id/reschedule. It answers with the new booking.
func (h *BookingHandler) RescheduleBooking(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req models.RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "message": err.Error()})
		return
	}

	b, err := h.Service.Reschedule(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"booking": b})
}

func (h *BookingHandler) transition(c *gin.Context, apply func(context.Context, models.Actor, string) (*models.Booking, error)) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	b, err := apply(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}
