package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"mindhaven/models"
	"mindhaven/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AvailabilityCatalog interface {
	SetDay(ctx context.Context, actor models.Actor, professionalID string, weekday models.Weekday, slots []models.AvailabilitySlot, available bool) (*models.AvailabilityDay, error)
	GetDay(ctx context.Context, professionalID string, weekday models.Weekday) (*models.AvailabilityDay, error)
	GetWeek(ctx context.Context, professionalID string) ([]models.AvailabilityDay, error)
}

type UpcomingSessions interface {
	Upcoming(ctx context.Context, professionalID string, from time.Time, weeks int) ([]models.UpcomingSession, error)
}

type AvailabilityHandler struct {
	Catalog  AvailabilityCatalog
	Sessions UpcomingSessions
	Logger   *zap.Logger
	Now      func() time.Time
}

func NewAvailabilityHandler(catalog AvailabilityCatalog, sessions UpcomingSessions, logger *zap.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{Catalog: catalog, Sessions: sessions, Logger: logger, Now: time.Now}
}

func parseWeekdayParam(c *gin.Context) (models.Weekday, bool) {
	wd, err := models.ParseWeekday(c.Param("weekday"))
	if err != nil {
		utils.RespondError(c, utils.NewValidation("unknown weekday %q", c.Param("weekday")))
		return 0, false
	}
	return wd, true
}

// SetDay handles PUT /api/availability/:weekday for the authenticated professional.
func (h *AvailabilityHandler) SetDay(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	weekday, ok := parseWeekdayParam(c)
	if !ok {
		return
	}

	var req models.SetDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Logger.Debug("Invalid availability request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "message": err.Error()})
		return
	}

	day, err := h.Catalog.SetDay(c.Request.Context(), actor, actor.ID, weekday, req.Slots, req.Available)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"day": day})
}

func (h *AvailabilityHandler) GetDay(c *gin.Context) {
	weekday, ok := parseWeekdayParam(c)
	if !ok {
		return
	}
	day, err := h.Catalog.GetDay(c.Request.Context(), c.Param("professionalId"), weekday)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"day": day})
}

func (h *AvailabilityHandler) GetWeek(c *gin.Context) {
	week, err := h.Catalog.GetWeek(c.Request.Context(), c.Param("professionalId"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"week": week})
}

// GetSessions lists the professional's free concrete sessions for the next ?weeks= weeks.
func (h *AvailabilityHandler) GetSessions(c *gin.Context) {
	weeks, err := strconv.Atoi(c.DefaultQuery("weeks", "2"))
	if err != nil {
		utils.RespondError(c, utils.NewValidation("weeks must be a number"))
		return
	}
	sessions, err := h.Sessions.Upcoming(c.Request.Context(), c.Param("professionalId"), h.Now(), weeks)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}
