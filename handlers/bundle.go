package handlers

import (
	"net/http"

	"mindhaven/middleware"
	"mindhaven/models"

	"github.com/gin-gonic/gin"
)

// HandlerBundle groups the endpoint handlers the router registers.
type HandlerBundle struct {
	Principals middleware.PrincipalLookup
	AdminToken string

	Booking      *BookingHandler
	Availability *AvailabilityHandler
	Admin        *AdminHandler
	Device       *DeviceHandler
}

// actorOrAbort reads the authenticated actor set by JWTAuthMiddleware.
func actorOrAbort(c *gin.Context) (models.Actor, bool) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Principal not authenticated"})
		return models.Actor{}, false
	}
	return actor, true
}
