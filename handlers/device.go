package handlers

import (
	"net/http"

	"mindhaven/utils"

	"github.com/gin-gonic/gin"
)

type DeviceHandler struct {
	Registry PrincipalRegistry
}

func NewDeviceHandler(registry PrincipalRegistry) *DeviceHandler {
	return &DeviceHandler{Registry: registry}
}

// UpdateFCMTokenHandler stores the caller's push token.
func (h *DeviceHandler) UpdateFCMTokenHandler(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var body struct {
		FCMToken string `json:"fcmToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid fcmToken"})
		return
	}

	if err := h.Registry.UpdateFCMToken(c.Request.Context(), actor.ID, body.FCMToken); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "FCM token updated"})
}

// MeHandler returns the caller's own account.
func (h *DeviceHandler) MeHandler(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	p, err := h.Registry.Get(c.Request.Context(), actor.ID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"principal": p})
}
