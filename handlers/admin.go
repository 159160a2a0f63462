package handlers

import (
	"context"
	"net/http"
	"time"

	"mindhaven/models"
	"mindhaven/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const principalTokenTTL = 30 * 24 * time.Hour

// PrincipalRegistry manages accounts and their pseudonymous identity.
type PrincipalRegistry interface {
	Register(ctx context.Context, p *models.Principal) (*models.Principal, error)
	PromoteToPeerCounselor(ctx context.Context, id string) (*models.Principal, error)
	UpdateFCMToken(ctx context.Context, id, token string) error
	Get(ctx context.Context, id string) (*models.Principal, error)
}

// AdminHandler encapsulates elevated admin-level operations.
type AdminHandler struct {
	Registry PrincipalRegistry
	Logger   *zap.Logger
}

func NewAdminHandler(registry PrincipalRegistry, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{Registry: registry, Logger: logger}
}

type registerPrincipalRequest struct {
	Role            models.Role `json:"role" binding:"required"`
	DisplayName     string      `json:"displayName" binding:"required"`
	Email           string      `json:"email"`
	IsPeerCounselor bool        `json:"isPeerCounselor"`
}

// RegisterPrincipalHandler creates an account and returns it with a bearer token.
func (ah *AdminHandler) RegisterPrincipalHandler(c *gin.Context) {
	var req registerPrincipalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "message": err.Error()})
		return
	}

	p, err := ah.Registry.Register(c.Request.Context(), &models.Principal{
		Role:            req.Role,
		DisplayName:     req.DisplayName,
		Email:           req.Email,
		IsPeerCounselor: req.IsPeerCounselor,
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	token, err := utils.GenerateToken(p.ID, string(p.Role), principalTokenTTL)
	if err != nil {
		ah.Logger.Error("Failed to issue token", zap.String("principalID", p.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"principal": p, "token": token})
}

// PromotePeerCounselorHandler flags a professional as a peer counselor. There is no demotion.
func (ah *AdminHandler) PromotePeerCounselorHandler(c *gin.Context) {
	p, err := ah.Registry.PromoteToPeerCounselor(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"principal": p})
}

func (ah *AdminHandler) GetPrincipalHandler(c *gin.Context) {
	p, err := ah.Registry.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"principal": p})
}
