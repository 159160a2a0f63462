package middleware

import (
	"context"
	"net/http"
	"strings"

	"mindhaven/models"
	"mindhaven/utils"

	"github.com/gin-gonic/gin"
)

const (
	ContextPrincipalID = "principalID"
	ContextRole        = "role"
)

// PrincipalLookup resolves the subject of a token.
type PrincipalLookup interface {
	GetByID(ctx context.Context, id string) (*models.Principal, error)
}

// JWTAuthMiddleware authenticates a bearer token and sets the principal id and role in the
// context. The token's role must match the stored principal.
func JWTAuthMiddleware(principals PrincipalLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c, principals) {
			return
		}
		c.Next()
	}
}

// authenticate sets the actor in the context, or aborts with 401.
func authenticate(c *gin.Context, principals PrincipalLookup) bool {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
		return false
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")

	claims, err := utils.ParseClaims(tokenString)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return false
	}

	p, err := principals.GetByID(c.Request.Context(), claims.Subject)
	if err != nil || p == nil || string(p.Role) != claims.Role {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token mismatch or principal not found"})
		return false
	}

	c.Set(ContextPrincipalID, p.ID)
	c.Set(ContextRole, p.Role)
	return true
}

// ActorFrom returns the authenticated actor. ok is false outside JWTAuthMiddleware.
func ActorFrom(c *gin.Context) (models.Actor, bool) {
	id, ok := c.Get(ContextPrincipalID)
	if !ok {
		return models.Actor{}, false
	}
	role, ok := c.Get(ContextRole)
	if !ok {
		return models.Actor{}, false
	}
	principalID, _ := id.(string)
	r, _ := role.(models.Role)
	if principalID == "" || r == "" {
		return models.Actor{}, false
	}
	return models.Actor{ID: principalID, Role: r}, true
}
