package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"mindhaven/models"

	"github.com/gin-gonic/gin"
)

// AdminPrincipalID is the actor id used for requests authenticated with the static admin token.
const AdminPrincipalID = "admin"

// JWTAuthAdminMiddleware accepts either the configured static admin token or a JWT of an
// admin principal. An empty staticToken disables the static path.
func JWTAuthAdminMiddleware(principals PrincipalLookup, staticToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		if staticToken != "" && strings.HasPrefix(authHeader, "Bearer ") &&
			subtle.ConstantTimeCompare([]byte(tokenString), []byte(staticToken)) == 1 {
			c.Set(ContextPrincipalID, AdminPrincipalID)
			c.Set(ContextRole, models.RoleAdmin)
			c.Next()
			return
		}

		if !authenticate(c, principals) {
			return
		}
		if actor, _ := ActorFrom(c); actor.Role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Unauthorized admin access"})
			return
		}
		c.Next()
	}
}
