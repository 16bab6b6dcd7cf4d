package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequireRole laisse passer si l'utilisateur possède au moins un des rôles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := CurrentPrincipal(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié"})
			return
		}

		if !principal.HasRole(roles...) {
			zap.L().Warn("🚫 Rôle insuffisant",
				zap.Int64("user_id", principal.UserID),
				zap.Strings("required", roles),
				zap.String("path", c.FullPath()))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":          "Permission insuffisante",
				"required_roles": roles,
			})
			return
		}

		c.Next()
	}
}
