package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"proteia_back_end/internal/apperr"
	"proteia_back_end/internal/auth"
)

const principalKey = "principal"

// TokenValidator est satisfait par *auth.Service
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*auth.Principal, error)
}

func AuthRequired(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token manquant"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Format Authorization invalide"})
			return
		}

		principal, err := validator.Validate(c.Request.Context(), parts[1])
		if err != nil {
			if apperr.KindOf(err) == apperr.KindUnauthorized {
				zap.L().Debug("🔐 Token refusé", zap.String("path", c.FullPath()), zap.Error(err))
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": apperr.MessageOf(err)})
				return
			}
			zap.L().Error("❌ Validation token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
			return
		}

		// ✅ Identité disponible pour les handlers
		c.Set(principalKey, principal)
		c.Set("user_id", principal.UserID)
		c.Set("email", principal.Email)
		c.Set("roles", principal.Roles)
		c.Next()
	}
}

// CurrentPrincipal retourne l'identité posée par AuthRequired
func CurrentPrincipal(c *gin.Context) (*auth.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*auth.Principal)
	return p, ok
}
