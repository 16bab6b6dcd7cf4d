package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Actions auditées
const (
	ActionCacheInvalidate = "dashboard.cache.invalidate"
	ActionReportExport    = "dashboard.report.export"
)

// AuditAction trace les actions sensibles avec l'utilisateur et le résultat
func AuditAction(action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("action", action),
			zap.Int("status", c.Writer.Status()),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		}
		if p, ok := CurrentPrincipal(c); ok {
			fields = append(fields, zap.Int64("user_id", p.UserID), zap.String("session_id", p.SessionID))
		}

		if c.Writer.Status() >= 200 && c.Writer.Status() < 300 {
			zap.L().Info("📝 Audit", fields...)
		} else {
			zap.L().Warn("📝 Audit: action échouée", fields...)
		}
	}
}
