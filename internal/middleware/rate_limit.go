package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// Limites par endpoint
	LoginMaxAttempts = 5
	APIMaxRequests   = 100 // Par minute et par IP

	LoginCooldown = 15 * time.Minute
	APIWindow     = 1 * time.Minute
)

// RateLimiter est satisfait par *cache.Redis ; un cache désactivé laisse tout passer
type RateLimiter interface {
	IncrementRateLimit(ctx context.Context, key string, window time.Duration) (int64, error)
	RateLimitCount(ctx context.Context, key string) (int64, error)
	RateLimitTTL(ctx context.Context, key string) time.Duration
	ResetRateLimit(ctx context.Context, key string) error
}

func tooMany(c *gin.Context, msg string, retry time.Duration) {
	seconds := int(retry.Seconds())
	c.Header("Retry-After", fmt.Sprintf("%d", seconds))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error":       msg,
		"retry_after": seconds,
	})
}

// LoginRateLimit compte les échecs de connexion par email
func LoginRateLimit(limiter RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Lire le body sans le consommer
		bodyBytes, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Next()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		var input struct {
			Email string `json:"email"`
		}
		if err := json.Unmarshal(bodyBytes, &input); err != nil || input.Email == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := "login_attempts:" + strings.ToLower(strings.TrimSpace(input.Email))

		attempts, err := limiter.RateLimitCount(ctx, key)
		if err != nil {
			zap.L().Warn("⚠️ Rate limit login indisponible", zap.Error(err))
		}
		if attempts >= LoginMaxAttempts {
			ttl := limiter.RateLimitTTL(ctx, key)
			if ttl <= 0 {
				ttl = LoginCooldown
			}
			tooMany(c, fmt.Sprintf("Trop de tentatives échouées. Réessayez dans %d minutes", int(ttl.Minutes())+1), ttl)
			return
		}

		c.Next()

		switch c.Writer.Status() {
		case http.StatusUnauthorized:
			if _, err := limiter.IncrementRateLimit(ctx, key, LoginCooldown); err != nil {
				zap.L().Warn("⚠️ Incrément tentatives login", zap.Error(err))
			}
		case http.StatusOK:
			// Login réussi, réinitialiser les tentatives
			_ = limiter.ResetRateLimit(ctx, key)
		}
	}
}

// APIRateLimit limite le nombre de requêtes par IP
func APIRateLimit(limiter RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := "api_requests:" + c.ClientIP()

		requests, err := limiter.IncrementRateLimit(ctx, key, APIWindow)
		if err != nil {
			zap.L().Warn("⚠️ Rate limit API indisponible", zap.Error(err))
			c.Next()
			return
		}
		if requests == 0 {
			// cache désactivé
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", APIMaxRequests))
		if requests > APIMaxRequests {
			ttl := limiter.RateLimitTTL(ctx, key)
			if ttl <= 0 {
				ttl = APIWindow
			}
			c.Header("X-RateLimit-Remaining", "0")
			tooMany(c, "Trop de requêtes. Réessayez dans 1 minute", ttl)
			return
		}
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", APIMaxRequests-requests))

		c.Next()
	}
}
