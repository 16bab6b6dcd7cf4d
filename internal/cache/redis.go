package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis enveloppe le client. Un client nil désactive le cache, la blacklist
// et le rate limit sans faire échouer les appelants.
type Redis struct {
	client *redis.Client
}

func New(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Enabled() bool {
	return r != nil && r.client != nil
}

// --- Blacklist JWT (révocation avant expiration) ---

// BlacklistToken ajoute l'identifiant (jti) d'un token à la blacklist
func (r *Redis) BlacklistToken(ctx context.Context, tokenID string, duration time.Duration) error {
	if !r.Enabled() || duration <= 0 {
		return nil
	}
	key := fmt.Sprintf("blacklist:%s", tokenID)
	return r.client.Set(ctx, key, "revoked", duration).Err()
}

// IsTokenBlacklisted vérifie si un token est blacklisté
func (r *Redis) IsTokenBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	if !r.Enabled() {
		return false, nil
	}
	key := fmt.Sprintf("blacklist:%s", tokenID)
	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		zap.L().Warn("⚠️ Erreur vérification blacklist", zap.Error(err))
		return false, err
	}
	return exists > 0, nil
}

// --- Rate Limiting ---

// IncrementRateLimit incrémente le compteur ; la fenêtre démarre au premier appel
func (r *Redis) IncrementRateLimit(ctx context.Context, key string, window time.Duration) (int64, error) {
	if !r.Enabled() {
		return 0, nil
	}
	pipe := r.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// RateLimitCount lit le compteur sans l'incrémenter
func (r *Redis) RateLimitCount(ctx context.Context, key string) (int64, error) {
	if !r.Enabled() {
		return 0, nil
	}
	n, err := r.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// RateLimitTTL retourne le temps restant avant réouverture de la fenêtre
func (r *Redis) RateLimitTTL(ctx context.Context, key string) time.Duration {
	if !r.Enabled() {
		return 0
	}
	ttl, err := r.client.TTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		return 0
	}
	return ttl
}

// ResetRateLimit remet le compteur à zéro (login réussi)
func (r *Redis) ResetRateLimit(ctx context.Context, key string) error {
	if !r.Enabled() {
		return nil
	}
	return r.client.Del(ctx, key).Err()
}

// --- Cache générique ---

func (r *Redis) get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}
