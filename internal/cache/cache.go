package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"
)

const DashboardPrefix = "dashboard:"

// DashboardKey construit "dashboard:<vue>[:params]"
func DashboardKey(view string, params ...string) string {
	parts := append([]string{strings.TrimSuffix(DashboardPrefix, ":"), view}, params...)
	return strings.Join(parts, ":")
}

// GetJSON lit une valeur ; false si absente ou cache désactivé
func (r *Redis) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if !r.Enabled() {
		return false, nil
	}
	data, ok, err := r.get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		// Entrée corrompue : on l'ignore, elle sera réécrite
		return false, nil
	}
	return true, nil
}

func (r *Redis) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	if !r.Enabled() {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

// Remember applique le cache-aside : Redis d'abord, sinon load puis mise en cache.
// Une panne Redis n'empêche jamais de servir la donnée.
func Remember[T any](ctx context.Context, r *Redis, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	var cached T
	ok, err := r.GetJSON(ctx, key, &cached)
	if err != nil {
		zap.L().Warn("⚠️ Lecture cache impossible", zap.String("key", key), zap.Error(err))
	}
	if ok {
		return cached, nil
	}

	value, err := load()
	if err != nil {
		return value, err
	}
	if err := r.SetJSON(ctx, key, value, ttl); err != nil {
		zap.L().Warn("⚠️ Écriture cache impossible", zap.String("key", key), zap.Error(err))
	}
	return value, nil
}

// InvalidateDashboard supprime toutes les vues du dashboard en cache
func (r *Redis) InvalidateDashboard(ctx context.Context) (int, error) {
	if !r.Enabled() {
		return 0, nil
	}

	deleted := 0
	iter := r.client.Scan(ctx, 0, DashboardPrefix+"*", 100).Iterator()
	batch := make([]string, 0, 100)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			n, err := r.client.Del(ctx, batch...).Result()
			if err != nil {
				return deleted, err
			}
			deleted += int(n)
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, err
	}
	if len(batch) > 0 {
		n, err := r.client.Del(ctx, batch...).Result()
		if err != nil {
			return deleted, err
		}
		deleted += int(n)
	}

	zap.L().Info("🧹 Cache dashboard invalidé", zap.Int("keys", deleted))
	return deleted, nil
}
