package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"proteia_back_end/internal/apperr"
	"proteia_back_end/internal/models"
)

type memoryBlacklist struct {
	mu  sync.Mutex
	ids map[string]time.Duration
}

func (b *memoryBlacklist) BlacklistToken(_ context.Context, tokenID string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ids == nil {
		b.ids = map[string]time.Duration{}
	}
	b.ids[tokenID] = ttl
	return nil
}

func (b *memoryBlacklist) IsTokenBlacklisted(_ context.Context, tokenID string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.ids[tokenID]
	return ok, nil
}

func newStore(t *testing.T) *GormStore {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	s := NewGormStore(db)
	require.NoError(t, s.Migrate())
	require.NoError(t, s.SeedRoles(context.Background()))
	return s
}

func newAuth(t *testing.T) (*Service, *GormStore, *memoryBlacklist) {
	store := newStore(t)
	bl := &memoryBlacklist{}
	svc := NewService(store, bl, Options{Secret: "test-secret", TokenTTL: time.Hour, RefreshTTL: 24 * time.Hour})
	return svc, store, bl
}

var meta = SessionMeta{UserAgent: "go-test", IPAddress: "127.0.0.1"}

func TestSeedRolesIsIdempotent(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.SeedRoles(context.Background()))

	var count int64
	require.NoError(t, store.db.Model(&models.Role{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}

func TestRegisterThenLogin(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newAuth(t)

	reg, err := svc.Register(ctx, "Ana", " Ana@Proteia.test ", "proteo2024", meta)
	require.NoError(t, err)
	assert.Equal(t, "ana@proteia.test", reg.Email)
	assert.Equal(t, []string{models.RoleViewer}, reg.Roles)
	assert.NotEmpty(t, reg.Token)
	assert.NotEmpty(t, reg.RefreshToken)

	res, err := svc.Login(ctx, "ANA@proteia.test", "proteo2024", meta)
	require.NoError(t, err)
	assert.Equal(t, reg.UserID, res.UserID)
	assert.NotEqual(t, reg.Token, res.Token)

	p, err := svc.Validate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.UserID, p.UserID)
	assert.True(t, p.HasRole(models.RoleViewer))
	assert.False(t, p.HasRole(models.RoleAdmin, models.RoleAnalyst))

	profile, err := svc.Profile(ctx, p.UserID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", profile.Name)
	assert.Equal(t, []string{models.RoleViewer}, profile.Roles)
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newAuth(t)

	_, err := svc.Register(ctx, "", "a@b.c", "proteo2024", meta)
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = svc.Register(ctx, "Bob", "pas-un-email", "proteo2024", meta)
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = svc.Register(ctx, "Bob", "bob@proteia.test", "court", meta)
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = svc.Register(ctx, "Bob", "bob@proteia.test", "proteo2024", meta)
	require.NoError(t, err)
	_, err = svc.Register(ctx, "Bob bis", "BOB@proteia.test", "proteo2024", meta)
	assert.True(t, errors.Is(err, apperr.ErrValidation), "email dupliqué")
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newAuth(t)
	_, err := svc.Register(ctx, "Ana", "ana@proteia.test", "proteo2024", meta)
	require.NoError(t, err)

	_, err = svc.Login(ctx, "ana@proteia.test", "mauvais123", meta)
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))

	_, err = svc.Login(ctx, "inconnu@proteia.test", "proteo2024", meta)
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))
}

func TestValidateRejectsGarbageAndForeignSecret(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newAuth(t)
	res, err := svc.Register(ctx, "Ana", "ana@proteia.test", "proteo2024", meta)
	require.NoError(t, err)

	_, err = svc.Validate(ctx, "pas.un.jwt")
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))

	other := NewService(store, nil, Options{Secret: "autre-secret"})
	_, err = other.Validate(ctx, res.Token)
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))
}

func TestValidateRejectsExpiredSession(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newAuth(t)
	res, err := svc.Register(ctx, "Ana", "ana@proteia.test", "proteo2024", meta)
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	_, err = svc.Validate(ctx, res.Token)
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))
}

func TestRefreshRotatesTokens(t *testing.T) {
	ctx := context.Background()
	svc, _, bl := newAuth(t)
	first, err := svc.Register(ctx, "Ana", "ana@proteia.test", "proteo2024", meta)
	require.NoError(t, err)

	second, err := svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, second.Token)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = svc.Validate(ctx, second.Token)
	require.NoError(t, err)

	_, err = svc.Validate(ctx, first.Token)
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized), "l'ancien token est remplacé")
	assert.Len(t, bl.ids, 1)

	_, err = svc.Refresh(ctx, first.RefreshToken)
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized), "l'ancien refresh token est consommé")

	_, err = svc.Refresh(ctx, "")
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestLogoutRevokesSession(t *testing.T) {
	ctx := context.Background()
	svc, store, bl := newAuth(t)
	res, err := svc.Register(ctx, "Ana", "ana@proteia.test", "proteo2024", meta)
	require.NoError(t, err)

	p, err := svc.Validate(ctx, res.Token)
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, p))

	revoked, _ := bl.IsTokenBlacklisted(ctx, p.TokenID)
	assert.True(t, revoked)

	session, err := store.GetSession(ctx, p.SessionID)
	require.NoError(t, err)
	assert.False(t, session.IsActive)

	_, err = svc.Validate(ctx, res.Token)
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))

	_, err = svc.Refresh(ctx, res.RefreshToken)
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))
}
