package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"proteia_back_end/internal/apperr"
	"proteia_back_end/internal/models"
	"proteia_back_end/internal/utils"
)

// TokenBlacklist est satisfait par *cache.Redis ; nil désactive la liste noire
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, tokenID string, ttl time.Duration) error
	IsTokenBlacklisted(ctx context.Context, tokenID string) (bool, error)
}

type Options struct {
	Secret     string
	TokenTTL   time.Duration
	RefreshTTL time.Duration
}

type Service struct {
	store     Store
	blacklist TokenBlacklist
	opts      Options
	now       func() time.Time
}

// SessionMeta : informations client enregistrées avec la session
type SessionMeta struct {
	UserAgent string
	IPAddress string
}

type LoginResult struct {
	UserID       int64     `json:"userId"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Token        string    `json:"token"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
	Roles        []string  `json:"roles"`
}

// Principal : identité résolue depuis un token d'accès valide
type Principal struct {
	UserID    int64
	Email     string
	Roles     []string
	SessionID string
	TokenID   string
	ExpiresAt time.Time
}

func (p *Principal) HasRole(roles ...string) bool {
	for _, have := range p.Roles {
		for _, want := range roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

type Profile struct {
	*models.User
	Roles []string `json:"roles"`
}

func NewService(store Store, blacklist TokenBlacklist, opts Options) *Service {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 8 * time.Hour
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = 7 * 24 * time.Hour
	}
	return &Service{store: store, blacklist: blacklist, opts: opts, now: time.Now}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) Register(ctx context.Context, name, email, password string, meta SessionMeta) (*LoginResult, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" {
		return nil, apperr.Validation("nom requis")
	}
	if !strings.Contains(email, "@") {
		return nil, apperr.Validation("email invalide")
	}
	if err := utils.CheckPasswordStrength(password); err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, apperr.Internal(err, "hash du mot de passe")
	}

	user := &models.User{Name: name, Email: email, PasswordHash: hash}
	if err := s.store.CreateUser(ctx, user, models.RoleViewer); err != nil {
		if apperr.KindOf(err) == apperr.KindValidation {
			return nil, err
		}
		return nil, apperr.Internal(err, "création utilisateur")
	}
	zap.L().Info("👤 Nouvel utilisateur", zap.Int64("user_id", user.ID), zap.String("email", user.Email))

	return s.openSession(ctx, user, []string{models.RoleViewer}, meta)
}

func (s *Service) Login(ctx context.Context, email, password string, meta SessionMeta) (*LoginResult, error) {
	user, err := s.store.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Unauthorized("identifiants invalides")
		}
		return nil, apperr.Internal(err, "lecture utilisateur")
	}

	ok, err := utils.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		zap.L().Warn("⚠️ Hash illisible", zap.Int64("user_id", user.ID), zap.Error(err))
		return nil, apperr.Unauthorized("identifiants invalides")
	}
	if !ok {
		return nil, apperr.Unauthorized("identifiants invalides")
	}

	roles, err := s.store.UserRoles(ctx, user.ID)
	if err != nil {
		return nil, apperr.Internal(err, "lecture rôles")
	}
	return s.openSession(ctx, user, roles, meta)
}

func (s *Service) openSession(ctx context.Context, user *models.User, roles []string, meta SessionMeta) (*LoginResult, error) {
	now := s.now().UTC()
	session := &models.UserSession{
		ID:           uuid.NewString(),
		UserID:       user.ID,
		ExpiresAt:    now.Add(s.opts.RefreshTTL),
		CreatedAt:    now,
		LastActivity: now,
		IsActive:     true,
		UserAgent:    meta.UserAgent,
		IPAddress:    meta.IPAddress,
	}
	issued, refresh, err := s.issue(user, roles, session)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, apperr.Internal(err, "création session")
	}
	return s.result(user, roles, issued, refresh), nil
}

// issue signe un nouveau couple de tokens et les rattache à la session
func (s *Service) issue(user *models.User, roles []string, session *models.UserSession) (*utils.IssuedToken, string, error) {
	issued, err := utils.GenerateJWT(s.opts.Secret, user.ID, user.Email, roles, session.ID, s.opts.TokenTTL)
	if err != nil {
		return nil, "", apperr.Internal(err, "génération token")
	}
	refresh, err := utils.GenerateRefreshToken()
	if err != nil {
		return nil, "", apperr.Internal(err, "génération refresh token")
	}
	session.SessionToken = issued.ID
	session.RefreshToken = refresh
	return issued, refresh, nil
}

func (s *Service) result(user *models.User, roles []string, issued *utils.IssuedToken, refresh string) *LoginResult {
	if roles == nil {
		roles = []string{}
	}
	return &LoginResult{
		UserID:       user.ID,
		Name:         user.Name,
		Email:        user.Email,
		Token:        issued.Token,
		RefreshToken: refresh,
		ExpiresAt:    issued.ExpiresAt,
		Roles:        roles,
	}
}

// Validate vérifie signature, liste noire et état de la session
func (s *Service) Validate(ctx context.Context, token string) (*Principal, error) {
	claims, err := utils.ParseJWT(s.opts.Secret, token)
	if err != nil {
		return nil, apperr.Unauthorized("token invalide")
	}

	if s.blacklist != nil {
		revoked, err := s.blacklist.IsTokenBlacklisted(ctx, claims.ID)
		if err != nil {
			zap.L().Warn("⚠️ Liste noire indisponible", zap.Error(err))
		} else if revoked {
			return nil, apperr.Unauthorized("token révoqué")
		}
	}

	session, err := s.activeSession(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if session.SessionToken != claims.ID || session.UserID != claims.UserID {
		return nil, apperr.Unauthorized("token remplacé")
	}

	session.LastActivity = s.now().UTC()
	if err := s.store.UpdateSession(ctx, session); err != nil {
		zap.L().Warn("⚠️ Mise à jour activité session", zap.String("session_id", session.ID), zap.Error(err))
	}

	p := &Principal{
		UserID:    claims.UserID,
		Email:     claims.Email,
		Roles:     claims.Roles,
		SessionID: claims.SessionID,
		TokenID:   claims.ID,
	}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Time
	}
	return p, nil
}

func (s *Service) activeSession(ctx context.Context, id string) (*models.UserSession, error) {
	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Unauthorized("session inconnue")
		}
		return nil, apperr.Internal(err, "lecture session")
	}
	if !session.IsActive || !s.now().Before(session.ExpiresAt) {
		return nil, apperr.Unauthorized("session expirée")
	}
	return session, nil
}

// Refresh fait tourner les deux tokens ; l'ancien token d'accès devient invalide
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	if refreshToken == "" {
		return nil, apperr.Validation("refresh token requis")
	}
	found, err := s.store.GetSessionByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Unauthorized("refresh token invalide")
		}
		return nil, apperr.Internal(err, "lecture session")
	}
	session, err := s.activeSession(ctx, found.ID)
	if err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Unauthorized("utilisateur supprimé")
		}
		return nil, apperr.Internal(err, "lecture utilisateur")
	}
	roles, err := s.store.UserRoles(ctx, user.ID)
	if err != nil {
		return nil, apperr.Internal(err, "lecture rôles")
	}

	previous := session.SessionToken
	issued, refresh, err := s.issue(user, roles, session)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	session.ExpiresAt = now.Add(s.opts.RefreshTTL)
	session.LastActivity = now
	if err := s.store.UpdateSession(ctx, session); err != nil {
		return nil, apperr.Internal(err, "rotation session")
	}
	s.revoke(ctx, previous, s.opts.TokenTTL)

	return s.result(user, roles, issued, refresh), nil
}

// Logout désactive la session et place le token en liste noire jusqu'à son expiration
func (s *Service) Logout(ctx context.Context, p *Principal) error {
	session, err := s.store.GetSession(ctx, p.SessionID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.Unauthorized("session inconnue")
		}
		return apperr.Internal(err, "lecture session")
	}
	session.IsActive = false
	session.LastActivity = s.now().UTC()
	if err := s.store.UpdateSession(ctx, session); err != nil {
		return apperr.Internal(err, "fermeture session")
	}

	ttl := p.ExpiresAt.Sub(s.now())
	s.revoke(ctx, p.TokenID, ttl)
	zap.L().Info("👋 Déconnexion", zap.Int64("user_id", p.UserID), zap.String("session_id", p.SessionID))
	return nil
}

func (s *Service) revoke(ctx context.Context, tokenID string, ttl time.Duration) {
	if s.blacklist == nil || tokenID == "" || ttl <= 0 {
		return
	}
	if err := s.blacklist.BlacklistToken(ctx, tokenID, ttl); err != nil {
		zap.L().Warn("⚠️ Impossible de révoquer le token", zap.String("jti", tokenID), zap.Error(err))
	}
}

func (s *Service) Profile(ctx context.Context, userID int64) (*Profile, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		return nil, apperr.Internal(err, "lecture utilisateur")
	}
	roles, err := s.store.UserRoles(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err, "lecture rôles")
	}
	return &Profile{User: user, Roles: roles}, nil
}
