package auth

import (
	"context"

	"proteia_back_end/internal/models"
)

// DefaultRoles sont créés au démarrage
var DefaultRoles = map[string]string{
	models.RoleAdmin:   "Accès complet, gestion du cache",
	models.RoleAnalyst: "Lecture du dashboard et export de rapports",
	models.RoleViewer:  "Lecture du dashboard",
}

// Store persiste utilisateurs, rôles et sessions
type Store interface {
	SeedRoles(ctx context.Context) error
	// CreateUser renvoie une erreur Validation si l'email existe déjà
	CreateUser(ctx context.Context, u *models.User, roles ...string) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UserRoles(ctx context.Context, userID int64) ([]string, error)

	CreateSession(ctx context.Context, s *models.UserSession) error
	GetSession(ctx context.Context, id string) (*models.UserSession, error)
	GetSessionByRefreshToken(ctx context.Context, refreshToken string) (*models.UserSession, error)
	UpdateSession(ctx context.Context, s *models.UserSession) error
}
