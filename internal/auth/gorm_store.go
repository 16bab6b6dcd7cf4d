package auth

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"proteia_back_end/internal/apperr"
	"proteia_back_end/internal/models"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Migrate() error {
	return s.db.AutoMigrate(&models.User{}, &models.Role{}, &models.UserRole{}, &models.UserSession{})
}

func (s *GormStore) SeedRoles(ctx context.Context) error {
	for name, desc := range DefaultRoles {
		desc := desc
		role := models.Role{RoleName: name, Description: &desc}
		err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&role).Error
		if err != nil {
			return fmt.Errorf("création rôle %s: %w", name, err)
		}
	}
	return nil
}

func (s *GormStore) CreateUser(ctx context.Context, u *models.User, roles ...string) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", u.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperr.Validation("email %s déjà utilisé", u.Email)
		}
		if u.CreatedAt.IsZero() {
			u.CreatedAt = time.Now().UTC()
		}
		if err := tx.Create(u).Error; err != nil {
			return fmt.Errorf("création utilisateur: %w", err)
		}

		for _, name := range roles {
			var role models.Role
			if err := tx.Where("role_name = ?", name).First(&role).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.Validation("rôle %s inconnu", name)
				}
				return err
			}
			link := models.UserRole{UserID: u.ID, RoleID: role.ID, AssignedAt: time.Now().UTC()}
			if err := tx.Create(&link).Error; err != nil {
				return fmt.Errorf("attribution rôle %s: %w", name, err)
			}
		}
		return nil
	})
}

func (s *GormStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("utilisateur %d introuvable", id)
	}
	return &u, err
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("utilisateur %s introuvable", email)
	}
	return &u, err
}

func (s *GormStore) UserRoles(ctx context.Context, userID int64) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).
		Model(&models.Role{}).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Pluck("roles.role_name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("lecture rôles %d: %w", userID, err)
	}
	sort.Strings(names)
	return names, nil
}

func (s *GormStore) CreateSession(ctx context.Context, session *models.UserSession) error {
	return s.db.WithContext(ctx).Create(session).Error
}

func (s *GormStore) GetSession(ctx context.Context, id string) (*models.UserSession, error) {
	var session models.UserSession
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("session introuvable")
	}
	return &session, err
}

func (s *GormStore) GetSessionByRefreshToken(ctx context.Context, refreshToken string) (*models.UserSession, error) {
	var session models.UserSession
	err := s.db.WithContext(ctx).Where("refresh_token = ?", refreshToken).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("session introuvable")
	}
	return &session, err
}

func (s *GormStore) UpdateSession(ctx context.Context, session *models.UserSession) error {
	return s.db.WithContext(ctx).Save(session).Error
}
