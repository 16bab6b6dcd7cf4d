package auth

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gocql/gocql"

	"proteia_back_end/internal/apperr"
	"proteia_back_end/internal/database/sequence"
	"proteia_back_end/internal/models"
)

// ScyllaSchema : tables du keyspace utilisateurs
var ScyllaSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (user_id bigint PRIMARY KEY, name text, email text, password_hash text, created_at timestamp)`,
	`CREATE TABLE IF NOT EXISTS users_by_email (email text PRIMARY KEY, user_id bigint)`,
	`CREATE TABLE IF NOT EXISTS roles (role_name text PRIMARY KEY, description text, created_at timestamp)`,
	`CREATE TABLE IF NOT EXISTS user_roles (user_id bigint, role_name text, assigned_at timestamp, PRIMARY KEY (user_id, role_name))`,
	`CREATE TABLE IF NOT EXISTS user_sessions (
		session_id text PRIMARY KEY, user_id bigint, session_token text, refresh_token text,
		expires_at timestamp, created_at timestamp, last_activity timestamp, is_active boolean,
		user_agent text, ip_address text)`,
	`CREATE TABLE IF NOT EXISTS sessions_by_refresh (refresh_token text PRIMARY KEY, session_id text)`,
	sequence.Schema,
}

type ScyllaStore struct {
	session *gocql.Session
}

func NewScyllaStore(session *gocql.Session) *ScyllaStore {
	return &ScyllaStore{session: session}
}

func (s *ScyllaStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range ScyllaSchema {
		if err := s.session.Query(stmt).WithContext(ctx).Exec(); err != nil {
			return fmt.Errorf("création schéma utilisateurs: %w", err)
		}
	}
	return nil
}

func (s *ScyllaStore) SeedRoles(ctx context.Context) error {
	for name, desc := range DefaultRoles {
		var existingName, existingDesc string
		var existingCreated time.Time
		_, err := s.session.Query(`INSERT INTO roles (role_name, description, created_at) VALUES (?, ?, ?) IF NOT EXISTS`,
			name, desc, time.Now().UTC()).WithContext(ctx).ScanCAS(&existingName, &existingDesc, &existingCreated)
		if err != nil {
			return fmt.Errorf("création rôle %s: %w", name, err)
		}
	}
	return nil
}

// CreateUser réserve l'email par LWT avant d'écrire l'utilisateur
func (s *ScyllaStore) CreateUser(ctx context.Context, u *models.User, roles ...string) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, name := range roles {
		if _, ok := DefaultRoles[name]; !ok {
			return apperr.Validation("rôle %s inconnu", name)
		}
	}

	id, err := sequence.Next(ctx, s.session, "users")
	if err != nil {
		return err
	}

	var existingEmail string
	var existingID int64
	applied, err := s.session.Query(`INSERT INTO users_by_email (email, user_id) VALUES (?, ?) IF NOT EXISTS`, u.Email, id).
		WithContext(ctx).ScanCAS(&existingEmail, &existingID)
	if err != nil {
		return fmt.Errorf("réservation email: %w", err)
	}
	if !applied {
		return apperr.Validation("email %s déjà utilisé", u.Email)
	}

	u.ID = id
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	if err := s.session.Query(`INSERT INTO users (user_id, name, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.CreatedAt).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("création utilisateur: %w", err)
	}

	for _, name := range roles {
		if err := s.session.Query(`INSERT INTO user_roles (user_id, role_name, assigned_at) VALUES (?, ?, ?)`,
			u.ID, name, time.Now().UTC()).WithContext(ctx).Exec(); err != nil {
			return fmt.Errorf("attribution rôle %s: %w", name, err)
		}
	}
	return nil
}

func (s *ScyllaStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	u := models.User{ID: id}
	err := s.session.Query(`SELECT name, email, password_hash, created_at FROM users WHERE user_id = ?`, id).
		WithContext(ctx).Scan(&u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, apperr.NotFound("utilisateur %d introuvable", id)
	}
	if err != nil {
		return nil, fmt.Errorf("lecture utilisateur %d: %w", id, err)
	}
	return &u, nil
}

func (s *ScyllaStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var id int64
	err := s.session.Query(`SELECT user_id FROM users_by_email WHERE email = ?`, strings.ToLower(strings.TrimSpace(email))).
		WithContext(ctx).Scan(&id)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, apperr.NotFound("utilisateur %s introuvable", email)
	}
	if err != nil {
		return nil, fmt.Errorf("lecture email %s: %w", email, err)
	}
	return s.GetUser(ctx, id)
}

func (s *ScyllaStore) UserRoles(ctx context.Context, userID int64) ([]string, error) {
	iter := s.session.Query(`SELECT role_name FROM user_roles WHERE user_id = ?`, userID).WithContext(ctx).Iter()
	var roles []string
	var name string
	for iter.Scan(&name) {
		roles = append(roles, name)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture rôles %d: %w", userID, err)
	}
	sort.Strings(roles)
	return roles, nil
}

func sessionColumns(session *models.UserSession) []interface{} {
	return []interface{}{
		&session.ID, &session.UserID, &session.SessionToken, &session.RefreshToken,
		&session.ExpiresAt, &session.CreatedAt, &session.LastActivity, &session.IsActive,
		&session.UserAgent, &session.IPAddress,
	}
}

const sessionFields = `session_id, user_id, session_token, refresh_token, expires_at, created_at, last_activity, is_active, user_agent, ip_address`

func (s *ScyllaStore) CreateSession(ctx context.Context, session *models.UserSession) error {
	return s.writeSession(ctx, session, "")
}

func (s *ScyllaStore) UpdateSession(ctx context.Context, session *models.UserSession) error {
	var previous string
	err := s.session.Query(`SELECT refresh_token FROM user_sessions WHERE session_id = ?`, session.ID).
		WithContext(ctx).Scan(&previous)
	if errors.Is(err, gocql.ErrNotFound) {
		return apperr.NotFound("session introuvable")
	}
	if err != nil {
		return fmt.Errorf("lecture session: %w", err)
	}
	return s.writeSession(ctx, session, previous)
}

// writeSession écrit la session et son index par refresh token dans un batch
func (s *ScyllaStore) writeSession(ctx context.Context, session *models.UserSession, previousRefresh string) error {
	batch := s.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	batch.Query(`INSERT INTO user_sessions (`+sessionFields+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, sessionColumns(session)...)
	if previousRefresh != "" && previousRefresh != session.RefreshToken {
		batch.Query(`DELETE FROM sessions_by_refresh WHERE refresh_token = ?`, previousRefresh)
	}
	if session.RefreshToken != "" {
		batch.Query(`INSERT INTO sessions_by_refresh (refresh_token, session_id) VALUES (?, ?)`, session.RefreshToken, session.ID)
	}
	if err := s.session.ExecuteBatch(batch); err != nil {
		return fmt.Errorf("écriture session: %w", err)
	}
	return nil
}

func (s *ScyllaStore) GetSession(ctx context.Context, id string) (*models.UserSession, error) {
	var session models.UserSession
	err := s.session.Query(`SELECT `+sessionFields+` FROM user_sessions WHERE session_id = ?`, id).
		WithContext(ctx).Scan(sessionColumns(&session)...)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, apperr.NotFound("session introuvable")
	}
	if err != nil {
		return nil, fmt.Errorf("lecture session: %w", err)
	}
	return &session, nil
}

func (s *ScyllaStore) GetSessionByRefreshToken(ctx context.Context, refreshToken string) (*models.UserSession, error) {
	var id string
	err := s.session.Query(`SELECT session_id FROM sessions_by_refresh WHERE refresh_token = ?`, refreshToken).
		WithContext(ctx).Scan(&id)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, apperr.NotFound("session introuvable")
	}
	if err != nil {
		return nil, fmt.Errorf("lecture refresh token: %w", err)
	}
	return s.GetSession(ctx, id)
}
