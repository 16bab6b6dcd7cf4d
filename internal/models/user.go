package models

import (
	"time"
)

// Rôles connus
const (
	RoleAdmin   = "Admin"
	RoleAnalyst = "Analyst"
	RoleViewer  = "Viewer"
)

type User struct {
	ID           int64     `json:"userId" gorm:"primaryKey"`
	Name         string    `json:"name,omitempty" gorm:"size:100"`
	Email        string    `json:"email" gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Role struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	RoleName    string    `json:"roleName" gorm:"size:50;uniqueIndex;not null"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type UserRole struct {
	UserID     int64     `json:"userId" gorm:"primaryKey"`
	RoleID     int64     `json:"roleId" gorm:"primaryKey"`
	AssignedAt time.Time `json:"assignedAt"`
}

// UserSession : une ligne par login, le token est unique côté store
type UserSession struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	UserID       int64     `json:"userId" gorm:"index;not null"`
	SessionToken string    `json:"-" gorm:"size:1000;uniqueIndex;not null"`
	RefreshToken string    `json:"-" gorm:"size:200;uniqueIndex"`
	ExpiresAt    time.Time `json:"expiresAt"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
	IsActive     bool      `json:"isActive"`
	UserAgent    string    `json:"userAgent,omitempty" gorm:"size:500"`
	IPAddress    string    `json:"ipAddress,omitempty" gorm:"size:45"`
}
