package models

import (
	"time"
)

// Category : hiérarchie parent/enfant, ParentID est une simple référence arrière
type Category struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"size:100;uniqueIndex;not null"`
	Description *string   `json:"description,omitempty" gorm:"size:500"`
	ParentID    *int64    `json:"parentCategoryId,omitempty" gorm:"index"`
	Parent      *Category `json:"-" gorm:"foreignKey:ParentID;constraint:OnDelete:RESTRICT"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CategoryNode est un noeud de l'arbre renvoyé par /categories
type CategoryNode struct {
	Category
	Children []*CategoryNode `json:"children"`
}

type Brand struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"size:100;uniqueIndex;not null"`
	Description *string   `json:"description,omitempty" gorm:"size:500"`
	MarketShare *float64  `json:"marketShare,omitempty"`
	Country     *string   `json:"country,omitempty" gorm:"size:50"`
	Website     *string   `json:"website,omitempty" gorm:"size:200"`
	CreatedAt   time.Time `json:"createdAt"`
}
