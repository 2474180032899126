package model

import (
	"time"

	"gorm.io/gorm"
)

// Business types a tenant can register as
const (
	BusinessPizzeria   = "pizzeria"
	BusinessBurger     = "burger"
	BusinessRestaurant = "restaurant"
	BusinessOther      = "other"
)

// Tenant owns every ingredient and product record
type Tenant struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	Name         string         `json:"name" gorm:"type:varchar(100);uniqueIndex;not null"`
	Credential   string         `json:"-" gorm:"type:varchar(255);not null"` // bcrypt hash
	BusinessType string         `json:"business_type" gorm:"type:varchar(30);not null;default:'other'"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

// ValidBusinessType reports whether t is a known business type
func ValidBusinessType(t string) bool {
	switch t {
	case BusinessPizzeria, BusinessBurger, BusinessRestaurant, BusinessOther:
		return true
	}
	return false
}
