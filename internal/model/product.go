package model

import (
	"time"

	"gorm.io/gorm"
)

// Product is a sellable item whose recipe consumes ingredients
type Product struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	TenantID    uint           `json:"tenant_id" gorm:"index;not null;comment:'Tenant this product belongs to'"`
	Name        string         `json:"name" gorm:"type:varchar(255);not null"`
	Description *string        `json:"description,omitempty" gorm:"type:text"`
	Price       int64          `json:"price" gorm:"not null;check:price >= 0"` // cents
	ImageURL    *string        `json:"image_url,omitempty" gorm:"type:text"`
	RecipeLines []RecipeLine   `json:"recipe_lines,omitempty" gorm:"foreignKey:ProductID"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// RecipeLine states that one unit of a product consumes QuantityRequired
// base units of an ingredient
type RecipeLine struct {
	ID               uint        `json:"id" gorm:"primaryKey"`
	TenantID         uint        `json:"tenant_id" gorm:"index;not null"`
	ProductID        uint        `json:"product_id" gorm:"index;not null"`
	IngredientID     uint        `json:"ingredient_id" gorm:"index;not null"`
	QuantityRequired int64       `json:"quantity_required" gorm:"not null;check:quantity_required > 0"`
	Ingredient       *Ingredient `json:"ingredient,omitempty" gorm:"foreignKey:IngredientID"`
}

// TableName keeps the association table name stable
func (RecipeLine) TableName() string { return "recipe_lines" }
