package model

import "time"

// Stock movement kinds
const (
	MovementRestock    = "restock"
	MovementAdjustment = "adjustment"
	MovementSale       = "sale"
)

// StockMovement records one committed change to an ingredient's quantity.
// Delta is positive for incoming stock and negative for consumption.
type StockMovement struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	TenantID      uint      `json:"tenant_id" gorm:"index;not null"`
	IngredientID  uint      `json:"ingredient_id" gorm:"index;not null"`
	Kind          string    `json:"kind" gorm:"type:varchar(20);not null"`
	Delta         int64     `json:"delta" gorm:"not null"`
	QuantityAfter int64     `json:"quantity_after" gorm:"not null"`
	Reference     string    `json:"reference,omitempty" gorm:"type:varchar(64);index"` // sale id for sales
	CreatedAt     time.Time `json:"created_at"`
}

// AllModels lists every model managed by AutoMigrate
func AllModels() []interface{} {
	return []interface{}{
		&Tenant{},
		&Ingredient{},
		&Product{},
		&RecipeLine{},
		&StockMovement{},
	}
}
