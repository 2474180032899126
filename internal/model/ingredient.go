package model

import (
	"time"

	"gorm.io/gorm"
)

// DefaultMinStockLevel is the alert threshold used when none is given
const DefaultMinStockLevel int64 = 10

// Ingredient is a raw material tracked in stock.
// Quantity, PackageSize and MinStockLevel are in base units (g, ml, un).
type Ingredient struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	TenantID      uint           `json:"tenant_id" gorm:"index;not null;comment:'Tenant this ingredient belongs to'"`
	Name          string         `json:"name" gorm:"type:varchar(255);index;not null"`
	Quantity      int64          `json:"quantity" gorm:"not null;check:quantity >= 0"`
	Unit          string         `json:"unit" gorm:"type:varchar(20);not null"`
	PackageSize   int64          `json:"package_size" gorm:"not null;check:package_size >= 1"`
	PackageLabel  string         `json:"package_label" gorm:"type:varchar(50)"`
	PackagePrice  int64          `json:"package_price" gorm:"not null;check:package_price >= 0"` // cents
	MinStockLevel int64          `json:"min_stock_level" gorm:"not null"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
}

// IsLowStock reports whether the ingredient is at or below its alert threshold
func (i Ingredient) IsLowStock() bool {
	return i.Quantity <= i.MinStockLevel
}
