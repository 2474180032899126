package store

import (
	"gorm.io/gorm"

	"kitchen-service/internal/model"
)

// MovementRepo appends to and reads the stock movement ledger
type MovementRepo struct {
	db *gorm.DB
}

// Record appends one movement
func (r *MovementRepo) Record(movement *model.StockMovement) error {
	return r.db.Create(movement).Error
}

// ListByIngredient returns movements of one ingredient, newest first
func (r *MovementRepo) ListByIngredient(tenantID, ingredientID uint, limit int) ([]model.StockMovement, error) {
	var movements []model.StockMovement
	q := r.db.Where("tenant_id = ? AND ingredient_id = ?", tenantID, ingredientID).
		Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&movements).Error
	return movements, err
}

// ListByReference returns the movements written under one reference, e.g. a sale id
func (r *MovementRepo) ListByReference(tenantID uint, reference string) ([]model.StockMovement, error) {
	var movements []model.StockMovement
	err := r.db.Where("tenant_id = ? AND reference = ?", tenantID, reference).
		Order("id ASC").
		Find(&movements).Error
	return movements, err
}
