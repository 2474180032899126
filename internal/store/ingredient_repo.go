package store

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"kitchen-service/internal/model"
)

// IngredientRepo reads and writes tenant-scoped ingredient rows
type IngredientRepo struct {
	db *gorm.DB
}

// Create inserts ingredient
func (r *IngredientRepo) Create(ingredient *model.Ingredient) error {
	return r.db.Create(ingredient).Error
}

// List returns the tenant's ingredients ordered by name
func (r *IngredientRepo) List(tenantID uint) ([]model.Ingredient, error) {
	var ingredients []model.Ingredient
	err := r.db.Where("tenant_id = ?", tenantID).
		Order("name ASC").Order("id ASC").
		Find(&ingredients).Error
	return ingredients, err
}

// ListLowStock returns ingredients at or below their alert threshold
func (r *IngredientRepo) ListLowStock(tenantID uint) ([]model.Ingredient, error) {
	var ingredients []model.Ingredient
	err := r.db.Where("tenant_id = ? AND quantity <= min_stock_level", tenantID).
		Order("name ASC").Order("id ASC").
		Find(&ingredients).Error
	return ingredients, err
}

// Count returns the number of live ingredients of a tenant
func (r *IngredientRepo) Count(tenantID uint) (int64, error) {
	var n int64
	err := r.db.Model(&model.Ingredient{}).Where("tenant_id = ?", tenantID).Count(&n).Error
	return n, err
}

// Get returns one ingredient or gorm.ErrRecordNotFound
func (r *IngredientRepo) Get(tenantID, id uint) (*model.Ingredient, error) {
	var ingredient model.Ingredient
	if err := r.db.Where("id = ? AND tenant_id = ?", id, tenantID).First(&ingredient).Error; err != nil {
		return nil, err
	}
	return &ingredient, nil
}

// LockForUpdate loads the given ingredients in ascending id order and, on
// PostgreSQL, holds row locks on them until the transaction ends. Missing
// ids are simply absent from the result.
func (r *IngredientRepo) LockForUpdate(tenantID uint, ids []uint) ([]model.Ingredient, error) {
	q := r.db.Where("tenant_id = ? AND id IN ?", tenantID, ids).Order("id ASC")
	if supportsRowLocks(r.db) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var ingredients []model.Ingredient
	err := q.Find(&ingredients).Error
	return ingredients, err
}

// ExistingIDs returns which of ids belong to live ingredients of the tenant
func (r *IngredientRepo) ExistingIDs(tenantID uint, ids []uint) (map[uint]bool, error) {
	found := make(map[uint]bool, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	var existing []uint
	err := r.db.Model(&model.Ingredient{}).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Pluck("id", &existing).Error
	if err != nil {
		return nil, err
	}
	for _, id := range existing {
		found[id] = true
	}
	return found, nil
}

// UpdateFields applies a partial update of non-stock columns. It returns
// the number of rows matched.
func (r *IngredientRepo) UpdateFields(tenantID, id uint, fields map[string]interface{}) (int64, error) {
	result := r.db.Model(&model.Ingredient{}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Updates(fields)
	return result.RowsAffected, result.Error
}

// ApplyDelta adds delta to the stored quantity as a relative update. The
// row only changes when the result stays non-negative; applied is false
// otherwise (or when the row does not exist).
func (r *IngredientRepo) ApplyDelta(tenantID, id uint, delta int64) (applied bool, err error) {
	result := r.db.Model(&model.Ingredient{}).
		Where("id = ? AND tenant_id = ? AND quantity + ? >= 0", id, tenantID, delta).
		Update("quantity", gorm.Expr("quantity + ?", delta))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Delete soft-deletes an ingredient and returns the number of rows removed
func (r *IngredientRepo) Delete(tenantID, id uint) (int64, error) {
	result := r.db.Where("id = ? AND tenant_id = ?", id, tenantID).Delete(&model.Ingredient{})
	return result.RowsAffected, result.Error
}
