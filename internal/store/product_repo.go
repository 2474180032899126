package store

import (
	"gorm.io/gorm"

	"kitchen-service/internal/model"
)

// ProductRepo reads and writes products together with their recipe lines
type ProductRepo struct {
	db *gorm.DB
}

func (r *ProductRepo) withRecipe(tenantID uint) *gorm.DB {
	return r.db.
		Preload("RecipeLines", func(db *gorm.DB) *gorm.DB {
			return db.Order("recipe_lines.id ASC")
		}).
		Preload("RecipeLines.Ingredient", "tenant_id = ?", tenantID)
}

// Create inserts the product and its RecipeLines in one statement batch.
// Callers wanting atomicity run it inside Scope.Execute.
func (r *ProductRepo) Create(product *model.Product) error {
	return r.db.Create(product).Error
}

// List returns the tenant's products with recipe lines and the referenced
// ingredients preloaded. A line whose ingredient was deleted has a nil
// Ingredient.
func (r *ProductRepo) List(tenantID uint) ([]model.Product, error) {
	var products []model.Product
	err := r.withRecipe(tenantID).
		Where("tenant_id = ?", tenantID).
		Order("id ASC").
		Find(&products).Error
	return products, err
}

// Get returns one product with its recipe or gorm.ErrRecordNotFound
func (r *ProductRepo) Get(tenantID, id uint) (*model.Product, error) {
	var product model.Product
	err := r.withRecipe(tenantID).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Find returns the bare product row or gorm.ErrRecordNotFound
func (r *ProductRepo) Find(tenantID, id uint) (*model.Product, error) {
	var product model.Product
	if err := r.db.Where("id = ? AND tenant_id = ?", id, tenantID).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// Lines returns the recipe of a product in insertion order
func (r *ProductRepo) Lines(tenantID, productID uint) ([]model.RecipeLine, error) {
	var lines []model.RecipeLine
	err := r.db.Where("tenant_id = ? AND product_id = ?", tenantID, productID).
		Order("id ASC").
		Find(&lines).Error
	return lines, err
}

// Count returns the number of live products of a tenant
func (r *ProductRepo) Count(tenantID uint) (int64, error) {
	var n int64
	err := r.db.Model(&model.Product{}).Where("tenant_id = ?", tenantID).Count(&n).Error
	return n, err
}

// UpdateFields overwrites the product columns. Nil pointers clear the
// optional columns.
func (r *ProductRepo) UpdateFields(tenantID, id uint, fields map[string]interface{}) (int64, error) {
	result := r.db.Model(&model.Product{}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Updates(fields)
	return result.RowsAffected, result.Error
}

// ReplaceLines deletes the current recipe of a product and inserts lines
func (r *ProductRepo) ReplaceLines(tenantID, productID uint, lines []model.RecipeLine) error {
	if err := r.deleteLines(tenantID, productID); err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	for i := range lines {
		lines[i].ID = 0
		lines[i].TenantID = tenantID
		lines[i].ProductID = productID
		lines[i].Ingredient = nil
	}
	return r.db.Create(&lines).Error
}

// Delete removes the recipe lines, then the product. It returns the number
// of product rows removed.
func (r *ProductRepo) Delete(tenantID, id uint) (int64, error) {
	if err := r.deleteLines(tenantID, id); err != nil {
		return 0, err
	}
	result := r.db.Where("id = ? AND tenant_id = ?", id, tenantID).Delete(&model.Product{})
	return result.RowsAffected, result.Error
}

func (r *ProductRepo) deleteLines(tenantID, productID uint) error {
	return r.db.Where("tenant_id = ? AND product_id = ?", tenantID, productID).
		Delete(&model.RecipeLine{}).Error
}
