package store

import (
	"gorm.io/gorm"

	"kitchen-service/internal/model"
)

// TenantRepo stores tenants
type TenantRepo struct {
	db *gorm.DB
}

// Create inserts tenant
func (r *TenantRepo) Create(tenant *model.Tenant) error {
	return r.db.Create(tenant).Error
}

// Get returns a tenant by id or gorm.ErrRecordNotFound
func (r *TenantRepo) Get(id uint) (*model.Tenant, error) {
	var tenant model.Tenant
	if err := r.db.First(&tenant, id).Error; err != nil {
		return nil, err
	}
	return &tenant, nil
}

// GetByName returns a tenant by its unique name or gorm.ErrRecordNotFound
func (r *TenantRepo) GetByName(name string) (*model.Tenant, error) {
	var tenant model.Tenant
	if err := r.db.Where("name = ?", name).First(&tenant).Error; err != nil {
		return nil, err
	}
	return &tenant, nil
}
