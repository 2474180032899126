package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"kitchen-service/internal/model"
	"kitchen-service/internal/store"
	"kitchen-service/pkg/logger"
)

// MinCredentialLength is the shortest accepted tenant credential
const MinCredentialLength = 8

// ErrBadCredential is returned when a tenant credential does not match
var ErrBadCredential = errors.New("invalid tenant credential")

// TenantRegistry registers tenants and checks their credentials
type TenantRegistry struct {
	scope *store.Scope
	cost  int
}

// NewTenantRegistry creates a registry hashing with bcrypt.DefaultCost
func NewTenantRegistry(scope *store.Scope) *TenantRegistry {
	return &TenantRegistry{scope: scope, cost: bcrypt.DefaultCost}
}

// Register stores a new tenant with a hashed credential. An empty
// businessType registers the tenant as "other".
func (r *TenantRegistry) Register(ctx context.Context, name, businessType, credential string) (*model.Tenant, error) {
	log := logger.FromContext(ctx)

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "is required")
	}
	if businessType == "" {
		businessType = model.BusinessOther
	}
	if !model.ValidBusinessType(businessType) {
		return nil, invalid("business_type", "unknown business type %q", businessType)
	}
	if len(credential) < MinCredentialLength {
		return nil, invalid("credential", "must be at least %d characters", MinCredentialLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(credential), r.cost)
	if err != nil {
		return nil, &InternalError{Op: "hash credential", Err: err}
	}

	tenant := &model.Tenant{Name: name, Credential: string(hash), BusinessType: businessType}
	err = r.scope.Execute(ctx, func(repos store.Repos) error {
		_, err := repos.Tenants.GetByName(name)
		switch {
		case err == nil:
			return invalid("name", "tenant %q already exists", name)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		return repos.Tenants.Create(tenant)
	})
	if err != nil {
		log.Error("Failed to register tenant", zap.String("name", name), zap.Error(err))
		return nil, classify("register tenant", "tenant", 0, err)
	}

	log.Info("Tenant registered",
		zap.Uint("tenant_id", tenant.ID),
		zap.String("name", tenant.Name),
		zap.String("business_type", tenant.BusinessType))
	return tenant, nil
}

// Authenticate returns the tenant called name when credential matches
func (r *TenantRegistry) Authenticate(ctx context.Context, name, credential string) (*model.Tenant, error) {
	tenant, err := r.scope.Read(ctx).Tenants.GetByName(strings.TrimSpace(name))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBadCredential
		}
		return nil, classify("authenticate tenant", "tenant", 0, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(tenant.Credential), []byte(credential)); err != nil {
		logger.FromContext(ctx).Warn("Tenant credential mismatch", zap.Uint("tenant_id", tenant.ID))
		return nil, ErrBadCredential
	}
	return tenant, nil
}

// Get returns a tenant by id
func (r *TenantRegistry) Get(ctx context.Context, id uint) (*model.Tenant, error) {
	tenant, err := r.scope.Read(ctx).Tenants.Get(id)
	if err != nil {
		return nil, classify("get tenant", "tenant", id, err)
	}
	return tenant, nil
}
