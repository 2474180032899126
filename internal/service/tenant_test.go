package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"kitchen-service/internal/model"
)

func TestTenantRegistry(t *testing.T) {
	ctx := context.Background()
	s := newServices(t, nil)
	registry := NewTenantRegistry(s.scope)
	registry.cost = bcrypt.MinCost

	tenant, err := registry.Register(ctx, "Bella Napoli", model.BusinessPizzeria, "s3cret-pass")
	require.NoError(t, err)
	assert.NotZero(t, tenant.ID)
	assert.NotEqual(t, "s3cret-pass", tenant.Credential)

	t.Run("authenticates", func(t *testing.T) {
		got, err := registry.Authenticate(ctx, "Bella Napoli", "s3cret-pass")
		require.NoError(t, err)
		assert.Equal(t, tenant.ID, got.ID)

		_, err = registry.Authenticate(ctx, "Bella Napoli", "wrong-pass")
		assert.ErrorIs(t, err, ErrBadCredential)

		_, err = registry.Authenticate(ctx, "Nobody", "s3cret-pass")
		assert.ErrorIs(t, err, ErrBadCredential)
	})

	t.Run("defaults business type", func(t *testing.T) {
		other, err := registry.Register(ctx, "Corner Deli", "", "another-pass")
		require.NoError(t, err)
		assert.Equal(t, model.BusinessOther, other.BusinessType)
	})

	t.Run("rejects", func(t *testing.T) {
		_, err := registry.Register(ctx, "Bella Napoli", model.BusinessPizzeria, "s3cret-pass")
		assert.ErrorIs(t, err, ErrValidation)

		_, err = registry.Register(ctx, "Bakery", "bakery", "s3cret-pass")
		assert.ErrorIs(t, err, ErrValidation)

		_, err = registry.Register(ctx, "Shorty", model.BusinessBurger, "short")
		assert.ErrorIs(t, err, ErrValidation)

		_, err = registry.Register(ctx, "  ", model.BusinessBurger, "s3cret-pass")
		assert.ErrorIs(t, err, ErrValidation)
	})

	_, err = registry.Get(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}
