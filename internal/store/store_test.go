package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"kitchen-service/internal/model"
	"kitchen-service/internal/testutil"
)

const tenantID uint = 1

func TestIngredientRepo_ApplyDelta(t *testing.T) {
	db := testutil.NewDB(t)
	repos := NewScope(db).Read(context.Background())

	flour := testutil.Ingredient(tenantID, "flour", "g", 500, 1000, 500)
	require.NoError(t, repos.Ingredients.Create(&flour))

	t.Run("applies a decrement that stays non-negative", func(t *testing.T) {
		applied, err := repos.Ingredients.ApplyDelta(tenantID, flour.ID, -200)
		require.NoError(t, err)
		assert.True(t, applied)
		assert.Equal(t, int64(300), testutil.Quantity(t, db, flour.ID))
	})

	t.Run("refuses a decrement below zero", func(t *testing.T) {
		applied, err := repos.Ingredients.ApplyDelta(tenantID, flour.ID, -301)
		require.NoError(t, err)
		assert.False(t, applied)
		assert.Equal(t, int64(300), testutil.Quantity(t, db, flour.ID))
	})

	t.Run("drains to exactly zero", func(t *testing.T) {
		applied, err := repos.Ingredients.ApplyDelta(tenantID, flour.ID, -300)
		require.NoError(t, err)
		assert.True(t, applied)
		assert.Equal(t, int64(0), testutil.Quantity(t, db, flour.ID))
	})

	t.Run("other tenants cannot touch the row", func(t *testing.T) {
		applied, err := repos.Ingredients.ApplyDelta(tenantID+1, flour.ID, 100)
		require.NoError(t, err)
		assert.False(t, applied)
	})
}

func TestIngredientRepo_ApplyDeltaAfterStaleRead(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	scope := NewScope(db)

	cheese := testutil.Ingredient(tenantID, "cheese", "g", 1000, 1000, 3000)
	require.NoError(t, scope.Read(ctx).Ingredients.Create(&cheese))

	stale, err := scope.Read(ctx).Ingredients.Get(tenantID, cheese.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1000), stale.Quantity)

	// another writer takes 600g after the read
	require.NoError(t, db.Model(&model.Ingredient{}).Where("id = ?", cheese.ID).
		Update("quantity", gorm.Expr("quantity - ?", 600)).Error)

	// a check against the stale value would pass; the guarded update must not
	require.GreaterOrEqual(t, stale.Quantity, int64(700))
	var applied bool
	err = scope.Execute(ctx, func(repos Repos) error {
		var err error
		applied, err = repos.Ingredients.ApplyDelta(tenantID, cheese.ID, -700)
		return err
	})
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, int64(400), testutil.Quantity(t, db, cheese.ID))
}

func TestIngredientRepo_ListAndLowStock(t *testing.T) {
	db := testutil.NewDB(t)
	repos := NewScope(db).Read(context.Background())

	for _, in := range []model.Ingredient{
		testutil.Ingredient(tenantID, "sauce", "ml", 10, 1000, 1200),
		testutil.Ingredient(tenantID, "cheese", "g", 11, 1000, 3000),
		testutil.Ingredient(tenantID, "basil", "g", 0, 100, 300),
		testutil.Ingredient(tenantID+1, "anchovy", "g", 0, 100, 300),
	} {
		in := in
		require.NoError(t, repos.Ingredients.Create(&in))
	}

	all, err := repos.Ingredients.List(tenantID)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"basil", "cheese", "sauce"}, []string{all[0].Name, all[1].Name, all[2].Name})

	low, err := repos.Ingredients.ListLowStock(tenantID)
	require.NoError(t, err)
	require.Len(t, low, 2)
	assert.Equal(t, "basil", low[0].Name)
	assert.Equal(t, "sauce", low[1].Name)

	n, err := repos.Ingredients.Count(tenantID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestIngredientRepo_LockForUpdate(t *testing.T) {
	db := testutil.NewDB(t)
	fx := testutil.SeedPizza(t, db, tenantID)

	err := NewScope(db).Execute(context.Background(), func(repos Repos) error {
		rows, err := repos.Ingredients.LockForUpdate(tenantID, []uint{fx.Sauce.ID, fx.Flour.ID, 999})
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, fx.Flour.ID, rows[0].ID)
		assert.Equal(t, fx.Sauce.ID, rows[1].ID)
		return nil
	})
	require.NoError(t, err)
}

func TestIngredientRepo_DeleteIsSoft(t *testing.T) {
	db := testutil.NewDB(t)
	repos := NewScope(db).Read(context.Background())
	fx := testutil.SeedPizza(t, db, tenantID)

	rows, err := repos.Ingredients.Delete(tenantID, fx.Cheese.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	_, err = repos.Ingredients.Get(tenantID, fx.Cheese.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	found, err := repos.Ingredients.ExistingIDs(tenantID, []uint{fx.Flour.ID, fx.Cheese.ID})
	require.NoError(t, err)
	assert.True(t, found[fx.Flour.ID])
	assert.False(t, found[fx.Cheese.ID])

	rows, err = repos.Ingredients.Delete(tenantID, fx.Cheese.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)

	// the row survives for history
	assert.Equal(t, int64(2000), testutil.Quantity(t, db, fx.Cheese.ID))
}

func TestProductRepo_RecipePreload(t *testing.T) {
	db := testutil.NewDB(t)
	repos := NewScope(db).Read(context.Background())
	fx := testutil.SeedPizza(t, db, tenantID)

	product, err := repos.Products.Get(tenantID, fx.Pizza.ID)
	require.NoError(t, err)
	require.Len(t, product.RecipeLines, 3)
	require.NotNil(t, product.RecipeLines[0].Ingredient)
	assert.Equal(t, "flour", product.RecipeLines[0].Ingredient.Name)

	_, err = repos.Ingredients.Delete(tenantID, fx.Sauce.ID)
	require.NoError(t, err)

	products, err := repos.Products.List(tenantID)
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Len(t, products[0].RecipeLines, 3)
	assert.Nil(t, products[0].RecipeLines[2].Ingredient)

	_, err = repos.Products.Get(tenantID+1, fx.Pizza.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestProductRepo_ReplaceAndDelete(t *testing.T) {
	db := testutil.NewDB(t)
	scope := NewScope(db)
	fx := testutil.SeedPizza(t, db, tenantID)

	err := scope.Execute(context.Background(), func(repos Repos) error {
		return repos.Products.ReplaceLines(tenantID, fx.Pizza.ID, []model.RecipeLine{
			{IngredientID: fx.Flour.ID, QuantityRequired: 250},
		})
	})
	require.NoError(t, err)

	lines, err := scope.Read(context.Background()).Products.Lines(tenantID, fx.Pizza.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, int64(250), lines[0].QuantityRequired)
	assert.Equal(t, tenantID, lines[0].TenantID)

	err = scope.Execute(context.Background(), func(repos Repos) error {
		rows, err := repos.Products.Delete(tenantID, fx.Pizza.ID)
		assert.Equal(t, int64(1), rows)
		return err
	})
	require.NoError(t, err)

	var remaining int64
	require.NoError(t, db.Model(&model.RecipeLine{}).Where("product_id = ?", fx.Pizza.ID).Count(&remaining).Error)
	assert.Zero(t, remaining)

	n, err := scope.Read(context.Background()).Products.Count(tenantID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestScope_ExecuteRollsBack(t *testing.T) {
	db := testutil.NewDB(t)
	scope := NewScope(db)
	fx := testutil.SeedPizza(t, db, tenantID)
	boom := errors.New("boom")

	err := scope.Execute(context.Background(), func(repos Repos) error {
		if _, err := repos.Ingredients.ApplyDelta(tenantID, fx.Flour.ID, -300); err != nil {
			return err
		}
		if err := repos.Movements.Record(&model.StockMovement{
			TenantID: tenantID, IngredientID: fx.Flour.ID, Kind: model.MovementSale, Delta: -300, QuantityAfter: 11700,
		}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(12000), testutil.Quantity(t, db, fx.Flour.ID))

	movements, err := scope.Read(context.Background()).Movements.ListByIngredient(tenantID, fx.Flour.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, movements)
}

func TestTenantRepo(t *testing.T) {
	db := testutil.NewDB(t)
	repos := NewScope(db).Read(context.Background())

	tenant := model.Tenant{Name: "Mamma Mia", Credential: "hash", BusinessType: model.BusinessPizzeria}
	require.NoError(t, repos.Tenants.Create(&tenant))

	got, err := repos.Tenants.GetByName("Mamma Mia")
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, got.ID)

	dup := model.Tenant{Name: "Mamma Mia", Credential: "hash", BusinessType: model.BusinessOther}
	assert.Error(t, repos.Tenants.Create(&dup))

	_, err = repos.Tenants.Get(tenant.ID + 1)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
