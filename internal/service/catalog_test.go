package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitchen-service/internal/model"
	"kitchen-service/internal/testutil"
	"kitchen-service/pkg/cache"
)

func pizzaSpec(fx testutil.PizzaFixture) ProductSpec {
	return ProductSpec{
		Name:  "Pizza",
		Price: 4500,
		RecipeLines: []RecipeLineSpec{
			{IngredientID: fx.Flour.ID, QuantityRequired: 300},
			{IngredientID: fx.Cheese.ID, QuantityRequired: 200},
			{IngredientID: fx.Sauce.ID, QuantityRequired: 100},
		},
	}
}

func TestComputeProductionCostAndMargin(t *testing.T) {
	flour := testutil.Ingredient(tenantID, "flour", "g", 0, 5000, 2500)
	cheese := testutil.Ingredient(tenantID, "cheese", "g", 0, 1000, 3000)
	sauce := testutil.Ingredient(tenantID, "sauce", "ml", 0, 1000, 1200)
	unpriced := testutil.Ingredient(tenantID, "oregano", "g", 0, 50, 0)

	lines := []model.RecipeLine{
		{QuantityRequired: 300, Ingredient: &flour},
		{QuantityRequired: 200, Ingredient: &cheese},
		{QuantityRequired: 100, Ingredient: &sauce},
		{QuantityRequired: 5, Ingredient: &unpriced},
		{QuantityRequired: 50},
	}

	cost := ComputeProductionCost(lines)
	assert.True(t, decimal.NewFromInt(870).Equal(cost), "cost %s", cost)
	assert.True(t, cost.Equal(ComputeProductionCost(lines)))

	profit, margin := ComputeMargin(4500, cost)
	assert.True(t, decimal.NewFromInt(3630).Equal(profit))
	assert.Equal(t, "80.7", margin.StringFixed(1))

	profit, margin = ComputeMargin(0, cost)
	assert.True(t, decimal.NewFromInt(-870).Equal(profit))
	assert.True(t, margin.IsZero())
}

func TestCatalog_CreateAndList(t *testing.T) {
	ctx := context.Background()
	s := newServices(t, nil)
	fx := testutil.SeedPizza(t, s.db, tenantID)

	created, err := s.catalog.CreateProduct(ctx, tenantID, pizzaSpec(fx))
	require.NoError(t, err)
	assert.Equal(t, "Pizza", created.Name)
	require.Len(t, created.Recipe, 3)
	assert.Equal(t, "flour", created.Recipe[0].Name)
	assert.Equal(t, "ml", created.Recipe[2].Unit)
	assert.True(t, decimal.NewFromInt(870).Equal(created.ProductionCost))
	assert.True(t, decimal.NewFromInt(3630).Equal(created.Profit))
	assert.Equal(t, "80.67", created.MarginPercent.StringFixed(2))
	assert.Nil(t, created.RecipeLines)

	listed, err := s.catalog.ListProducts(ctx, tenantID)
	require.NoError(t, err)
	require.Len(t, listed, 2)

	got := listed[1]
	assert.Equal(t, created.ID, got.ID)
	require.Len(t, got.Recipe, len(created.Recipe))
	for i := range created.Recipe {
		assert.Equal(t, created.Recipe[i].IngredientID, got.Recipe[i].IngredientID)
		assert.Equal(t, created.Recipe[i].QuantityRequired, got.Recipe[i].QuantityRequired)
		assert.True(t, created.Recipe[i].Cost.Equal(got.Recipe[i].Cost))
	}
	assert.True(t, created.ProductionCost.Equal(got.ProductionCost))
}

func TestCatalog_CreateRejects(t *testing.T) {
	ctx := context.Background()
	s := newServices(t, nil)
	fx := testutil.SeedPizza(t, s.db, tenantID)
	other := testutil.SeedPizza(t, s.db, tenantID+1)

	tests := []struct {
		name string
		spec ProductSpec
	}{
		{"missing name", ProductSpec{Price: 100}},
		{"negative price", ProductSpec{Name: "x", Price: -1}},
		{"zero quantity", ProductSpec{Name: "x", RecipeLines: []RecipeLineSpec{{IngredientID: fx.Flour.ID}}}},
		{"missing ingredient id", ProductSpec{Name: "x", RecipeLines: []RecipeLineSpec{{QuantityRequired: 1}}}},
		{"duplicate ingredient", ProductSpec{Name: "x", RecipeLines: []RecipeLineSpec{
			{IngredientID: fx.Flour.ID, QuantityRequired: 1},
			{IngredientID: fx.Flour.ID, QuantityRequired: 2},
		}}},
		{"ingredient of another tenant", ProductSpec{Name: "x", RecipeLines: []RecipeLineSpec{
			{IngredientID: fx.Flour.ID, QuantityRequired: 1},
			{IngredientID: other.Cheese.ID, QuantityRequired: 1},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.catalog.CreateProduct(ctx, tenantID, tt.spec)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	n, err := s.scope.Read(ctx).Products.Count(tenantID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "only the seeded product exists")

	var lines int64
	require.NoError(t, s.db.Model(&model.RecipeLine{}).Where("tenant_id = ?", tenantID).Count(&lines).Error)
	assert.Equal(t, int64(3), lines)
}

func TestCatalog_UpdateProduct(t *testing.T) {
	ctx := context.Background()
	s := newServices(t, nil)
	fx := testutil.SeedPizza(t, s.db, tenantID)

	spec := ProductSpec{
		Name:        "Pizza Branca",
		Description: ptr("no sauce"),
		Price:       4000,
		RecipeLines: []RecipeLineSpec{
			{IngredientID: fx.Flour.ID, QuantityRequired: 300},
			{IngredientID: fx.Cheese.ID, QuantityRequired: 250},
		},
	}
	updated, err := s.catalog.UpdateProduct(ctx, tenantID, fx.Pizza.ID, spec)
	require.NoError(t, err)
	assert.Equal(t, "Pizza Branca", updated.Name)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "no sauce", *updated.Description)
	require.Len(t, updated.Recipe, 2)
	assert.True(t, decimal.NewFromInt(900).Equal(updated.ProductionCost))

	t.Run("invalid recipe keeps the old one", func(t *testing.T) {
		bad := spec
		bad.RecipeLines = []RecipeLineSpec{{IngredientID: 999, QuantityRequired: 1}}
		_, err := s.catalog.UpdateProduct(ctx, tenantID, fx.Pizza.ID, bad)
		assert.ErrorIs(t, err, ErrValidation)

		got, err := s.catalog.GetProduct(ctx, tenantID, fx.Pizza.ID)
		require.NoError(t, err)
		assert.Len(t, got.Recipe, 2)
	})

	t.Run("unknown product", func(t *testing.T) {
		_, err := s.catalog.UpdateProduct(ctx, tenantID, 999, spec)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestCatalog_DeleteProduct(t *testing.T) {
	ctx := context.Background()
	s := newServices(t, nil)
	fx := testutil.SeedPizza(t, s.db, tenantID)

	require.NoError(t, s.catalog.DeleteProduct(ctx, tenantID, fx.Pizza.ID))

	products, err := s.catalog.ListProducts(ctx, tenantID)
	require.NoError(t, err)
	assert.Empty(t, products)

	var lines int64
	require.NoError(t, s.db.Model(&model.RecipeLine{}).Where("product_id = ?", fx.Pizza.ID).Count(&lines).Error)
	assert.Zero(t, lines)

	ingredients, err := s.ledger.ListIngredients(ctx, tenantID)
	require.NoError(t, err)
	assert.Len(t, ingredients, 3)

	assert.ErrorIs(t, s.catalog.DeleteProduct(ctx, tenantID, fx.Pizza.ID), ErrNotFound)
	_, err = s.catalog.GetProduct(ctx, tenantID, fx.Pizza.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCatalog_DeletedIngredientIsMissing(t *testing.T) {
	ctx := context.Background()
	s := newServices(t, nil)
	fx := testutil.SeedPizza(t, s.db, tenantID)

	require.NoError(t, s.ledger.DeleteIngredient(ctx, tenantID, fx.Cheese.ID))

	got, err := s.catalog.GetProduct(ctx, tenantID, fx.Pizza.ID)
	require.NoError(t, err)
	require.Len(t, got.Recipe, 3)
	assert.False(t, got.Recipe[0].Missing)
	assert.True(t, got.Recipe[1].Missing)
	assert.Equal(t, fx.Cheese.ID, got.Recipe[1].IngredientID)
	assert.True(t, decimal.NewFromInt(270).Equal(got.ProductionCost))
}

func TestCatalog_ListingCache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	rc := cache.NewRedisCache(client, time.Minute)
	s := newServices(t, rc)
	fx := testutil.SeedPizza(t, s.db, tenantID)
	genKey := cache.ProductGenerationKey(tenantID)

	first, err := s.catalog.ListProducts(ctx, tenantID)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.True(t, mr.Exists(cache.ProductListKey(tenantID, 0)))

	// served from the cache even though the row changed underneath
	require.NoError(t, s.db.Model(&model.Product{}).Where("id = ?", fx.Pizza.ID).Update("name", "Renamed").Error)
	cached, err := s.catalog.ListProducts(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, "Pizza", cached[0].Name)
	assert.True(t, decimal.NewFromInt(870).Equal(cached[0].ProductionCost))

	t.Run("product mutation invalidates", func(t *testing.T) {
		_, err := s.catalog.CreateProduct(ctx, tenantID, ProductSpec{Name: "Soda", Price: 500})
		require.NoError(t, err)
		gen, err := mr.Get(genKey)
		require.NoError(t, err)
		assert.Equal(t, "1", gen)

		fresh, err := s.catalog.ListProducts(ctx, tenantID)
		require.NoError(t, err)
		require.Len(t, fresh, 2)
		assert.Equal(t, "Renamed", fresh[0].Name)
		assert.True(t, mr.Exists(cache.ProductListKey(tenantID, 1)))
	})

	t.Run("ingredient edit invalidates", func(t *testing.T) {
		_, err := s.ledger.UpdateIngredientFields(ctx, tenantID, fx.Flour.ID, IngredientPatch{PackagePrice: ptr(int64(5000))})
		require.NoError(t, err)
		gen, err := mr.Get(genKey)
		require.NoError(t, err)
		assert.Equal(t, "2", gen)
		assert.False(t, mr.Exists(cache.ProductListKey(tenantID, 2)))
	})

	t.Run("listing written after an edit is not served", func(t *testing.T) {
		before, err := s.catalog.ListProducts(ctx, tenantID)
		require.NoError(t, err)

		// a slow listing read generation 2, then an edit landed before it wrote back
		_, err = s.catalog.UpdateProduct(ctx, tenantID, fx.Pizza.ID, pizzaSpec(fx))
		require.NoError(t, err)
		require.NoError(t, rc.Set(ctx, cache.ProductListKey(tenantID, 2), before))

		after, err := s.catalog.ListProducts(ctx, tenantID)
		require.NoError(t, err)
		require.Len(t, after, 2)
		assert.Equal(t, "Pizza", after[0].Name)
	})

	t.Run("cache outage does not fail listing", func(t *testing.T) {
		mr.Close()
		products, err := s.catalog.ListProducts(ctx, tenantID)
		require.NoError(t, err)
		assert.Len(t, products, 2)
	})
}
