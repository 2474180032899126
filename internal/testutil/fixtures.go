package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"kitchen-service/internal/model"
)

// PizzaFixture holds the ingredients and product of the demo pizzeria
type PizzaFixture struct {
	Flour  model.Ingredient
	Cheese model.Ingredient
	Sauce  model.Ingredient
	Pizza  model.Product
}

// SeedPizza inserts flour (0.5c/g), cheese (3c/g), sauce (1.2c/ml) and a
// pizza using 300g, 200g and 100ml of them, priced at 4500 cents.
func SeedPizza(t testing.TB, db *gorm.DB, tenantID uint) PizzaFixture {
	t.Helper()

	f := PizzaFixture{
		Flour:  Ingredient(tenantID, "flour", "g", 12000, 5000, 2500),
		Cheese: Ingredient(tenantID, "cheese", "g", 2000, 1000, 3000),
		Sauce:  Ingredient(tenantID, "sauce", "ml", 1000, 1000, 1200),
	}
	require.NoError(t, db.Create(&f.Flour).Error)
	require.NoError(t, db.Create(&f.Cheese).Error)
	require.NoError(t, db.Create(&f.Sauce).Error)

	f.Pizza = model.Product{
		TenantID: tenantID,
		Name:     "Pizza",
		Price:    4500,
		RecipeLines: []model.RecipeLine{
			{TenantID: tenantID, IngredientID: f.Flour.ID, QuantityRequired: 300},
			{TenantID: tenantID, IngredientID: f.Cheese.ID, QuantityRequired: 200},
			{TenantID: tenantID, IngredientID: f.Sauce.ID, QuantityRequired: 100},
		},
	}
	require.NoError(t, db.Create(&f.Pizza).Error)
	return f
}

// Ingredient builds an unsaved ingredient with the default alert threshold
func Ingredient(tenantID uint, name, unit string, quantity, packageSize, packagePrice int64) model.Ingredient {
	return model.Ingredient{
		TenantID:      tenantID,
		Name:          name,
		Unit:          unit,
		Quantity:      quantity,
		PackageSize:   packageSize,
		PackagePrice:  packagePrice,
		MinStockLevel: model.DefaultMinStockLevel,
	}
}

// Quantity reads the stored quantity of an ingredient, bypassing soft deletes
func Quantity(t testing.TB, db *gorm.DB, id uint) int64 {
	t.Helper()
	var ingredient model.Ingredient
	require.NoError(t, db.Unscoped().First(&ingredient, id).Error)
	return ingredient.Quantity
}
