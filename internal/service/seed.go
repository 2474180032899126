package service

import (
	"context"
)

func int64Ptr(v int64) *int64 { return &v }

// SeedDemo creates the demo pizzeria stock: flour, cheese and tomato sauce,
// and a "Pizza Mussarela" whose recipe uses all three.
func SeedDemo(ctx context.Context, ledger *Ledger, catalog *Catalog, tenantID uint) (*ProductWithRecipe, error) {
	specs := []IngredientSpec{
		{Name: "Farinha de Trigo", Unit: "g", Quantity: 12000, PackageSize: int64Ptr(5000), PackageLabel: "bag", PackagePrice: int64Ptr(2500)},
		{Name: "Queijo Mussarela", Unit: "g", Quantity: 2000, PackageSize: int64Ptr(1000), PackageLabel: "pack", PackagePrice: int64Ptr(3000)},
		{Name: "Molho de Tomate", Unit: "ml", Quantity: 1000, PackageSize: int64Ptr(500), PackageLabel: "bottle", PackagePrice: int64Ptr(600)},
	}
	required := []int64{300, 200, 100}

	lines := make([]RecipeLineSpec, 0, len(specs))
	for i, spec := range specs {
		view, err := ledger.CreateIngredient(ctx, tenantID, spec)
		if err != nil {
			return nil, err
		}
		lines = append(lines, RecipeLineSpec{IngredientID: view.ID, QuantityRequired: required[i]})
	}

	description := "Clássica pizza de mussarela"
	return catalog.CreateProduct(ctx, tenantID, ProductSpec{
		Name:        "Pizza Mussarela",
		Description: &description,
		Price:       4500,
		RecipeLines: lines,
	})
}
