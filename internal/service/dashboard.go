package service

import (
	"context"

	"kitchen-service/internal/store"
)

// Summary is the overview shown on a tenant's dashboard
type Summary struct {
	Products      int64            `json:"products"`
	Ingredients   int64            `json:"ingredients"`
	LowStockCount int              `json:"low_stock_count"`
	LowStock      []IngredientView `json:"low_stock"`
}

// Dashboard aggregates counts across the catalog and the ledger
type Dashboard struct {
	scope *store.Scope
}

// NewDashboard creates a dashboard over scope
func NewDashboard(scope *store.Scope) *Dashboard {
	return &Dashboard{scope: scope}
}

// Summary counts products and ingredients and lists low stock
func (d *Dashboard) Summary(ctx context.Context, tenantID uint) (*Summary, error) {
	repos := d.scope.Read(ctx)

	products, err := repos.Products.Count(tenantID)
	if err != nil {
		return nil, classify("dashboard", "product", 0, err)
	}
	ingredients, err := repos.Ingredients.Count(tenantID)
	if err != nil {
		return nil, classify("dashboard", "ingredient", 0, err)
	}
	low, err := repos.Ingredients.ListLowStock(tenantID)
	if err != nil {
		return nil, classify("dashboard", "ingredient", 0, err)
	}

	views := newIngredientViews(low)
	return &Summary{
		Products:      products,
		Ingredients:   ingredients,
		LowStockCount: len(views),
		LowStock:      views,
	}, nil
}
