package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"kitchen-service/internal/model"
	"kitchen-service/internal/packaging"
	"kitchen-service/internal/store"
	"kitchen-service/pkg/cache"
	"kitchen-service/pkg/logger"
	"kitchen-service/prometheus"
)

// IngredientSpec is the input of CreateIngredient. Optional fields are
// pointers so that "omitted" and "zero" can be told apart.
type IngredientSpec struct {
	Name               string           `json:"name"`
	Unit               string           `json:"unit"`
	Quantity           int64            `json:"quantity"`
	PackageSize        *int64           `json:"package_size,omitempty"`
	PackageLabel       string           `json:"package_label"`
	PackagePrice       *int64           `json:"package_price,omitempty"`
	PackagePriceAmount *decimal.Decimal `json:"package_price_amount,omitempty"`
	MinStockLevel      *int64           `json:"min_stock_level,omitempty"`
}

// IngredientPatch carries the non-stock fields of an ingredient edit
type IngredientPatch struct {
	Name               *string          `json:"name,omitempty"`
	Unit               *string          `json:"unit,omitempty"`
	PackageSize        *int64           `json:"package_size,omitempty"`
	PackageLabel       *string          `json:"package_label,omitempty"`
	PackagePrice       *int64           `json:"package_price,omitempty"`
	PackagePriceAmount *decimal.Decimal `json:"package_price_amount,omitempty"`
	MinStockLevel      *int64           `json:"min_stock_level,omitempty"`
}

// RestockRequest adds stock either as whole packages or as base units
type RestockRequest struct {
	Packages *int64 `json:"packages,omitempty"`
	Quantity *int64 `json:"quantity,omitempty"`
}

// IngredientView is an ingredient together with its derived figures
type IngredientView struct {
	model.Ingredient
	LowStock        bool                    `json:"low_stock"`
	CostPerUnit     *decimal.Decimal        `json:"cost_per_unit"`
	DisplayQuantity string                  `json:"display_quantity"`
	PackageStatus   packaging.PackageStatus `json:"package_status"`
}

// NewIngredientView derives the display fields of ingredient
func NewIngredientView(ingredient model.Ingredient) IngredientView {
	view := IngredientView{
		Ingredient:      ingredient,
		LowStock:        ingredient.IsLowStock(),
		DisplayQuantity: packaging.FormatQuantity(ingredient.Quantity, ingredient.Unit),
		PackageStatus: packaging.Describe(ingredient.Quantity, ingredient.PackageSize,
			ingredient.PackageLabel, ingredient.Unit),
	}
	if cost, ok := packaging.CostPerBaseUnit(ingredient.PackagePrice, ingredient.PackageSize); ok {
		view.CostPerUnit = &cost
	}
	return view
}

func newIngredientViews(ingredients []model.Ingredient) []IngredientView {
	views := make([]IngredientView, 0, len(ingredients))
	for _, in := range ingredients {
		views = append(views, NewIngredientView(in))
	}
	return views
}

// Ledger owns ingredient records and every change to their stock
type Ledger struct {
	scope           *store.Scope
	cache           cache.Cache
	defaultMinStock int64
}

// NewLedger creates a ledger. A nil cache disables product cache invalidation.
func NewLedger(scope *store.Scope, c cache.Cache, defaultMinStock int64) *Ledger {
	if c == nil {
		c = cache.NopCache{}
	}
	if defaultMinStock < 0 {
		defaultMinStock = model.DefaultMinStockLevel
	}
	return &Ledger{scope: scope, cache: c, defaultMinStock: defaultMinStock}
}

// CreateIngredient validates spec and stores a new ingredient
func (l *Ledger) CreateIngredient(ctx context.Context, tenantID uint, spec IngredientSpec) (*IngredientView, error) {
	log := logger.FromContext(ctx)
	defer prometheus.TrackDBOperation("create_ingredient")(time.Now())

	ingredient, err := l.buildIngredient(tenantID, spec)
	if err != nil {
		log.Warn("Rejected ingredient", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return nil, err
	}

	if err := l.scope.Read(ctx).Ingredients.Create(ingredient); err != nil {
		log.Error("Failed to create ingredient",
			zap.Uint("tenant_id", tenantID),
			zap.String("name", ingredient.Name),
			zap.Error(err))
		return nil, classify("create ingredient", "ingredient", 0, err)
	}

	prometheus.RecordIngredientOperation("create")
	prometheus.UpdateIngredientStock(tenantID, ingredient.ID, ingredient.Name, ingredient.Quantity)
	log.Info("Ingredient created",
		zap.Uint("tenant_id", tenantID),
		zap.Uint("ingredient_id", ingredient.ID),
		zap.String("name", ingredient.Name))

	view := NewIngredientView(*ingredient)
	return &view, nil
}

func (l *Ledger) buildIngredient(tenantID uint, spec IngredientSpec) (*model.Ingredient, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return nil, invalid("name", "is required")
	}
	unit := strings.TrimSpace(spec.Unit)
	if unit == "" {
		return nil, invalid("unit", "is required")
	}
	if spec.Quantity < 0 {
		return nil, invalid("quantity", "must not be negative")
	}

	packageSize := int64(1)
	if spec.PackageSize != nil {
		if *spec.PackageSize < 1 {
			return nil, invalid("package_size", "must be at least 1")
		}
		packageSize = *spec.PackageSize
	}

	price, err := packagePrice(spec.PackagePrice, spec.PackagePriceAmount)
	if err != nil {
		return nil, err
	}

	minStock := l.defaultMinStock
	if spec.MinStockLevel != nil {
		if *spec.MinStockLevel < 0 {
			return nil, invalid("min_stock_level", "must not be negative")
		}
		minStock = *spec.MinStockLevel
	}

	return &model.Ingredient{
		TenantID:      tenantID,
		Name:          name,
		Quantity:      spec.Quantity,
		Unit:          unit,
		PackageSize:   packageSize,
		PackageLabel:  strings.TrimSpace(spec.PackageLabel),
		PackagePrice:  price,
		MinStockLevel: minStock,
	}, nil
}

// packagePrice resolves the price in cents from either the cents field or
// the currency amount. Giving both is ambiguous.
func packagePrice(cents *int64, amount *decimal.Decimal) (int64, error) {
	switch {
	case cents != nil && amount != nil:
		return 0, invalid("package_price", "give either package_price or package_price_amount, not both")
	case amount != nil:
		if amount.IsNegative() {
			return 0, invalid("package_price_amount", "must not be negative")
		}
		if amount.GreaterThan(decimal.NewFromInt(math.MaxInt64 / 100)) {
			return 0, invalid("package_price_amount", "is too large")
		}
		return packaging.PriceToCents(*amount), nil
	case cents != nil:
		if *cents < 0 {
			return 0, invalid("package_price", "must not be negative")
		}
		return *cents, nil
	}
	return 0, nil
}

// ListIngredients returns the tenant's ingredients ordered by name
func (l *Ledger) ListIngredients(ctx context.Context, tenantID uint) ([]IngredientView, error) {
	defer prometheus.TrackDBOperation("list_ingredients")(time.Now())

	ingredients, err := l.scope.Read(ctx).Ingredients.List(tenantID)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to list ingredients", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return nil, classify("list ingredients", "ingredient", 0, err)
	}
	return newIngredientViews(ingredients), nil
}

// ListLowStock returns the ingredients at or below their alert threshold
func (l *Ledger) ListLowStock(ctx context.Context, tenantID uint) ([]IngredientView, error) {
	ingredients, err := l.scope.Read(ctx).Ingredients.ListLowStock(tenantID)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to list low stock", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return nil, classify("list low stock", "ingredient", 0, err)
	}
	return newIngredientViews(ingredients), nil
}

// GetIngredient returns one ingredient
func (l *Ledger) GetIngredient(ctx context.Context, tenantID, id uint) (*IngredientView, error) {
	ingredient, err := l.scope.Read(ctx).Ingredients.Get(tenantID, id)
	if err != nil {
		return nil, classify("get ingredient", "ingredient", id, err)
	}
	view := NewIngredientView(*ingredient)
	return &view, nil
}

// UpdateIngredientFields edits name, unit, packaging, price and threshold.
// Stock is only changed through AdjustStock.
func (l *Ledger) UpdateIngredientFields(ctx context.Context, tenantID, id uint, patch IngredientPatch) (*IngredientView, error) {
	log := logger.FromContext(ctx)
	defer prometheus.TrackDBOperation("update_ingredient")(time.Now())

	fields, err := patchFields(patch)
	if err != nil {
		return nil, err
	}

	var updated *model.Ingredient
	err = l.scope.Execute(ctx, func(repos store.Repos) error {
		rows, err := repos.Ingredients.UpdateFields(tenantID, id, fields)
		if err != nil {
			return err
		}
		if rows == 0 {
			return &NotFoundError{Entity: "ingredient", ID: id}
		}
		updated, err = repos.Ingredients.Get(tenantID, id)
		return err
	})
	if err != nil {
		log.Error("Failed to update ingredient",
			zap.Uint("tenant_id", tenantID),
			zap.Uint("ingredient_id", id),
			zap.Error(err))
		return nil, classify("update ingredient", "ingredient", id, err)
	}

	l.invalidateProducts(ctx, tenantID)
	prometheus.RecordIngredientOperation("update")
	log.Info("Ingredient updated", zap.Uint("tenant_id", tenantID), zap.Uint("ingredient_id", id))

	view := NewIngredientView(*updated)
	return &view, nil
}

func patchFields(patch IngredientPatch) (map[string]interface{}, error) {
	fields := map[string]interface{}{}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, invalid("name", "must not be empty")
		}
		fields["name"] = name
	}
	if patch.Unit != nil {
		unit := strings.TrimSpace(*patch.Unit)
		if unit == "" {
			return nil, invalid("unit", "must not be empty")
		}
		fields["unit"] = unit
	}
	if patch.PackageSize != nil {
		if *patch.PackageSize < 1 {
			return nil, invalid("package_size", "must be at least 1")
		}
		fields["package_size"] = *patch.PackageSize
	}
	if patch.PackageLabel != nil {
		fields["package_label"] = strings.TrimSpace(*patch.PackageLabel)
	}
	if patch.PackagePrice != nil || patch.PackagePriceAmount != nil {
		price, err := packagePrice(patch.PackagePrice, patch.PackagePriceAmount)
		if err != nil {
			return nil, err
		}
		fields["package_price"] = price
	}
	if patch.MinStockLevel != nil {
		if *patch.MinStockLevel < 0 {
			return nil, invalid("min_stock_level", "must not be negative")
		}
		fields["min_stock_level"] = *patch.MinStockLevel
	}

	if len(fields) == 0 {
		return nil, invalid("", "no fields to update")
	}
	return fields, nil
}

// DeleteIngredient soft-deletes an ingredient. Recipe lines that reference
// it stay in place and are reported as missing.
func (l *Ledger) DeleteIngredient(ctx context.Context, tenantID, id uint) error {
	log := logger.FromContext(ctx)
	defer prometheus.TrackDBOperation("delete_ingredient")(time.Now())

	var deleted *model.Ingredient
	err := l.scope.Execute(ctx, func(repos store.Repos) error {
		var err error
		deleted, err = repos.Ingredients.Get(tenantID, id)
		if err != nil {
			return err
		}
		_, err = repos.Ingredients.Delete(tenantID, id)
		return err
	})
	if err != nil {
		log.Error("Failed to delete ingredient",
			zap.Uint("tenant_id", tenantID),
			zap.Uint("ingredient_id", id),
			zap.Error(err))
		return classify("delete ingredient", "ingredient", id, err)
	}

	l.invalidateProducts(ctx, tenantID)
	prometheus.RecordIngredientOperation("delete")
	prometheus.RemoveIngredientStock(tenantID, id, deleted.Name)
	log.Info("Ingredient deleted", zap.Uint("tenant_id", tenantID), zap.Uint("ingredient_id", id))
	return nil
}

// AdjustStock adds delta base units to an ingredient. A negative delta that
// would take the quantity below zero fails with InsufficientStockError and
// changes nothing.
func (l *Ledger) AdjustStock(ctx context.Context, tenantID, id uint, delta int64) (*model.Ingredient, error) {
	return l.adjust(ctx, tenantID, id, delta, model.MovementAdjustment)
}

// Restock adds either whole packages or base units to an ingredient
func (l *Ledger) Restock(ctx context.Context, tenantID, id uint, req RestockRequest) (*IngredientView, error) {
	if (req.Packages == nil) == (req.Quantity == nil) {
		return nil, invalid("", "give exactly one of packages or quantity")
	}

	var delta int64
	if req.Quantity != nil {
		if *req.Quantity <= 0 {
			return nil, invalid("quantity", "must be greater than 0")
		}
		delta = *req.Quantity
	} else {
		if *req.Packages <= 0 {
			return nil, invalid("packages", "must be greater than 0")
		}
		ingredient, err := l.scope.Read(ctx).Ingredients.Get(tenantID, id)
		if err != nil {
			return nil, classify("restock", "ingredient", id, err)
		}
		units, ok := packaging.BaseUnitsFromPackages(*req.Packages, ingredient.PackageSize)
		if !ok {
			return nil, invalid("packages", "is too large")
		}
		delta = units
	}

	ingredient, err := l.adjust(ctx, tenantID, id, delta, model.MovementRestock)
	if err != nil {
		return nil, err
	}
	view := NewIngredientView(*ingredient)
	return &view, nil
}

func (l *Ledger) adjust(ctx context.Context, tenantID, id uint, delta int64, kind string) (*model.Ingredient, error) {
	log := logger.FromContext(ctx)
	defer prometheus.TrackDBOperation("adjust_stock")(time.Now())

	if delta == 0 {
		return nil, invalid("delta", "must not be zero")
	}
	if delta == math.MinInt64 {
		return nil, invalid("delta", "is out of range")
	}

	var ingredient model.Ingredient
	err := l.scope.Execute(ctx, func(repos store.Repos) error {
		locked, err := repos.Ingredients.LockForUpdate(tenantID, []uint{id})
		if err != nil {
			return err
		}
		if len(locked) == 0 {
			return &NotFoundError{Entity: "ingredient", ID: id}
		}
		ingredient = locked[0]
		if delta > 0 && ingredient.Quantity > math.MaxInt64-delta {
			return invalid("delta", "would overflow the stored quantity")
		}

		after, err := applyStockChange(repos, ingredient, delta, kind, "")
		if err != nil {
			return err
		}
		ingredient.Quantity = after
		return nil
	})
	if err != nil {
		log.Warn("Stock adjustment failed",
			zap.Uint("tenant_id", tenantID),
			zap.Uint("ingredient_id", id),
			zap.Int64("delta", delta),
			zap.Error(err))
		return nil, classify("adjust stock", "ingredient", id, err)
	}

	prometheus.RecordIngredientOperation(kind)
	prometheus.UpdateIngredientStock(tenantID, id, ingredient.Name, ingredient.Quantity)
	log.Info("Stock adjusted",
		zap.Uint("tenant_id", tenantID),
		zap.Uint("ingredient_id", id),
		zap.String("kind", kind),
		zap.Int64("delta", delta),
		zap.Int64("quantity", ingredient.Quantity))
	return &ingredient, nil
}

// applyStockChange writes a guarded relative update and its movement row.
// ingredient must have been loaded with LockForUpdate in the same
// transaction so that the reported quantity after the change is exact.
func applyStockChange(repos store.Repos, ingredient model.Ingredient, delta int64, kind, reference string) (int64, error) {
	applied, err := repos.Ingredients.ApplyDelta(ingredient.TenantID, ingredient.ID, delta)
	if err != nil {
		return 0, err
	}
	if !applied {
		return 0, &InsufficientStockError{Shortages: []Shortage{{
			IngredientID: ingredient.ID,
			Name:         ingredient.Name,
			Unit:         ingredient.Unit,
			Needed:       -delta,
			Available:    ingredient.Quantity,
		}}}
	}

	after := ingredient.Quantity + delta
	err = repos.Movements.Record(&model.StockMovement{
		TenantID:      ingredient.TenantID,
		IngredientID:  ingredient.ID,
		Kind:          kind,
		Delta:         delta,
		QuantityAfter: after,
		Reference:     reference,
	})
	return after, err
}

// ListMovements returns the stock history of an ingredient, newest first.
// limit <= 0 returns everything.
func (l *Ledger) ListMovements(ctx context.Context, tenantID, id uint, limit int) ([]model.StockMovement, error) {
	repos := l.scope.Read(ctx)
	if _, err := repos.Ingredients.Get(tenantID, id); err != nil {
		return nil, classify("list movements", "ingredient", id, err)
	}
	movements, err := repos.Movements.ListByIngredient(tenantID, id, limit)
	if err != nil {
		return nil, classify("list movements", "ingredient", id, err)
	}
	return movements, nil
}

func (l *Ledger) invalidateProducts(ctx context.Context, tenantID uint) {
	invalidateProductCache(ctx, l.cache, tenantID)
}

// invalidateProductCache moves the tenant to a new listing generation
func invalidateProductCache(ctx context.Context, c cache.Cache, tenantID uint) {
	if _, err := c.Incr(ctx, cache.ProductGenerationKey(tenantID)); err != nil {
		logger.FromContext(ctx).Warn("Failed to invalidate product cache",
			zap.Uint("tenant_id", tenantID),
			zap.Error(err))
	}
}
