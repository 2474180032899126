package service

import (
	"context"
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

var hundred = decimal.NewFromInt(100)

// RecipeLineSpec is one ingredient requirement of a product
type RecipeLineSpec struct {
	IngredientID     uint  `json:"ingredient_id"`
	QuantityRequired int64 `json:"quantity_required"`
}

// ProductSpec is the input of CreateProduct and UpdateProduct. An update
// replaces every field and the whole recipe.
type ProductSpec struct {
	Name        string           `json:"name"`
	Description *string          `json:"description,omitempty"`
	Price       int64            `json:"price"`
	ImageURL    *string          `json:"image_url,omitempty"`
	RecipeLines []RecipeLineSpec `json:"recipe_lines"`
}

// RecipeItem is a recipe line resolved against the current ingredient
type RecipeItem struct {
	IngredientID     uint            `json:"ingredient_id"`
	Name             string          `json:"name"`
	Unit             string          `json:"unit"`
	QuantityRequired int64           `json:"quantity_required"`
	Cost             decimal.Decimal `json:"cost"`
	Missing          bool            `json:"missing"`
}

// ProductWithRecipe is a product with its resolved recipe and economics.
// Money values are in cents; MarginPercent is rounded to two places.
type ProductWithRecipe struct {
	model.Product
	Recipe         []RecipeItem    `json:"recipe"`
	ProductionCost decimal.Decimal `json:"production_cost"`
	Profit         decimal.Decimal `json:"profit"`
	MarginPercent  decimal.Decimal `json:"margin_percent"`
}

// ComputeProductionCost sums cost-per-base-unit times quantity over the
// recipe. Lines whose ingredient is gone or has no price or package size
// contribute nothing.
func ComputeProductionCost(lines []model.RecipeLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(lineCost(line))
	}
	return total
}

func lineCost(line model.RecipeLine) decimal.Decimal {
	if line.Ingredient == nil {
		return decimal.Zero
	}
	perUnit, ok := packaging.CostPerBaseUnit(line.Ingredient.PackagePrice, line.Ingredient.PackageSize)
	if !ok {
		return decimal.Zero
	}
	return perUnit.Mul(decimal.NewFromInt(line.QuantityRequired))
}

// ComputeMargin returns price - cost and the profit as a percentage of the
// price. The percentage is zero for free products.
func ComputeMargin(price int64, cost decimal.Decimal) (profit, marginPercent decimal.Decimal) {
	p := decimal.NewFromInt(price)
	profit = p.Sub(cost)
	if price <= 0 {
		return profit, decimal.Zero
	}
	return profit, profit.Div(p).Mul(hundred)
}

// NewProductWithRecipe resolves product's preloaded recipe lines
func NewProductWithRecipe(product model.Product) ProductWithRecipe {
	items := make([]RecipeItem, 0, len(product.RecipeLines))
	for _, line := range product.RecipeLines {
		item := RecipeItem{
			IngredientID:     line.IngredientID,
			QuantityRequired: line.QuantityRequired,
			Cost:             lineCost(line),
		}
		if line.Ingredient == nil {
			item.Missing = true
		} else {
			item.Name = line.Ingredient.Name
			item.Unit = line.Ingredient.Unit
		}
		items = append(items, item)
	}

	cost := ComputeProductionCost(product.RecipeLines)
	profit, margin := ComputeMargin(product.Price, cost)

	product.RecipeLines = nil
	return ProductWithRecipe{
		Product:        product,
		Recipe:         items,
		ProductionCost: cost,
		Profit:         profit,
		MarginPercent:  margin.Round(2),
	}
}

// Catalog owns products and their recipes
type Catalog struct {
	scope *store.Scope
	cache cache.Cache
}

// NewCatalog creates a catalog. A nil cache disables listing caching.
func NewCatalog(scope *store.Scope, c cache.Cache) *Catalog {
	if c == nil {
		c = cache.NopCache{}
	}
	return &Catalog{scope: scope, cache: c}
}

func validateProduct(spec ProductSpec) (model.Product, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return model.Product{}, invalid("name", "is required")
	}
	if spec.Price < 0 {
		return model.Product{}, invalid("price", "must not be negative")
	}

	lines := make([]model.RecipeLine, 0, len(spec.RecipeLines))
	seen := make(map[uint]bool, len(spec.RecipeLines))
	for i, l := range spec.RecipeLines {
		if l.IngredientID == 0 {
			return model.Product{}, invalid("recipe_lines", "line %d: ingredient_id is required", i)
		}
		if l.QuantityRequired <= 0 {
			return model.Product{}, invalid("recipe_lines", "line %d: quantity_required must be greater than 0", i)
		}
		if seen[l.IngredientID] {
			return model.Product{}, invalid("recipe_lines", "ingredient %d appears more than once", l.IngredientID)
		}
		seen[l.IngredientID] = true
		lines = append(lines, model.RecipeLine{IngredientID: l.IngredientID, QuantityRequired: l.QuantityRequired})
	}

	return model.Product{
		Name:        name,
		Description: spec.Description,
		Price:       spec.Price,
		ImageURL:    spec.ImageURL,
		RecipeLines: lines,
	}, nil
}

// checkIngredients fails when a recipe references an ingredient the tenant
// does not own
func checkIngredients(repos store.Repos, tenantID uint, lines []model.RecipeLine) error {
	ids := make([]uint, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.IngredientID)
	}
	found, err := repos.Ingredients.ExistingIDs(tenantID, ids)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if !found[id] {
			return invalid("recipe_lines", "ingredient %d does not exist", id)
		}
	}
	return nil
}

// CreateProduct stores a product and its recipe in one transaction
func (c *Catalog) CreateProduct(ctx context.Context, tenantID uint, spec ProductSpec) (*ProductWithRecipe, error) {
	log := logger.FromContext(ctx)
	defer prometheus.TrackDBOperation("create_product")(time.Now())

	product, err := validateProduct(spec)
	if err != nil {
		log.Warn("Rejected product", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return nil, err
	}
	product.TenantID = tenantID
	for i := range product.RecipeLines {
		product.RecipeLines[i].TenantID = tenantID
	}

	var created *model.Product
	err = c.scope.Execute(ctx, func(repos store.Repos) error {
		if err := checkIngredients(repos, tenantID, product.RecipeLines); err != nil {
			return err
		}
		if err := repos.Products.Create(&product); err != nil {
			return err
		}
		var err error
		created, err = repos.Products.Get(tenantID, product.ID)
		return err
	})
	if err != nil {
		log.Error("Failed to create product",
			zap.Uint("tenant_id", tenantID),
			zap.String("name", product.Name),
			zap.Error(err))
		return nil, classify("create product", "product", 0, err)
	}

	c.invalidate(ctx, tenantID)
	prometheus.RecordProductOperation("create")
	log.Info("Product created",
		zap.Uint("tenant_id", tenantID),
		zap.Uint("product_id", created.ID),
		zap.Int("recipe_lines", len(created.RecipeLines)))

	view := NewProductWithRecipe(*created)
	return &view, nil
}

// UpdateProduct overwrites a product and replaces its recipe in one transaction
func (c *Catalog) UpdateProduct(ctx context.Context, tenantID, id uint, spec ProductSpec) (*ProductWithRecipe, error) {
	log := logger.FromContext(ctx)
	defer prometheus.TrackDBOperation("update_product")(time.Now())

	product, err := validateProduct(spec)
	if err != nil {
		log.Warn("Rejected product update", zap.Uint("tenant_id", tenantID), zap.Uint("product_id", id), zap.Error(err))
		return nil, err
	}

	var updated *model.Product
	err = c.scope.Execute(ctx, func(repos store.Repos) error {
		if _, err := repos.Products.Find(tenantID, id); err != nil {
			return err
		}
		if err := checkIngredients(repos, tenantID, product.RecipeLines); err != nil {
			return err
		}
		_, err := repos.Products.UpdateFields(tenantID, id, map[string]interface{}{
			"name":        product.Name,
			"description": nullable(product.Description),
			"price":       product.Price,
			"image_url":   nullable(product.ImageURL),
		})
		if err != nil {
			return err
		}
		if err := repos.Products.ReplaceLines(tenantID, id, product.RecipeLines); err != nil {
			return err
		}
		updated, err = repos.Products.Get(tenantID, id)
		return err
	})
	if err != nil {
		log.Error("Failed to update product",
			zap.Uint("tenant_id", tenantID),
			zap.Uint("product_id", id),
			zap.Error(err))
		return nil, classify("update product", "product", id, err)
	}

	c.invalidate(ctx, tenantID)
	prometheus.RecordProductOperation("update")
	log.Info("Product updated", zap.Uint("tenant_id", tenantID), zap.Uint("product_id", id))

	view := NewProductWithRecipe(*updated)
	return &view, nil
}

// GetProduct returns one product with its recipe
func (c *Catalog) GetProduct(ctx context.Context, tenantID, id uint) (*ProductWithRecipe, error) {
	product, err := c.scope.Read(ctx).Products.Get(tenantID, id)
	if err != nil {
		return nil, classify("get product", "product", id, err)
	}
	view := NewProductWithRecipe(*product)
	return &view, nil
}

// ListProducts returns the tenant's products with recipes, served from the
// cache when possible. Listings are stored under the generation read before
// the database query, so a listing built from rows that an edit has since
// replaced is written under a generation nobody reads any more.
func (c *Catalog) ListProducts(ctx context.Context, tenantID uint) ([]ProductWithRecipe, error) {
	log := logger.FromContext(ctx)

	var generation int64
	_, err := c.cache.Get(ctx, cache.ProductGenerationKey(tenantID), &generation)
	cacheable := err == nil
	if err != nil {
		log.Warn("Product cache read failed", zap.Uint("tenant_id", tenantID), zap.Error(err))
	}
	key := cache.ProductListKey(tenantID, generation)

	if cacheable {
		var cached []ProductWithRecipe
		hit, err := c.cache.Get(ctx, key, &cached)
		if err != nil {
			log.Warn("Product cache read failed", zap.Uint("tenant_id", tenantID), zap.Error(err))
			cacheable = false
		}
		prometheus.RecordCacheLookup(hit)
		if hit {
			return cached, nil
		}
	}

	defer prometheus.TrackDBOperation("list_products")(time.Now())
	products, err := c.scope.Read(ctx).Products.List(tenantID)
	if err != nil {
		log.Error("Failed to list products", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return nil, classify("list products", "product", 0, err)
	}

	views := make([]ProductWithRecipe, 0, len(products))
	for _, p := range products {
		views = append(views, NewProductWithRecipe(p))
	}

	if cacheable {
		if err := c.cache.Set(ctx, key, views); err != nil {
			log.Warn("Product cache write failed", zap.Uint("tenant_id", tenantID), zap.Error(err))
		}
	}
	return views, nil
}

// DeleteProduct removes a product together with its recipe lines
func (c *Catalog) DeleteProduct(ctx context.Context, tenantID, id uint) error {
	log := logger.FromContext(ctx)
	defer prometheus.TrackDBOperation("delete_product")(time.Now())

	err := c.scope.Execute(ctx, func(repos store.Repos) error {
		rows, err := repos.Products.Delete(tenantID, id)
		if err != nil {
			return err
		}
		if rows == 0 {
			return &NotFoundError{Entity: "product", ID: id}
		}
		return nil
	})
	if err != nil {
		log.Error("Failed to delete product",
			zap.Uint("tenant_id", tenantID),
			zap.Uint("product_id", id),
			zap.Error(err))
		return classify("delete product", "product", id, err)
	}

	c.invalidate(ctx, tenantID)
	prometheus.RecordProductOperation("delete")
	log.Info("Product deleted", zap.Uint("tenant_id", tenantID), zap.Uint("product_id", id))
	return nil
}

// nullable turns a nil pointer into an untyped nil so the column is cleared
func nullable(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func (c *Catalog) invalidate(ctx context.Context, tenantID uint) {
	invalidateProductCache(ctx, c.cache, tenantID)
}
