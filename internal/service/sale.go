package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"kitchen-service/internal/model"
	"kitchen-service/internal/store"
	"kitchen-service/pkg/logger"
	"kitchen-service/prometheus"
)

// SaleRequest asks to sell Quantity units of a product
type SaleRequest struct {
	ProductID uint  `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

// Deduction is the stock taken from one ingredient by a sale
type Deduction struct {
	IngredientID uint   `json:"ingredient_id"`
	Name         string `json:"name"`
	Quantity     int64  `json:"quantity"`
	Remaining    int64  `json:"remaining"`
}

// SaleResult describes a committed sale. SaleID is the reference written on
// the stock movements of the sale.
type SaleResult struct {
	SaleID     string      `json:"sale_id"`
	ProductID  uint        `json:"product_id"`
	Quantity   int64       `json:"quantity"`
	Deductions []Deduction `json:"deductions"`
}

// SaleEngine deducts recipe quantities from stock, all or nothing
type SaleEngine struct {
	scope *store.Scope
}

// NewSaleEngine creates a sale engine over scope
func NewSaleEngine(scope *store.Scope) *SaleEngine {
	return &SaleEngine{scope: scope}
}

type requirement struct {
	ingredientID uint
	needed       int64
}

// aggregate multiplies each recipe line by quantity and merges lines that
// use the same ingredient, keeping first-appearance order
func aggregate(lines []model.RecipeLine, quantity int64) ([]requirement, error) {
	reqs := make([]requirement, 0, len(lines))
	index := make(map[uint]int, len(lines))
	for _, line := range lines {
		if line.QuantityRequired > math.MaxInt64/quantity {
			return nil, invalid("quantity", "is too large for ingredient %d", line.IngredientID)
		}
		needed := line.QuantityRequired * quantity

		i, ok := index[line.IngredientID]
		if !ok {
			index[line.IngredientID] = len(reqs)
			reqs = append(reqs, requirement{ingredientID: line.IngredientID, needed: needed})
			continue
		}
		if reqs[i].needed > math.MaxInt64-needed {
			return nil, invalid("quantity", "is too large for ingredient %d", line.IngredientID)
		}
		reqs[i].needed += needed
	}
	return reqs, nil
}

// ProcessSale sells req.Quantity units of a product. Every ingredient of
// the recipe is checked before any is deducted; on failure no stock
// changes. A product without a recipe sells without touching stock.
func (e *SaleEngine) ProcessSale(ctx context.Context, tenantID uint, req SaleRequest) (*SaleResult, error) {
	log := logger.FromContext(ctx).With(
		zap.Uint("tenant_id", tenantID),
		zap.Uint("product_id", req.ProductID),
		zap.Int64("quantity", req.Quantity))
	defer prometheus.TrackDBOperation("process_sale")(time.Now())

	if req.ProductID == 0 {
		prometheus.RecordSale(tenantID, "invalid", 0)
		return nil, invalid("product_id", "is required")
	}
	if req.Quantity < 1 {
		prometheus.RecordSale(tenantID, "invalid", 0)
		return nil, invalid("quantity", "must be at least 1")
	}

	result := &SaleResult{
		SaleID:     uuid.NewString(),
		ProductID:  req.ProductID,
		Quantity:   req.Quantity,
		Deductions: []Deduction{},
	}
	log.Info("Processing sale", zap.String("sale_id", result.SaleID))

	var touched []model.Ingredient
	err := e.scope.Execute(ctx, func(repos store.Repos) error {
		if _, err := repos.Products.Find(tenantID, req.ProductID); err != nil {
			return classify("process sale", "product", req.ProductID, err)
		}
		lines, err := repos.Products.Lines(tenantID, req.ProductID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return nil
		}

		reqs, err := aggregate(lines, req.Quantity)
		if err != nil {
			return err
		}

		ids := make([]uint, 0, len(reqs))
		for _, r := range reqs {
			ids = append(ids, r.ingredientID)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		locked, err := repos.Ingredients.LockForUpdate(tenantID, ids)
		if err != nil {
			return err
		}
		byID := make(map[uint]model.Ingredient, len(locked))
		for _, in := range locked {
			byID[in.ID] = in
		}

		// validate every line before touching any row
		var shortages []Shortage
		for _, r := range reqs {
			in, ok := byID[r.ingredientID]
			if !ok {
				return &NotFoundError{Entity: "ingredient", ID: r.ingredientID}
			}
			if in.Quantity < r.needed {
				shortages = append(shortages, Shortage{
					IngredientID: in.ID,
					Name:         in.Name,
					Unit:         in.Unit,
					Needed:       r.needed,
					Available:    in.Quantity,
				})
			}
		}
		if len(shortages) > 0 {
			return &InsufficientStockError{Shortages: shortages}
		}

		remaining := make(map[uint]int64, len(reqs))
		needed := make(map[uint]int64, len(reqs))
		for _, r := range reqs {
			needed[r.ingredientID] = r.needed
		}
		for _, id := range ids {
			after, err := applyStockChange(repos, byID[id], -needed[id], model.MovementSale, result.SaleID)
			if err != nil {
				return err
			}
			remaining[id] = after
		}

		for _, r := range reqs {
			in := byID[r.ingredientID]
			in.Quantity = remaining[in.ID]
			touched = append(touched, in)
			result.Deductions = append(result.Deductions, Deduction{
				IngredientID: in.ID,
				Name:         in.Name,
				Quantity:     r.needed,
				Remaining:    in.Quantity,
			})
		}
		return nil
	})
	if err != nil {
		err = classify("process sale", "ingredient", 0, err)
		outcome := saleOutcome(err)
		prometheus.RecordSale(tenantID, outcome, 0)
		if outcome == "error" {
			log.Error("Sale failed", zap.String("sale_id", result.SaleID), zap.Error(err))
		} else {
			log.Warn("Sale rejected", zap.String("sale_id", result.SaleID), zap.String("outcome", outcome), zap.Error(err))
		}
		return nil, err
	}

	prometheus.RecordSale(tenantID, "success", req.Quantity)
	for _, in := range touched {
		prometheus.UpdateIngredientStock(tenantID, in.ID, in.Name, in.Quantity)
	}
	log.Info("Sale completed",
		zap.String("sale_id", result.SaleID),
		zap.Int("deductions", len(result.Deductions)))
	return result, nil
}

func saleOutcome(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrValidation):
		return "invalid"
	}
	return "error"
}
