package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"kitchen-service/internal/service"
	"kitchen-service/pkg/logger"
)

const defaultMovementLimit = 50

// ImportRequest is the body of a bulk ingredient import
type ImportRequest struct {
	Ingredients []service.IngredientSpec `json:"ingredients"`
}

// ListIngredients returns the tenant's ingredients ordered by name
func (h *Handler) ListIngredients(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return missingTenant(c)
	}

	views, err := h.ledger.ListIngredients(c.Request().Context(), tid)
	if err != nil {
		return respondError(c, err)
	}

	logger.FromEcho(c).Info("Ingredients retrieved successfully", zap.Int("count", len(views)))
	return c.JSON(http.StatusOK, views)
}

// ListLowStock returns the ingredients at or below their threshold
func (h *Handler) ListLowStock(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return missingTenant(c)
	}

	views, err := h.ledger.ListLowStock(c.Request().Context(), tid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, views)
}

// GetIngredient returns a single ingredient
func (h *Handler) GetIngredient(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return missingTenant(c)
	}
	id, ok := pathID(c)
	if !ok {
		return badID(c)
	}

	view, err := h.ledger.GetIngredient(c.Request().Context(), tid, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// CreateIngredient stores a new ingredient
func (h *Handler) CreateIngredient(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return missingTenant(c)
	}

	var req service.IngredientSpec
	if err := c.Bind(&req); err != nil {
		return badBody(c, err)
	}

	view, err := h.ledger.CreateIngredient(c.Request().Context(), tid, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, view)
}

// ImportIngredients creates many ingredients; rows succeed or fail independently
func (h *Handler) ImportIngredients(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return missingTenant(c)
	}

	var req ImportRequest
	if err := c.Bind(&req); err != nil {
		return badBody(c, err)
	}

	result, err := h.importer.ImportIngredients(c.Request().Context(), tid, req.Ingredients)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// UpdateIngredient edits the non-stock fields of an ingredient
func (h *Handler) UpdateIngredient(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return missingTenant(c)
	}
	id, ok := pathID(c)
	if !ok {
		return badID(c)
	}

	var patch service.IngredientPatch
	if err := c.Bind(&patch); err != nil {
		return badBody(c, err)
	}

	view, err := h.ledger.UpdateIngredientFields(c.Request().Context(), tid, id, patch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// DeleteIngredient soft-deletes an ingredient
func (h *Handler) DeleteIngredient(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return missingTenant(c)
	}
	id, ok := pathID(c)
	if !ok {
		return badID(c)
	}

	if err := h.ledger.DeleteIngredient(c.Request().Context(), tid, id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Ingredient deleted successfully"})
}

// RestockIngredient adds packages or base units to an ingredient
func (h *Handler) RestockIngredient(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return missingTenant(c)
	}
	id, ok := pathID(c)
	if !ok {
		return badID(c)
	}

	var req service.RestockRequest
	if err := c.Bind(&req); err != nil {
		return badBody(c, err)
	}

	view, err := h.ledger.Restock(c.Request().Context(), tid, id, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// ListMovements returns the stock history of an ingredient, newest first.
// ?limit=N caps the result, 0 returns everything.
func (h *Handler) ListMovements(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return missingTenant(c)
	}
	id, ok := pathID(c)
	if !ok {
		return badID(c)
	}

	limit := defaultMovementLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
		}
		limit = n
	}

	movements, err := h.ledger.ListMovements(c.Request().Context(), tid, id, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, movements)
}
