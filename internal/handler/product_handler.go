package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"kitchen-service/internal/service"
	"kitchen-service/pkg/logger"
)

// ListProducts returns the tenant's products with recipes and margins
func (h *Handler) ListProducts(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return missingTenant(c)
	}

	products, err := h.catalog.ListProducts(c.Request().Context(), tid)
	if err != nil {
		return respondError(c, err)
	}

	logger.FromEcho(c).Info("Products retrieved successfully", zap.Int("count", len(products)))
	return c.JSON(http.StatusOK, products)
}

// GetProduct returns a single product with its recipe
func (h *Handler) GetProduct(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return missingTenant(c)
	}
	id, ok := pathID(c)
	if !ok {
		return badID(c)
	}

	product, err := h.catalog.GetProduct(c.Request().Context(), tid, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

// CreateProduct stores a product and its recipe atomically
func (h *Handler) CreateProduct(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return missingTenant(c)
	}

	var req service.ProductSpec
	if err := c.Bind(&req); err != nil {
		return badBody(c, err)
	}

	product, err := h.catalog.CreateProduct(c.Request().Context(), tid, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, product)
}

// UpdateProduct replaces a product and its whole recipe
func (h *Handler) UpdateProduct(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return missingTenant(c)
	}
	id, ok := pathID(c)
	if !ok {
		return badID(c)
	}

	var req service.ProductSpec
	if err := c.Bind(&req); err != nil {
		return badBody(c, err)
	}

	product, err := h.catalog.UpdateProduct(c.Request().Context(), tid, id, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

// DeleteProduct removes a product and its recipe
func (h *Handler) DeleteProduct(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return missingTenant(c)
	}
	id, ok := pathID(c)
	if !ok {
		return badID(c)
	}

	if err := h.catalog.DeleteProduct(c.Request().Context(), tid, id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Product deleted successfully"})
}
