package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"kitchen-service/internal/service"
)

type saleSuccess struct {
	Success bool `json:"success"`
	*service.SaleResult
}

// ProcessSale sells a product, deducting its recipe from stock
func (h *Handler) ProcessSale(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return missingTenant(c)
	}

	var req service.SaleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, saleFailure{Message: "Invalid request data"})
	}

	result, err := h.sales.ProcessSale(c.Request().Context(), tid, req)
	if err != nil {
		return respondSaleError(c, err)
	}
	return c.JSON(http.StatusOK, saleSuccess{Success: true, SaleResult: result})
}
