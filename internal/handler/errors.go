package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"kitchen-service/internal/service"
	"kitchen-service/pkg/logger"
)

// statusOf maps a service error to its HTTP status
func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInsufficientStock):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondError writes err in the {"error": ...} shape. Internal errors are
// logged and replaced by a generic message.
func respondError(c echo.Context, err error) error {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		logger.FromEcho(c).Error("Request failed", zap.Error(err))
		return c.JSON(status, echo.Map{"error": "internal server error"})
	}
	return c.JSON(status, echo.Map{"error": err.Error()})
}

// saleFailure is the body of a rejected sale
type saleFailure struct {
	Success            bool               `json:"success"`
	Message            string             `json:"message"`
	MissingIngredients []string           `json:"missing_ingredients,omitempty"`
	Shortages          []service.Shortage `json:"shortages,omitempty"`
}

func respondSaleError(c echo.Context, err error) error {
	status := statusOf(err)
	body := saleFailure{Message: err.Error()}

	var stockErr *service.InsufficientStockError
	if errors.As(err, &stockErr) {
		body.MissingIngredients = stockErr.MissingIngredients()
		body.Shortages = stockErr.Shortages
	}
	if status == http.StatusInternalServerError {
		logger.FromEcho(c).Error("Sale failed", zap.Error(err))
		body.Message = "failed to process sale"
	}
	return c.JSON(status, body)
}
