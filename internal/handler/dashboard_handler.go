package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Dashboard returns product and ingredient counts and the low stock list
func (h *Handler) Dashboard(c echo.Context) error {
	tid, ok := tenantID(c)
	if !ok {
		return missingTenant(c)
	}

	summary, err := h.dashboard.Summary(c.Request().Context(), tid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}
