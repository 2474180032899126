package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	mid "kitchen-service/internal/middleware"
	"kitchen-service/internal/service"
	"kitchen-service/pkg/logger"
)

// Handler serves the JSON API over the inventory services
type Handler struct {
	ledger    *service.Ledger
	catalog   *service.Catalog
	sales     *service.SaleEngine
	importer  *service.Importer
	dashboard *service.Dashboard
	health    *HealthChecker
}

// Services bundles what Handler needs
type Services struct {
	Ledger    *service.Ledger
	Catalog   *service.Catalog
	Sales     *service.SaleEngine
	Importer  *service.Importer
	Dashboard *service.Dashboard
	Health    *HealthChecker
}

// New creates a handler
func New(s Services) *Handler {
	return &Handler{
		ledger:    s.Ledger,
		catalog:   s.Catalog,
		sales:     s.Sales,
		importer:  s.Importer,
		dashboard: s.Dashboard,
		health:    s.Health,
	}
}

// RegisterRoutes mounts the health check and every /api route. auth must
// resolve the tenant of the request.
func (h *Handler) RegisterRoutes(e *echo.Echo, auth echo.MiddlewareFunc) {
	if h.health != nil {
		e.GET("/health", h.health.Check)
	}

	api := e.Group("/api", auth)

	ingredients := api.Group("/ingredients")
	ingredients.GET("", h.ListIngredients)
	ingredients.POST("", h.CreateIngredient)
	ingredients.POST("/import", h.ImportIngredients)
	ingredients.GET("/low-stock", h.ListLowStock)
	ingredients.GET("/:id", h.GetIngredient)
	ingredients.PUT("/:id", h.UpdateIngredient)
	ingredients.DELETE("/:id", h.DeleteIngredient)
	ingredients.POST("/:id/restock", h.RestockIngredient)
	ingredients.GET("/:id/movements", h.ListMovements)

	products := api.Group("/products")
	products.GET("", h.ListProducts)
	products.POST("", h.CreateProduct)
	products.GET("/:id", h.GetProduct)
	products.PUT("/:id", h.UpdateProduct)
	products.DELETE("/:id", h.DeleteProduct)

	api.POST("/sales", h.ProcessSale)
	api.GET("/dashboard", h.Dashboard)
}

// tenantID reads the tenant resolved by the auth middleware
func tenantID(c echo.Context) (uint, bool) {
	return mid.GetTenantIDFromContext(c)
}

func missingTenant(c echo.Context) error {
	logger.FromEcho(c).Error("Tenant context missing")
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "tenant context missing"})
}

// pathID parses the :id route parameter
func pathID(c echo.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		logger.FromEcho(c).Warn("Invalid id parameter", zap.String("id", c.Param("id")))
		return 0, false
	}
	return uint(id), true
}

func badID(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
}

func badBody(c echo.Context, err error) error {
	logger.FromEcho(c).Warn("Invalid request data", zap.Error(err))
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
}
