package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"kitchen-service/pkg/jwtutil"
	"kitchen-service/pkg/logger"
	"kitchen-service/prometheus"
)

// AuthMiddleware resolves the tenant of a request from its bearer token.
// The tenant id is taken from the token only, never from the request body.
func AuthMiddleware(jwt *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				log.Warn("Missing Authorization header")
				prometheus.RecordAuthError("missing_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				log.Warn("Invalid Authorization header format")
				prometheus.RecordAuthError("invalid_auth_format")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
			}

			claims, err := jwt.ValidateToken(parts[1])
			if err != nil {
				log.Warn("Invalid JWT token", zap.Error(err))
				prometheus.RecordAuthError("invalid_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}

			if claims.TenantID == nil || *claims.TenantID == 0 {
				log.Warn("JWT token does not contain tenant_id")
				prometheus.RecordTenantContextMissing()
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "tenant_id is required in the token"})
			}

			c.Set("tenant_id", *claims.TenantID)
			c.Set("tenant_name", claims.TenantName)

			tenantLog := log.With(zap.Uint("tenant_id", *claims.TenantID))
			c.Set("logger", tenantLog)
			req := c.Request()
			c.SetRequest(req.WithContext(logger.WithContext(req.Context(), tenantLog)))

			log.Debug("Request authenticated with tenant context",
				zap.Uint("tenant_id", *claims.TenantID),
				zap.String("tenant_name", claims.TenantName))

			return next(c)
		}
	}
}

// GetTenantIDFromContext retrieves the tenant ID from the context
// Returns 0, false if tenant ID is not found
func GetTenantIDFromContext(c echo.Context) (uint, bool) {
	tenantID, ok := c.Get("tenant_id").(uint)
	return tenantID, ok
}
