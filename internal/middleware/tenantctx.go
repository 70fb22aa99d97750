package middleware

import (
	"errors"
	"net/http"
	"strconv"

	"hub-service/internal/tenant"
	"hub-service/pkg/jwtutil"
	"hub-service/pkg/logger"
	"hub-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// TenantHeader carries the numeric tenant id on every product-API request
const TenantHeader = "X-Tenant-ID"

// TenantContext resolves the tenant for product-API routes before any
// handler runs. The numeric id comes from the tenant header, is resolved
// through the registry on every request (never cached across requests),
// and the resulting identity is attached to the request context. Requests
// without a resolvable tenant fail here, so no handler can accidentally
// query a shared or default schema.
func TenantContext(reg tenant.Registry) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			header := c.Request().Header.Get(TenantHeader)
			if header == "" {
				log.Warn("Missing tenant header")
				prometheus.RecordTenantError("missing_tenant_context")
				return c.JSON(http.StatusBadRequest, echo.Map{
					"error":   "missing_tenant_context",
					"message": "the " + TenantHeader + " header is required",
				})
			}

			id, err := strconv.ParseUint(header, 10, 32)
			if err != nil || id == 0 {
				log.Warn("Malformed tenant header", zap.String("value", header))
				prometheus.RecordTenantError("malformed_tenant_id")
				return c.JSON(http.StatusBadRequest, echo.Map{
					"error":   "missing_tenant_context",
					"message": "the " + TenantHeader + " header must be a numeric tenant id",
				})
			}

			identity, err := tenant.Resolve(reg, uint(id))
			if err != nil {
				if errors.Is(err, tenant.ErrTenantNotFound) {
					log.Warn("Tenant not found", zap.Uint64("tenant_id", id))
					prometheus.RecordTenantError("tenant_not_found")
					return c.JSON(http.StatusBadRequest, echo.Map{
						"error":   "tenant_not_found",
						"message": "no active tenant matches the given id",
					})
				}
				log.Error("Tenant resolution failed", zap.Error(err))
				prometheus.RecordTenantError("resolution_failed")
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant resolution failed"})
			}

			// A session bound to one tenant must not act on another
			if claims, ok := c.Get("claims").(*jwtutil.SessionClaims); ok && claims.TenantID != identity.TenantID {
				log.Warn("Tenant header does not match session tenant",
					zap.Uint("header_tenant_id", identity.TenantID),
					zap.Uint("session_tenant_id", claims.TenantID))
				prometheus.RecordTenantError("tenant_mismatch")
				return c.JSON(http.StatusForbidden, echo.Map{
					"error":   "tenant_mismatch",
					"message": "session does not belong to the requested tenant",
				})
			}

			c.Set("tenant_id", identity.TenantID)
			c.Set("tenant_schema", identity.Schema)
			c.Set("tenant", identity)

			log = log.With(
				zap.Uint("tenant_id", identity.TenantID),
				zap.String("tenant", identity.Identifier),
			)
			c.Set("logger", log)

			return next(c)
		}
	}
}
