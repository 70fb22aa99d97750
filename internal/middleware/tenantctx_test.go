package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"hub-service/internal/model"
	"hub-service/internal/tenant"
	"hub-service/pkg/config"
	"hub-service/pkg/jwtutil"
	"hub-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRegistry is an in-memory tenant.Registry for middleware tests
type stubRegistry struct {
	tenants map[uint]*model.Tenant
}

func (r *stubRegistry) ByID(id uint) (*model.Tenant, error) {
	t, ok := r.tenants[id]
	if !ok || t.Status != model.TenantStatusActive {
		return nil, tenant.ErrTenantNotFound
	}
	return t, nil
}

func (r *stubRegistry) ByIdentifier(identifier string) (*model.Tenant, error) {
	for _, t := range r.tenants {
		if t.Identifier == identifier && t.Status == model.TenantStatusActive {
			return t, nil
		}
	}
	return nil, tenant.ErrTenantNotFound
}

func TestMain(m *testing.M) {
	if err := logger.InitLogger(&config.Config{}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func newTenantContextTest(t *testing.T, headerValue string, claims *jwtutil.SessionClaims) (*httptest.ResponseRecorder, bool) {
	t.Helper()

	reg := &stubRegistry{tenants: map[uint]*model.Tenant{
		42: {ID: 42, Identifier: "clinic1", Status: model.TenantStatusActive, Timezone: "America/Sao_Paulo", Locale: "pt-BR"},
		43: {ID: 43, Identifier: "clinic2", Status: model.TenantStatusSuspended},
	}}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/licenses", nil)
	if headerValue != "" {
		req.Header.Set(TenantHeader, headerValue)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if claims != nil {
		c.Set("claims", claims)
	}

	reached := false
	handler := TenantContext(reg)(func(c echo.Context) error {
		reached = true

		// Downstream handlers see the resolved identity
		tenantID, ok := c.Get("tenant_id").(uint)
		require.True(t, ok)
		assert.Equal(t, uint(42), tenantID)
		assert.Equal(t, "tenant_clinic1", c.Get("tenant_schema"))

		identity, ok := c.Get("tenant").(*tenant.Identity)
		require.True(t, ok)
		assert.Equal(t, "clinic1", identity.Identifier)

		return c.NoContent(http.StatusOK)
	})

	require.NoError(t, handler(c))
	return rec, reached
}

func TestTenantContext_MissingHeader(t *testing.T) {
	rec, reached := newTenantContextTest(t, "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing_tenant_context")
	assert.False(t, reached)
}

func TestTenantContext_MalformedHeader(t *testing.T) {
	for _, value := range []string{"clinic1", "abc", "-1", "0", "12x"} {
		t.Run(value, func(t *testing.T) {
			rec, reached := newTenantContextTest(t, value, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "missing_tenant_context")
			assert.False(t, reached)
		})
	}
}

func TestTenantContext_UnknownTenant(t *testing.T) {
	rec, reached := newTenantContextTest(t, "99", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "tenant_not_found")
	assert.False(t, reached)
}

func TestTenantContext_SuspendedTenant(t *testing.T) {
	rec, reached := newTenantContextTest(t, "43", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "tenant_not_found")
	assert.False(t, reached)
}

func TestTenantContext_SessionTenantMismatch(t *testing.T) {
	claims := &jwtutil.SessionClaims{UserID: 7, TenantID: 43}
	rec, reached := newTenantContextTest(t, "42", claims)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "tenant_mismatch")
	assert.False(t, reached)
}

func TestTenantContext_Resolved(t *testing.T) {
	claims := &jwtutil.SessionClaims{UserID: 7, TenantID: 42}
	rec, reached := newTenantContextTest(t, "42", claims)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reached)
}
