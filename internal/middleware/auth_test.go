package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"marketplace-api/internal/auth"
	"marketplace-api/internal/config"
	"marketplace-api/internal/model"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testJWTConfig = &config.JWT{Secret: "test-secret", ExpiryHour: 1}

func authRequest(t *testing.T, cookie string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: TokenCookie, Value: cookie})
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthMiddlewareSetsIdentity(t *testing.T) {
	user := &model.User{ID: "u-1", Email: "u1@example.com", Role: model.RoleCustomer}
	token, err := auth.GenerateToken(testJWTConfig, user)
	require.NoError(t, err)

	c, _ := authRequest(t, token)
	handler := AuthMiddleware(testJWTConfig)(func(c echo.Context) error {
		return c.String(http.StatusOK, UserID(c))
	})

	require.NoError(t, handler(c))
	assert.Equal(t, "u-1", UserID(c))
	assert.Equal(t, model.RoleCustomer, UserRole(c))
}

func TestAuthMiddlewareRejectsMissingCookie(t *testing.T) {
	c, _ := authRequest(t, "")
	handler := AuthMiddleware(testJWTConfig)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	err := handler(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestAuthMiddlewareRejectsGarbageToken(t *testing.T) {
	c, _ := authRequest(t, "not-a-jwt")
	handler := AuthMiddleware(testJWTConfig)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	err := handler(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestAuthMiddlewareRejectsTokenSignedWithOtherSecret(t *testing.T) {
	user := &model.User{ID: "u-1", Email: "u1@example.com", Role: model.RoleCustomer}
	token, err := auth.GenerateToken(&config.JWT{Secret: "other-secret", ExpiryHour: 1}, user)
	require.NoError(t, err)

	c, _ := authRequest(t, token)
	handler := AuthMiddleware(testJWTConfig)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	err = handler(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestRequireRole(t *testing.T) {
	next := func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}

	c, rec := authRequest(t, "")
	c.Set("role", model.RoleAdmin)
	require.NoError(t, RequireRole(model.RoleMerchant, model.RoleAdmin)(next)(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	c, _ = authRequest(t, "")
	c.Set("role", model.RoleCustomer)
	err := RequireRole(model.RoleAdmin)(next)(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusForbidden, httpErr.Code)
}
