package middleware

import (
	"net/http"

	"marketplace-api/internal/auth"
	"marketplace-api/internal/config"
	"marketplace-api/internal/model"

	"github.com/labstack/echo/v4"
)

const TokenCookie = "token"

// AuthMiddleware authenticates requests via the signed session token carried
// in the "token" cookie and stores the caller's identity on the context.
func AuthMiddleware(jwtCfg *config.JWT) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(TokenCookie)
			if err != nil || cookie.Value == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
			}

			claims, err := auth.ParseToken(jwtCfg, cookie.Value)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
			}

			c.Set("user_id", claims.UserID)
			c.Set("email", claims.Email)
			c.Set("role", claims.Role)
			return next(c)
		}
	}
}

// RequireRole gates a route group to the listed roles. It assumes
// AuthMiddleware already ran.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("role").(model.Role)
			for _, allowed := range roles {
				if role == allowed {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "Forbidden")
		}
	}
}

func UserID(c echo.Context) string {
	id, _ := c.Get("user_id").(string)
	return id
}

func UserRole(c echo.Context) model.Role {
	role, _ := c.Get("role").(model.Role)
	return role
}
