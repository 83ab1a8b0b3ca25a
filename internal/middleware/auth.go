package middleware

import (
	"net/http"
	"storefront-backend/internal/auth"
	"strings"

	"github.com/labstack/echo/v4"
)

const userIDKey = "user_id"

// AuthMiddleware requires a valid "Authorization: Bearer <token>" header and
// stores the caller's user id on the context.
func AuthMiddleware(tokens auth.TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, map[string]string{
					"error": "authentication required",
				})
			}

			userID, err := tokens.Parse(strings.TrimSpace(token))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, map[string]string{
					"error": "invalid or expired token",
				})
			}

			c.Set(userIDKey, userID)
			return next(c)
		}
	}
}

// UserID returns the authenticated user id, or "" outside AuthMiddleware.
func UserID(c echo.Context) string {
	id, _ := c.Get(userIDKey).(string)
	return id
}
