package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	httpHandlers "github.com/smartplanner/core/internal/adapters/http"
)

// sessionMiddleware resolves the bearer token to the caller's task store
func (s *Server) sessionMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing authorization header")
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader || tokenString == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization header format")
			}

			store, sessionID, err := s.sessions.Resolve(tokenString)
			if err != nil {
				s.logger.LogSecurityEvent("invalid_session", "", c.RealIP(), map[string]interface{}{
					"error": err.Error(),
					"path":  c.Request().URL.Path,
				})
				return err
			}

			c.Set(httpHandlers.ContextKeyTaskStore, store)
			c.Set(httpHandlers.ContextKeySessionID, sessionID)

			return next(c)
		}
	}
}
