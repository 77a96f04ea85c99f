package users

import (
	"github.com/hondana/hondana/pkg/auth"
	"github.com/labstack/echo/v4"
)

// RegisterRoutes registers all user routes.
func RegisterRoutes(e *echo.Echo, userService *Service, authMiddleware *auth.Middleware) {
	h := &handler{
		userService: userService,
	}

	e.GET("/me", h.me, authMiddleware.Authenticate)
}
