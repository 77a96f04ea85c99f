package books

import (
	"github.com/hondana/hondana/pkg/auth"
	"github.com/hondana/hondana/pkg/users"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers book routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, userService *users.Service, authMiddleware *auth.Middleware) *Service {
	bookService := NewService(db)

	h := &handler{
		bookService: bookService,
		userService: userService,
	}

	g.Use(authMiddleware.Authenticate)

	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.retrieve)
	g.POST("/:id", h.update)
	g.DELETE("/:id", h.delete)
	g.POST("/:id/status", h.setStatus)
	g.POST("/:id/rating", h.setRating)
	g.GET("/:id/review", h.openReview)
	g.POST("/:id/review", h.setReview)

	return bookService
}
