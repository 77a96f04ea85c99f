package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/hondana/hondana/pkg/auth"
	"github.com/hondana/hondana/pkg/binder"
	"github.com/hondana/hondana/pkg/books"
	"github.com/hondana/hondana/pkg/config"
	"github.com/hondana/hondana/pkg/errcodes"
	"github.com/hondana/hondana/pkg/identity"
	"github.com/hondana/hondana/pkg/testutils"
	"github.com/hondana/hondana/pkg/users"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/uptrace/bun"
)

var setNotFoundHandler sync.Once

func New(cfg *config.Config, db *bun.DB) (*http.Server, error) {
	e, err := newEcho(cfg, db)
	if err != nil {
		return nil, err
	}

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

func newEcho(cfg *config.Config, db *bun.DB) (*echo.Echo, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORS())

	health.RegisterRoutes(e)

	authService, err := auth.NewService(cfg)
	if err != nil {
		return nil, err
	}
	authMiddleware := auth.NewMiddleware(authService)

	userService := users.NewService(db)

	// The webhook authenticates with its signature, not a session.
	if _, err := identity.RegisterRoutes(e, cfg, userService); err != nil {
		return nil, err
	}

	users.RegisterRoutes(e, userService, authMiddleware)
	books.RegisterRoutesWithGroup(e.Group("/books"), db, userService, authMiddleware)

	if cfg.IsTest() {
		testutils.RegisterRoutes(e, db, authService)
	}

	setNotFoundHandler.Do(func() {
		echo.NotFoundHandler = notFoundHandler
	})
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	return e, nil
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
