package users

import (
	"net/http"

	"github.com/hondana/hondana/pkg/auth"
	"github.com/hondana/hondana/pkg/errcodes"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	userService *Service
}

func (h *handler) me(c echo.Context) error {
	ctx := c.Request().Context()

	principal, ok := auth.PrincipalFromEchoContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	user, err := h.userService.Retrieve(ctx, RetrieveUserOptions{ExternalID: &principal.ExternalID})
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, user))
}
