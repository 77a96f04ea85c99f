package testutils

import (
	"net/http"

	"github.com/hondana/hondana/pkg/auth"
	"github.com/hondana/hondana/pkg/database"
	"github.com/hondana/hondana/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type handler struct {
	db          *bun.DB
	authService *auth.Service
}

// createSessionRequest is the request body for minting a session token.
type createSessionRequest struct {
	ExternalID string `json:"external_id" validate:"required"`
	Email      string `json:"email" validate:"required"`
}

// createSessionResponse is the response body for minting a session token.
type createSessionResponse struct {
	Token string `json:"token"`
}

// createSession signs a session token the same way the identity provider
// would, so end-to-end tests can call authenticated routes.
// POST /test/sessions.
func (h *handler) createSession(c echo.Context) error {
	var req createSessionRequest
	if err := c.Bind(&req); err != nil {
		return errors.WithStack(err)
	}

	token, err := h.authService.GenerateToken(req.ExternalID, req.Email)
	if err != nil {
		return errors.Wrap(err, "failed to generate token")
	}

	c.SetCookie(&http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
	})

	return errors.WithStack(c.JSON(http.StatusCreated, createSessionResponse{Token: token}))
}

// deleteAllUsersResponse is the response body for deleting all users.
type deleteAllUsersResponse struct {
	Deleted int `json:"deleted"`
}

// deleteAllUsers deletes every user along with their books.
// DELETE /test/users.
func (h *handler) deleteAllUsers(c echo.Context) error {
	ctx := c.Request().Context()

	count, err := h.db.NewSelect().Model((*models.User)(nil)).Count(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	plan := &database.Plan{
		Name: "delete all users",
		Steps: []database.Step{
			database.DeleteStep(h.db, "reading_statuses", (*models.ReadingStatus)(nil), "1=1"),
			database.DeleteStep(h.db, "books", (*models.Book)(nil), "1=1"),
			database.DeleteStep(h.db, "users", (*models.User)(nil), "1=1"),
		},
	}
	if err := plan.Run(ctx); err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, deleteAllUsersResponse{
		Deleted: count,
	}))
}
