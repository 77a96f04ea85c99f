package books

import (
	"net/http"

	"github.com/hondana/hondana/pkg/auth"
	"github.com/hondana/hondana/pkg/errcodes"
	"github.com/hondana/hondana/pkg/models"
	"github.com/hondana/hondana/pkg/users"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	bookService *Service
	userService *users.Service
}

// owner resolves the local user of the session. Before the user has been
// materialized it reports not found.
func (h *handler) owner(c echo.Context) (*models.User, error) {
	principal, ok := auth.PrincipalFromEchoContext(c)
	if !ok {
		return nil, errcodes.Unauthorized("Authentication required")
	}

	return h.userService.Retrieve(c.Request().Context(), users.RetrieveUserOptions{ExternalID: &principal.ExternalID})
}

// ownerOfBook is like owner, except that a missing user hides the book.
func (h *handler) ownerOfBook(c echo.Context) (*models.User, error) {
	user, err := h.owner(c)
	if errcodes.HasCode(err, errcodes.CodeNotFound) {
		return nil, errcodes.NotFound("Book")
	}
	return user, err
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	// Bind params.
	params := ListBooksQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	books := []*models.Book{}
	user, err := h.owner(c)
	switch {
	case err == nil:
		books, err = h.bookService.ListBooks(ctx, user.ID, ListBooksOptions{
			SearchText: params.Search,
			Status:     params.Status,
		})
		if err != nil {
			return errors.WithStack(err)
		}
	case errcodes.HasCode(err, errcodes.CodeNotFound):
		// nothing has been created yet
	default:
		return err
	}

	resp := struct {
		Books []*models.Book `json:"books"`
		Total int            `json:"total"`
	}{books, len(books)}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	principal, ok := auth.PrincipalFromEchoContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	user, err := h.userService.EnsureUser(ctx, principal.ExternalID, principal.Email)
	if err != nil {
		return err
	}

	book, err := h.bookService.CreateBook(ctx, user.ID, CreateBookOptions(params))
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusCreated, book))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := h.ownerOfBook(c)
	if err != nil {
		return err
	}

	book, err := h.bookService.RetrieveBook(ctx, c.Param("id"), user.ID)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, book))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()

	params := UpdateBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.ownerOfBook(c)
	if err != nil {
		return err
	}

	book, err := h.bookService.UpdateBook(ctx, c.Param("id"), user.ID, UpdateBookOptions(params))
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, book))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := h.ownerOfBook(c)
	if err != nil {
		return err
	}

	if err := h.bookService.DeleteBook(ctx, c.Param("id"), user.ID); err != nil {
		return err
	}

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}

func (h *handler) setStatus(c echo.Context) error {
	ctx := c.Request().Context()

	params := SetStatusPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.ownerOfBook(c)
	if err != nil {
		return err
	}

	status, err := h.bookService.SetReadingStatus(ctx, c.Param("id"), user.ID, params.Status)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, status))
}

func (h *handler) setRating(c echo.Context) error {
	ctx := c.Request().Context()

	params := SetRatingPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.ownerOfBook(c)
	if err != nil {
		return err
	}

	status, err := h.bookService.SetRating(ctx, c.Param("id"), user.ID, params.Rating)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, status))
}

func (h *handler) openReview(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := h.ownerOfBook(c)
	if err != nil {
		return err
	}

	book, err := h.bookService.OpenReview(ctx, c.Param("id"), user.ID)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, book))
}

func (h *handler) setReview(c echo.Context) error {
	ctx := c.Request().Context()

	params := SetReviewPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.ownerOfBook(c)
	if err != nil {
		return err
	}

	status, err := h.bookService.SetReview(ctx, c.Param("id"), user.ID, SetReviewOptions(params))
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, status))
}
