package errcodes

import (
	"fmt"
	"net/http"

	"github.com/iancoleman/strcase"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	echologger "github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/errutils"
)

// Body is the JSON shape of every error response.
type Body struct {
	Error Detail `json:"error"`
}

type Detail struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// Handle is an Echo error handler. Errors built by this package keep their
// status and code, Echo errors keep their status, and anything else is a 500.
func (h *Handler) Handle(err error, c echo.Context) {
	log := echologger.FromEchoContext(c)

	if errutils.IsIgnorableErr(err) {
		log.Err(err).Warn("broken pipe")
		return
	}
	if c.Response().Committed {
		log.Err(err).Warn("error after response was committed")
		return
	}

	body := render(err)

	if body.Error.StatusCode == http.StatusInternalServerError {
		log.Err(err).Error("server error", logger.Data{
			"method": c.Request().Method,
			"path":   c.Path(),
		})
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(body.Error.StatusCode)
	} else {
		err = c.JSON(body.Error.StatusCode, body)
	}
	if err != nil {
		log.Err(errors.WithStack(err)).Error("error handler json error")
	}
}

func render(err error) Body {
	detail := Detail{StatusCode: http.StatusInternalServerError}

	var e *Error
	var he *echo.HTTPError
	switch {
	case errors.As(err, &e):
		detail = Detail{Code: e.Code, Message: e.Message, StatusCode: e.HTTPCode}
	case errors.As(err, &he):
		msg, ok := he.Message.(string)
		if !ok {
			msg = fmt.Sprint(he.Message)
		}
		detail = Detail{Code: strcase.ToSnake(msg), Message: msg, StatusCode: he.Code}
	}

	if detail.StatusCode == http.StatusInternalServerError && detail.Message == "" {
		detail.Code = "internal_server_error"
		detail.Message = "Internal Server Error"
	}

	return Body{Error: detail}
}
