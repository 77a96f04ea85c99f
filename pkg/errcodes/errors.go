package errcodes

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeConflict              = "conflict"
	CodeDuplicateUser         = "duplicate_user"
	CodeInvalidWebhook        = "invalid_webhook"
	CodeMissingEmail          = "missing_email"
	CodeMissingWebhookHeaders = "missing_webhook_headers"
	CodeNotFound              = "not_found"
	CodeStatusNotFound        = "status_not_found"
	CodeUnauthorized          = "unauthorized"
	CodeUserNotFound          = "user_not_found"
	CodeValidationError       = "validation_error"
)

type Error struct {
	HTTPCode int
	Message  string
	Code     string
}

func (err *Error) Error() string {
	return err.Message
}

func (err *Error) As(target interface{}) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	te.HTTPCode = err.HTTPCode
	te.Message = err.Message
	te.Code = err.Code
	return true
}

func (err *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return te.HTTPCode == err.HTTPCode &&
		te.Message == err.Message &&
		te.Code == err.Code
}

// HasCode reports whether err, or any error it wraps, is an *Error with the
// given code.
func HasCode(err error, code string) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == code
}

// Forbidden returns a 403 error with a message indicating the action is
// forbidden.
func Forbidden(action string) error {
	return &Error{
		http.StatusForbidden,
		action + " is not allowed.",
		"forbidden",
	}
}

// NotFound returns a 404 error with a message indicating the given resource.
func NotFound(resource string) error {
	return &Error{
		http.StatusNotFound,
		resource + " not found.",
		CodeNotFound,
	}
}

func UnsupportedMediaType() error {
	return &Error{
		http.StatusUnsupportedMediaType,
		"Unsupported Media Type",
		"unsupported_media_type",
	}
}

func UnknownParameter(param string) error {
	return &Error{
		http.StatusUnprocessableEntity,
		fmt.Sprintf("Unknown Parameter %q", param),
		"unknown_parameter",
	}
}

func ValidationTypeError(msg string) error {
	return &Error{
		http.StatusUnprocessableEntity,
		msg,
		"validation_type_error",
	}
}

func ValidationError(msg string) error {
	return &Error{
		http.StatusUnprocessableEntity,
		msg,
		CodeValidationError,
	}
}

func MalformedPayload() error {
	return &Error{
		http.StatusBadRequest,
		"Malformed Payload",
		"malformed_payload",
	}
}

func EmptyRequestBody() error {
	return &Error{
		http.StatusBadRequest,
		"Request body can't be empty.",
		"empty_request_body",
	}
}

// Unauthorized returns a 401 error for requests without a valid session.
func Unauthorized(msg string) error {
	return &Error{
		http.StatusUnauthorized,
		msg,
		CodeUnauthorized,
	}
}

// Conflict returns a 409 error when a unique value is already taken.
func Conflict(resource string) error {
	return &Error{
		http.StatusConflict,
		resource + " already exists.",
		CodeConflict,
	}
}

// DuplicateUser is returned when an identity is materialized twice. Webhook
// replays produce it routinely.
func DuplicateUser(externalID string) error {
	return &Error{
		http.StatusConflict,
		fmt.Sprintf("User with external id %q already exists.", externalID),
		CodeDuplicateUser,
	}
}

// UserNotFound is returned when no local user matches an external id.
func UserNotFound(externalID string) error {
	return &Error{
		http.StatusNotFound,
		fmt.Sprintf("User with external id %q not found.", externalID),
		CodeUserNotFound,
	}
}

// MissingEmail is returned when an identity event carries no usable email.
func MissingEmail() error {
	return &Error{
		http.StatusUnprocessableEntity,
		"Identity has no email address.",
		CodeMissingEmail,
	}
}

// StatusNotFound is returned when a book has no reading status yet.
func StatusNotFound() error {
	return &Error{
		http.StatusNotFound,
		"Reading status not found.",
		CodeStatusNotFound,
	}
}

func MissingWebhookHeaders() error {
	return &Error{
		http.StatusBadRequest,
		"Missing webhook signature headers.",
		CodeMissingWebhookHeaders,
	}
}

func InvalidWebhook() error {
	return &Error{
		http.StatusBadRequest,
		"Invalid webhook signature.",
		CodeInvalidWebhook,
	}
}
