package auth

import (
	"context"
	"strings"

	"github.com/hondana/hondana/pkg/errcodes"
	"github.com/labstack/echo/v4"
	"github.com/robinjoseph08/golib/logger"
)

// SessionCookieName is the cookie the identity provider's frontend SDK stores
// the session token in.
const SessionCookieName = "__session"

const principalKey = "principal"

type contextKey struct{}

// Principal is the authenticated identity of a request. It refers to the
// identity-provider account; the local user may not exist yet.
type Principal struct {
	ExternalID string
	Email      string
}

// Middleware provides authentication middleware.
type Middleware struct {
	authService *Service
}

// NewMiddleware creates a new auth middleware.
func NewMiddleware(authService *Service) *Middleware {
	return &Middleware{
		authService: authService,
	}
}

// Authenticate validates the session token from the Authorization header or
// the session cookie and stores the principal in the context. If not
// authenticated, it returns 401.
func (m *Middleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := tokenFromRequest(c)
		if token == "" {
			return errcodes.Unauthorized("Authentication required")
		}

		claims, err := m.authService.ValidateToken(token)
		if err != nil {
			log := logger.FromContext(c.Request().Context())
			log.Debug("rejected session token", logger.Data{"error": err.Error()})
			return errcodes.Unauthorized("Invalid or expired token")
		}

		principal := &Principal{
			ExternalID: claims.Subject,
			Email:      claims.Email,
		}
		c.Set(principalKey, principal)
		req := c.Request()
		c.SetRequest(req.WithContext(context.WithValue(req.Context(), contextKey{}, principal)))

		return next(c)
	}
}

func tokenFromRequest(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}

	cookie, err := c.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// PrincipalFromEchoContext retrieves the principal set by Authenticate.
func PrincipalFromEchoContext(c echo.Context) (*Principal, bool) {
	principal, ok := c.Get(principalKey).(*Principal)
	return principal, ok
}

// PrincipalFromContext retrieves the principal from a request context.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	principal, ok := ctx.Value(contextKey{}).(*Principal)
	return principal, ok
}
