package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hondana/hondana/pkg/config"
	"github.com/hondana/hondana/pkg/errcodes"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	svc, err := NewService(config.NewForTest())
	require.NoError(t, err)
	return svc
}

func runAuthenticate(t *testing.T, svc *Service, req *http.Request) (*Principal, error) {
	t.Helper()

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var principal *Principal
	err := NewMiddleware(svc).Authenticate(func(c echo.Context) error {
		p, ok := PrincipalFromEchoContext(c)
		require.True(t, ok)
		fromCtx, ok := PrincipalFromContext(c.Request().Context())
		require.True(t, ok)
		assert.Equal(t, p, fromCtx)
		principal = p
		return nil
	})(c)
	return principal, err
}

func assertUnauthorized(t *testing.T, err error) {
	t.Helper()

	require.Error(t, err)
	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, errcodes.CodeUnauthorized, codeErr.Code)
	assert.Equal(t, http.StatusUnauthorized, codeErr.HTTPCode)
}

func TestMiddlewareAuthenticate(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	token, err := svc.GenerateToken("user_2abc", "frank@example.com")
	require.NoError(t, err)

	t.Run("accepts a bearer token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/books", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)

		principal, err := runAuthenticate(t, svc, req)
		require.NoError(t, err)
		assert.Equal(t, "user_2abc", principal.ExternalID)
		assert.Equal(t, "frank@example.com", principal.Email)
	})

	t.Run("accepts the session cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/books", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})

		principal, err := runAuthenticate(t, svc, req)
		require.NoError(t, err)
		assert.Equal(t, "user_2abc", principal.ExternalID)
	})

	t.Run("rejects a request without a token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/books", nil)

		principal, err := runAuthenticate(t, svc, req)
		assertUnauthorized(t, err)
		assert.Nil(t, principal)
	})

	t.Run("rejects a token signed with another secret", func(t *testing.T) {
		other := &Service{secret: []byte("another-secret")}
		forged, err := other.GenerateToken("user_2abc", "frank@example.com")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/books", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+forged)

		_, err = runAuthenticate(t, svc, req)
		assertUnauthorized(t, err)
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		claims := SessionClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "user_2abc",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
		}
		expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(svc.secret)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/books", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+expired)

		_, err = runAuthenticate(t, svc, req)
		assertUnauthorized(t, err)
	})

	t.Run("rejects a token without a subject", func(t *testing.T) {
		claims := SessionClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			},
		}
		anonymous, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(svc.secret)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/books", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+anonymous)

		_, err = runAuthenticate(t, svc, req)
		assertUnauthorized(t, err)
	})
}

func TestValidateToken_PublicKey(t *testing.T) {
	t.Parallel()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	cfg := config.NewForTest()
	cfg.SessionPublicKey = string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
	svc, err := NewService(cfg)
	require.NoError(t, err)

	claims := SessionClaims{
		Email: "frank@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user_2abc",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}

	t.Run("accepts RS256 tokens signed by the provider", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
		require.NoError(t, err)

		got, err := svc.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, "user_2abc", got.Subject)
		assert.Equal(t, "frank@example.com", got.Email)
	})

	t.Run("rejects HS256 tokens once a public key is configured", func(t *testing.T) {
		token, err := svc.GenerateToken("user_2abc", "frank@example.com")
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})
}

func TestNewService_InvalidPublicKey(t *testing.T) {
	t.Parallel()

	cfg := config.NewForTest()
	cfg.SessionPublicKey = "not a pem"
	_, err := NewService(cfg)
	assert.Error(t, err)
}
