package auth

import (
	"crypto/rsa"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hondana/hondana/pkg/config"
	"github.com/pkg/errors"
)

// TokenExpiry is how long tokens minted by GenerateToken are valid.
const TokenExpiry = 24 * time.Hour

// SessionClaims are the claims of an identity-provider session token. The
// subject is the external id of the account.
type SessionClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Service validates session tokens issued by the identity provider.
type Service struct {
	publicKey *rsa.PublicKey
	secret    []byte
}

// NewService creates a new auth service. When a public key is configured,
// tokens must be RS256; otherwise they must be HS256 with the shared secret.
func NewService(cfg *config.Config) (*Service, error) {
	svc := &Service{secret: []byte(cfg.SessionSecret)}
	if cfg.SessionPublicKey != "" {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.SessionPublicKey))
		if err != nil {
			return nil, errors.Wrap(err, "invalid session public key")
		}
		svc.publicKey = key
	}
	return svc, nil
}

// GenerateToken creates an HS256 session token for the given account. It's
// only used by tests and the test-only routes, since real sessions are issued
// by the identity provider.
func (s *Service) GenerateToken(externalID, email string) (string, error) {
	if len(s.secret) == 0 {
		return "", errors.New("session secret isn't configured")
	}

	now := time.Now()
	claims := SessionClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   externalID,
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(s.secret)
	if err != nil {
		return "", errors.WithStack(err)
	}

	return signedToken, nil
}

// ValidateToken validates a session token and returns its claims.
func (s *Service) ValidateToken(tokenString string) (*SessionClaims, error) {
	method := jwt.SigningMethodHS256.Alg()
	if s.publicKey != nil {
		method = jwt.SigningMethodRS256.Alg()
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(_ *jwt.Token) (interface{}, error) {
		if s.publicKey != nil {
			return s.publicKey, nil
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{method}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, errors.WithStack(err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}

	return claims, nil
}
