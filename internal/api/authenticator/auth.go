package authenticator

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taskforge/taskforge/internal/config"
	"github.com/taskforge/taskforge/internal/services/user"
)

const accessTokenTTL = 24 * time.Hour

var (
	ErrAuthDisabled = errors.New("authentication is not configured")
	ErrInvalidToken = errors.New("invalid access token")
)

// Claims is the access token payload. Subject carries the user id.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator issues and verifies HS256 access tokens. Auth is disabled
// when no secret is configured; the server then skips the token check
// entirely.
type Authenticator struct {
	secret      []byte
	authEnabled bool
}

func New(conf *config.Config) (*Authenticator, error) {
	if conf.AUTH_SECRET == "" {
		return &Authenticator{authEnabled: false}, nil
	}

	return &Authenticator{
		secret:      []byte(conf.AUTH_SECRET),
		authEnabled: true,
	}, nil
}

func (a *Authenticator) AuthEnabled() bool {
	return a.authEnabled
}

// IssueAccessToken signs a token for an authenticated user.
func (a *Authenticator) IssueAccessToken(u *user.User) (string, error) {
	if !a.authEnabled {
		return "", ErrAuthDisabled
	}

	now := time.Now().UTC()
	claims := Claims{
		Username: u.Username(),
		Role:     string(u.Role()),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(accessTokenTTL)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// VerifyAccessToken parses and validates a token, returning its claims.
func (a *Authenticator) VerifyAccessToken(_ context.Context, token string) (*Claims, error) {
	if !a.authEnabled {
		return nil, ErrAuthDisabled
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
