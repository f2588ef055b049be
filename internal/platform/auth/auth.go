// Package auth resolves the calling user for HTTP requests.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingCredentials = errors.New("missing credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// Identity is the authenticated caller.
type Identity struct {
	UserID   string
	Username string
}

type Authenticator interface {
	Authenticate(r *http.Request) (Identity, error)
}

// Claims carries the user identity inside an HS256 bearer token.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type JWTAuthenticator struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewJWTAuthenticator(secret string, issuer string) (*JWTAuthenticator, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &JWTAuthenticator{
		secret: []byte(secret),
		issuer: issuer,
		now:    time.Now,
	}, nil
}

func (a *JWTAuthenticator) Authenticate(r *http.Request) (Identity, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return Identity{}, ErrMissingCredentials
	}
	tokenString, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(tokenString) == "" {
		return Identity{}, ErrInvalidToken
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
	}
	if a.issuer != "" {
		options = append(options, jwt.WithIssuer(a.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(strings.TrimSpace(tokenString), claims, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, options...)
	if err != nil || !token.Valid {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{UserID: userID, Username: claims.Username}, nil
}

// IssueToken signs a token for identity valid for ttl.
func (a *JWTAuthenticator) IssueToken(identity Identity, ttl time.Duration) (string, error) {
	now := a.now().UTC()
	claims := Claims{
		UserID:   identity.UserID,
		Username: identity.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// HeaderAuthenticator trusts X-User-Id and X-Username. Development only.
type HeaderAuthenticator struct{}

func (HeaderAuthenticator) Authenticate(r *http.Request) (Identity, error) {
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		return Identity{}, ErrMissingCredentials
	}
	return Identity{
		UserID:   userID,
		Username: strings.TrimSpace(r.Header.Get("X-Username")),
	}, nil
}
