// Package auth issues and validates the bearer tokens that identify callers.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/smartevent/internal/model"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token payload. Subject carries the user id.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
	jwt.RegisteredClaims
}

// UserID returns the subject of the token.
func (c *Claims) UserID() string {
	return c.Subject
}

// Issuer signs HS256 tokens for users and validates them on the way back in.
type Issuer struct {
	secret   []byte
	expiry   time.Duration
	issuer   string
	audience string
	now      func() time.Time
}

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
)

func NewIssuer(secret string, expiry time.Duration, issuer, audience string) *Issuer {
	return &Issuer{
		secret:   []byte(secret),
		expiry:   expiry,
		issuer:   issuer,
		audience: audience,
		now:      time.Now,
	}
}

// Issue returns a signed token for u.
func (i *Issuer) Issue(u *model.User) (string, error) {
	if u == nil || u.ID == "" {
		return "", ErrInvalidToken
	}

	now := i.now()
	claims := &Claims{
		Email: u.Email,
		Name:  u.Name,
		Role:  RoleFor(u),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.expiry)),
		},
	}
	if i.audience != "" {
		claims.Audience = jwt.ClaimStrings{i.audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Validate parses tokenString and checks signature, algorithm, issuer,
// audience and expiry.
func (i *Issuer) Validate(tokenString string) (*Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, ErrMissingToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	}
	if i.audience != "" {
		opts = append(opts, jwt.WithAudience(i.audience))
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return i.secret, nil
	}, opts...)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	claims.Role = NormalizeRole(string(claims.Role))
	return claims, nil
}

// TokenFromHeader extracts the token from an "Authorization: Bearer" value.
func TokenFromHeader(authHeader string) (string, error) {
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(parts[1]), nil
}
