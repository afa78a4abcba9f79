// Package auth issues and verifies access tokens and carries the
// authenticated actor through request contexts.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/tripdesk/backend/internal/domain"
)

// Claims are the access token claims. Subject holds the user id.
type Claims struct {
	jwt.RegisteredClaims
	Role domain.Role `json:"role"`
}

// Issuer signs and verifies HS256 access tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer returns an Issuer signing with secret. Tokens expire after ttl.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for the user. It returns the token and its expiry.
func (i *Issuer) Issue(userID uuid.UUID, role domain.Role) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(i.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Role: role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth.Issuer.Issue: %w", err)
	}
	return signed, exp, nil
}

// Verify parses token and returns the actor it identifies.
// Any failure is reported as domain.ErrUnauthenticated.
func (i *Issuer) Verify(token string) (Actor, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil || !parsed.Valid {
		var vErr *jwt.ValidationError
		if errors.As(err, &vErr) && vErr.Errors&jwt.ValidationErrorExpired != 0 {
			return Actor{}, fmt.Errorf("%w: token expired", domain.ErrUnauthenticated)
		}
		return Actor{}, fmt.Errorf("%w: invalid token", domain.ErrUnauthenticated)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Actor{}, fmt.Errorf("%w: invalid subject", domain.ErrUnauthenticated)
	}
	return Actor{UserID: id, Role: claims.Role}, nil
}
