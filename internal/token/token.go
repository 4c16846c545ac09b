// Package token issues and verifies the signed session tokens carried in the
// Authorization header. Revocation is not handled here: the auth middleware
// compares the presented token against the one stored on the user row.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/selimdoruk/account-backend/internal/models"
)

var (
	ErrMissingSecret = errors.New("JWT signing secret is not configured")
	ErrInvalidToken  = errors.New("invalid or expired token")
)

type Claims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

type Issuer struct {
	secret []byte
	expiry time.Duration
}

func NewIssuer(secret string, expiry time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	return &Issuer{secret: []byte(secret), expiry: expiry}, nil
}

// Issue signs an HS256 token carrying the user id and role.
func (i *Issuer) Issue(userID uuid.UUID, role models.Role) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: userID.String(),
			// Unique per token so back-to-back logins never mint the
			// same string; the stored-token comparison depends on it.
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.expiry)),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, rejecting expired, malformed, or
// badly-signed input.
func (i *Issuer) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// UserID parses the subject claim back into a user id.
func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}
