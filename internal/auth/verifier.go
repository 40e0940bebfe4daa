package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier checks HMAC-signed portal tokens.
type Verifier struct {
	secret []byte
}

// NewVerifier returns nil when secret is empty, meaning tokens are passed
// through unverified.
func NewVerifier(secret string) *Verifier {
	if secret == "" {
		return nil
	}
	return &Verifier{secret: []byte(secret)}
}

// Verify parses token and returns its claims.
func (v *Verifier) Verify(token string) (jwt.RegisteredClaims, error) {
	claims := jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return v.secret, nil
	})
	if err != nil {
		return jwt.RegisteredClaims{}, fmt.Errorf("auth: invalid token: %w", err)
	}
	if !parsed.Valid {
		return jwt.RegisteredClaims{}, errors.New("auth: invalid token")
	}
	return claims, nil
}

// Sign issues a token for subject. Used by tests and local tooling.
func (v *Verifier) Sign(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// RemainingLifetime is how long a revocation entry must outlive the token.
func RemainingLifetime(claims jwt.RegisteredClaims, fallback time.Duration) time.Duration {
	if claims.ExpiresAt == nil {
		return fallback
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return time.Second
	}
	return ttl
}
