// Package auth is the chat engine's credential source. The login flow lives
// elsewhere; this package only carries the caller's bearer token through a
// request, optionally verifies it, and remembers tokens revoked at logout.
package auth

import (
	"context"
	"strings"

	"github.com/wolfman30/connectcom-support/pkg/logging"
)

type contextKey string

const tokenKey contextKey = "bearerToken"

// WithToken stores a bearer token on ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// TokenFromContext returns the bearer token stored by WithToken.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey).(string)
	if !ok || strings.TrimSpace(token) == "" {
		return "", false
	}
	return token, true
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// ContextCredentials reads the token from the request context and treats
// revoked tokens as absent. It satisfies chat.CredentialProvider.
type ContextCredentials struct {
	revoked RevocationStore
	logger  *logging.Logger
}

func NewContextCredentials(revoked RevocationStore, logger *logging.Logger) *ContextCredentials {
	if logger == nil {
		logger = logging.Default()
	}
	return &ContextCredentials{revoked: revoked, logger: logger}
}

func (c *ContextCredentials) Credential(ctx context.Context) (string, bool) {
	token, ok := TokenFromContext(ctx)
	if !ok {
		return "", false
	}
	if c.revoked != nil {
		revoked, err := c.revoked.IsRevoked(ctx, token)
		if err != nil {
			// Fail closed: an unreadable store logs the user out.
			c.logger.Error("auth: revocation lookup failed", "error", err)
			return "", false
		}
		if revoked {
			return "", false
		}
	}
	return token, true
}
