package middleware

import (
	"net/http"

	"github.com/wolfman30/connectcom-support/internal/auth"
	"github.com/wolfman30/connectcom-support/pkg/logging"
)

// accessTokenParam carries the token on WebSocket upgrades, where browsers
// cannot set an Authorization header.
const accessTokenParam = "access_token"

// Credentials attaches the caller's bearer token to the request context.
// It never rejects a request: a missing or invalid token simply leaves the
// context without one, and the chat engine answers "authentication
// required". With a nil verifier tokens are passed through unverified.
func Credentials(verifier *auth.Verifier, logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := auth.BearerToken(r.Header.Get("Authorization"))
			if !ok {
				token = r.URL.Query().Get(accessTokenParam)
				ok = token != ""
			}
			if ok && verifier != nil {
				if _, err := verifier.Verify(token); err != nil {
					logger.Debug("credentials: rejecting token", "error", err, "path", r.URL.Path)
					ok = false
				}
			}
			if ok {
				r = r.WithContext(auth.WithToken(r.Context(), token))
			}
			next.ServeHTTP(w, r)
		})
	}
}
