package httpx

import (
	"net/http"
	"strings"

	"github.com/brudebord/rsvp/pkg/slogx"
)

// SessionVerifier validates a bearer token and returns the admin ID it was
// issued to.
type SessionVerifier interface {
	VerifySession(token string) (adminID string, err error)
}

// AuthnMiddleware guards admin endpoints with bearer-token authentication.
func AuthnMiddleware(v SessionVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			authz := r.Header.Get("Authorization")
			if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
				writeBearerError(w, "missing bearer token")
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))

			adminID, err := v.VerifySession(raw)
			if err != nil {
				writeBearerError(w, "token verification failed")
				log.Warn("session verify failed", "err", err)
				return
			}

			// Inject into context for downstream handlers.
			next.ServeHTTP(w, r.WithContext(contextWithAdminID(ctx, adminID)))
		})
	}
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	w.WriteHeader(http.StatusUnauthorized)
}
