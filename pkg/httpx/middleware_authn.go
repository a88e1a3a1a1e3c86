package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/realmguard/pkg/slogx"
)

// VerifyFunc resolves a bearer token. It may return a derived context
// carrying application specific values alongside the Principal.
type VerifyFunc func(ctx context.Context, token string) (context.Context, Principal, error)

// ErrorFunc writes the response for a failed verification.
type ErrorFunc func(w http.ResponseWriter, r *http.Request, err error)

// AuthnMiddleware requires a bearer token and injects the verified
// Principal into the request context. Without onError every verification
// failure is a 401.
func AuthnMiddleware(verify VerifyFunc, onError ErrorFunc) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw, ok := BearerToken(r)
			if !ok {
				WriteBearerError(w, "missing bearer token")
				return
			}

			ctx, p, err := verify(ctx, raw)
			if err != nil {
				log.Debug("bearer verification failed", "err", err)
				if onError != nil {
					onError(w, r, err)
					return
				}
				WriteBearerError(w, "token verification failed")
				return
			}

			// Inject into context for downstream handlers.
			ctx = ContextWithPrincipal(ctx, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from an RFC 6750 Authorization header.
func BearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	scheme, raw, found := strings.Cut(authz, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

// WriteBearerError writes an RFC 6750-compliant invalid_token response.
func WriteBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteError(w, http.StatusUnauthorized, "unauthenticated", "Unauthenticated.")
}
