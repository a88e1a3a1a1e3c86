package httpx

import (
	"net/http"
	"strings"
)

// RequireAnyAbility admits callers holding at least one of required.
func RequireAnyAbility(required ...string) Middleware {
	return requireAbilities(required, func(have map[string]struct{}) bool {
		for _, a := range required {
			if _, ok := have[a]; ok {
				return true
			}
		}
		return false
	})
}

// RequireAllAbilities admits callers holding every one of required.
func RequireAllAbilities(required ...string) Middleware {
	return requireAbilities(required, func(have map[string]struct{}) bool {
		for _, a := range required {
			if _, ok := have[a]; !ok {
				return false
			}
		}
		return true
	})
}

func requireAbilities(required []string, allowed func(have map[string]struct{}) bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			granted := abilitiesFromCtx(r.Context())
			have := make(map[string]struct{}, len(granted))
			for _, a := range granted {
				have[a] = struct{}{}
			}
			if !allowed(have) {
				WriteInsufficientAbility(w, required...)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WriteInsufficientAbility writes a 403 in the RFC 6750 insufficient_scope form.
func WriteInsufficientAbility(w http.ResponseWriter, required ...string) {
	w.Header().
		Set("WWW-Authenticate", `Bearer error="insufficient_scope", scope="`+strings.Join(required, " ")+`"`)
	WriteError(w, http.StatusForbidden, "forbidden", "This action is unauthorized.")
}
