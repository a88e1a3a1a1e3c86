package http

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"

	"github.com/aussiebroadwan/realmguard/internal/realm/service"
	"github.com/aussiebroadwan/realmguard/pkg/httpx"
	"github.com/aussiebroadwan/realmguard/pkg/realmsdk"
	"github.com/aussiebroadwan/realmguard/pkg/slogx"
)

const invalidCredentialsMessage = "These credentials do not match our records."

// writeError maps a service error onto the HTTP error envelope. Unknown
// errors are logged and reported as a bare 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var rl *service.RateLimitedError
	switch {
	case errors.As(err, &rl):
		secs := max(int64(math.Ceil(rl.RetryAfter.Seconds())), 1)
		(&realmsdk.APIError{
			StatusCode: http.StatusTooManyRequests,
			Code:       realmsdk.CodeRateLimited,
			Message:    fmt.Sprintf("Too many login attempts. Please try again in %d seconds.", secs),
			RetryAfter: rl.RetryAfter,
		}).WriteError(w)

	case errors.Is(err, service.ErrInvalidCredentials):
		apiError(w, http.StatusUnprocessableEntity, realmsdk.CodeInvalidCredentials, invalidCredentialsMessage)

	case errors.Is(err, service.ErrUnauthenticated):
		httpx.WriteBearerError(w, "the credential is missing, invalid, expired or revoked")

	case errors.Is(err, service.ErrForbidden):
		httpx.WriteInsufficientAbility(w)

	case errors.Is(err, service.ErrUnavailable):
		slogx.FromContext(r.Context()).Error("store unavailable", slog.Any("error", err))
		apiError(w, http.StatusServiceUnavailable, realmsdk.CodeUnavailable, "Service temporarily unavailable.")

	case errors.Is(err, service.ErrInvalidInput):
		apiError(w, http.StatusUnprocessableEntity, realmsdk.CodeValidation, err.Error())

	case errors.Is(err, service.ErrCrossTenantRole):
		apiError(w, http.StatusUnprocessableEntity, realmsdk.CodeCrossTenantRole, "The role belongs to another tenant.")

	case errors.Is(err, service.ErrCrossRealmRole):
		apiError(w, http.StatusUnprocessableEntity, realmsdk.CodeCrossRealmRole, "The role belongs to another realm.")

	case errors.Is(err, service.ErrDuplicate):
		apiError(w, http.StatusConflict, realmsdk.CodeConflict, "The resource already exists.")

	case errors.Is(err, service.ErrNotFound):
		apiError(w, http.StatusNotFound, realmsdk.CodeNotFound, "The resource was not found.")

	case errors.Is(err, service.ErrBootstrapDisabled):
		apiError(w, http.StatusNotFound, realmsdk.CodeNotFound, "Bootstrap endpoint is not enabled.")

	case errors.Is(err, service.ErrBootstrapUnauthorized):
		apiError(w, http.StatusUnauthorized, realmsdk.CodeUnauthenticated, "Invalid bootstrap token.")

	case errors.Is(err, service.ErrBootstrapAlready):
		apiError(w, http.StatusConflict, realmsdk.CodeConflict, "System has already been bootstrapped.")

	default:
		slogx.FromContext(r.Context()).Error("unhandled error", slog.Any("error", err))
		apiError(w, http.StatusInternalServerError, realmsdk.CodeServerError, "An internal error occurred.")
	}
}

func apiError(w http.ResponseWriter, status int, code, message string) {
	(&realmsdk.APIError{StatusCode: status, Code: code, Message: message}).WriteError(w)
}
