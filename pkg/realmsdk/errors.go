package realmsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/aussiebroadwan/realmguard/pkg/httpx"
)

// Error codes carried in the "code" field of every error body.
const (
	CodeInvalidCredentials = "invalid_credentials"
	CodeRateLimited        = "rate_limited"
	CodeUnauthenticated    = "unauthenticated"
	CodeForbidden          = "forbidden"
	CodeUnavailable        = "unavailable"
	CodeValidation         = "validation_error"
	CodeInvalidRequest     = "invalid_request"
	CodeConflict           = "conflict"
	CodeNotFound           = "not_found"
	CodeCrossTenantRole    = "cross_tenant_role"
	CodeCrossRealmRole     = "cross_realm_role"
	CodeServerError        = "server_error"
)

// APIError is an error response from the service. The server uses it to
// write responses and the client returns it for every non-2xx status.
type APIError struct {
	StatusCode int               `json:"-"`
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Fields     map[string]string `json:"fields,omitempty"`
	RetryAfter time.Duration     `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// WriteError writes e as a JSON response. Rate limited errors set
// Retry-After in whole seconds, never less than one.
func (e *APIError) WriteError(w http.ResponseWriter) {
	if e.RetryAfter > 0 {
		secs := int64((e.RetryAfter + time.Second - 1) / time.Second)
		w.Header().Set("Retry-After", strconv.FormatInt(max(secs, 1), 10))
	}
	httpx.WriteJSON(w, e.StatusCode, httpx.ErrorBody{
		Code:    e.Code,
		Message: e.Message,
		Fields:  e.Fields,
	})
}

// IsCode reports whether err is an *APIError with the given code.
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// parseErrorResponse turns a non-2xx response into an *APIError.
func parseErrorResponse(resp *http.Response, body []byte) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var eb httpx.ErrorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Code != "" {
		apiErr.Code = eb.Code
		apiErr.Message = eb.Message
		apiErr.Fields = eb.Fields
	} else {
		apiErr.Code = CodeServerError
		apiErr.Message = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			apiErr.RetryAfter = time.Duration(secs) * time.Second
		}
	}
	return apiErr
}
