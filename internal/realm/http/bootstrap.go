package http

import (
	"net/http"

	"github.com/aussiebroadwan/realmguard/internal/realm/service"
	"github.com/aussiebroadwan/realmguard/pkg/httpx"
	"github.com/aussiebroadwan/realmguard/pkg/realmsdk"
	"github.com/aussiebroadwan/realmguard/pkg/slogx"
)

type BootstrapHandler struct {
	BootstrapService *service.BootstrapService
}

// ServeHTTP handles the bootstrap endpoint for initial system setup.
//
//	@Summary		Bootstrap the platform realm
//	@Description	Creates the first platform account and the platform-admin role. Only available when a bootstrap token is configured and no platform account exists.
//	@Tags			Bootstrap
//	@Accept			json
//	@Produce		json
//	@Param			X-Bootstrap-Token	header		string						true	"Bootstrap token"
//	@Param			request				body		realmsdk.BootstrapRequest	true	"First platform account"
//	@Success		201					{object}	realmsdk.BootstrapResponse
//	@Failure		401					{object}	realmsdk.APIError	"Missing or invalid bootstrap token"
//	@Failure		404					{object}	realmsdk.APIError	"Bootstrap not enabled"
//	@Failure		409					{object}	realmsdk.APIError	"Already bootstrapped"
//	@Failure		422					{object}	realmsdk.APIError	"Validation failure"
//	@Router			/v1/bootstrap [post]
func (h *BootstrapHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	l := slogx.FromContext(r.Context())

	// 1. Check if enabled
	if h.BootstrapService.Token == "" {
		writeError(w, r, service.ErrBootstrapDisabled)
		return
	}

	// 2. Require bootstrap token header
	token := r.Header.Get(realmsdk.BootstrapTokenHeader)
	if token == "" {
		writeError(w, r, service.ErrBootstrapUnauthorized)
		return
	}

	// 3. Parse request body and validate
	var req realmsdk.BootstrapRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	// 4. Perform bootstrap
	account, role, err := h.BootstrapService.Bootstrap(r.Context(), token, service.BootstrapInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	l.Info("platform bootstrapped", "account_id", account.ID)
	httpx.WriteJSON(w, http.StatusCreated, realmsdk.BootstrapResponse{
		AccountID: account.ID,
		RoleID:    role.ID,
	})
}
