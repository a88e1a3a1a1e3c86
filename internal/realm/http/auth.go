package http

import (
	"net/http"

	"github.com/aussiebroadwan/realmguard/internal/realm/domain"
	"github.com/aussiebroadwan/realmguard/internal/realm/service"
	"github.com/aussiebroadwan/realmguard/pkg/httpx"
	"github.com/aussiebroadwan/realmguard/pkg/realmsdk"
)

// AuthHandler serves /auth/{realm}/*. One instance is bound to one realm.
type AuthHandler struct {
	Realm         domain.Realm
	Authenticator *service.Authenticator
	Ledger        *service.RevocationLedger
}

// HandleLogin authenticates against the handler's realm.
//
//	@Summary		Log in to a realm
//	@Description	Validates the secret against exactly one realm and issues an opaque bearer credential scoped to it.
//	@Description	Tenant logins require tenant_id or tenant_slug. Every failure reason yields the same 422 response.
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			realm	path		string					true	"platform or tenant"
//	@Param			request	body		realmsdk.LoginRequest	true	"Login request"
//	@Success		200		{object}	realmsdk.LoginResponse
//	@Failure		422		{object}	realmsdk.APIError	"Invalid credentials or validation failure"
//	@Failure		429		{object}	realmsdk.APIError	"Throttled, see Retry-After"
//	@Failure		503		{object}	realmsdk.APIError	"Store unavailable"
//	@Router			/auth/{realm}/login [post]
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req realmsdk.LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	login := service.LoginRequest{
		Realm:    h.Realm,
		Email:    req.Email,
		Password: req.Password,
		Client:   httpx.IPKeyExtractor(r),
	}
	if h.Realm == domain.RealmTenant {
		if req.TenantID == "" && req.TenantSlug == "" {
			writeValidationError(w, map[string]string{"tenant_id": "tenant_id or tenant_slug is required"})
			return
		}
		login.TenantID = req.TenantID
		login.TenantSlug = req.TenantSlug
	}

	res, err := h.Authenticator.Login(r.Context(), login)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, realmsdk.LoginResponse{
		TokenResponse: tokenResponse(res.Token, res.Credential),
		User:          identityUser(res.Identity),
		Tenant:        tenantPtr(res.Tenant),
	})
}

// HandleLogout revokes the presented credential only.
//
//	@Summary	Log out
//	@Tags		Authentication
//	@Produce	json
//	@Security	BearerAuth
//	@Param		realm	path		string	true	"platform or tenant"
//	@Success	200		{object}	realmsdk.MessageResponse
//	@Failure	401		{object}	realmsdk.APIError
//	@Router		/auth/{realm}/logout [post]
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	raw, _ := httpx.BearerToken(r)
	if err := h.Ledger.Logout(r.Context(), raw, h.Realm); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, realmsdk.MessageResponse{Message: "Successfully logged out"})
}

// HandleMe returns the identity behind the credential.
//
//	@Summary	Current identity
//	@Tags		Authentication
//	@Produce	json
//	@Security	BearerAuth
//	@Param		realm	path		string	true	"platform or tenant"
//	@Success	200		{object}	realmsdk.MeResponse
//	@Failure	401		{object}	realmsdk.APIError
//	@Router		/auth/{realm}/me [get]
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFromContext(r.Context())

	p, err := h.Authenticator.Profile(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, realmsdk.MeResponse{
		Realm:     realmsdk.Realm(id.Realm),
		User:      identityUser(p.Identity),
		Tenant:    tenantPtr(p.Tenant),
		Abilities: nonNil(id.Abilities),
		ExpiresAt: id.ExpiresAt,
	})
}

// HandleValidate reports whether the credential is usable for this realm.
// Unusable credentials never reach it; the guard answers 401.
//
//	@Summary	Validate a credential
//	@Tags		Authentication
//	@Produce	json
//	@Security	BearerAuth
//	@Param		realm	path		string	true	"platform or tenant"
//	@Success	200		{object}	realmsdk.ValidateResponse
//	@Failure	401		{object}	realmsdk.APIError
//	@Router		/auth/{realm}/validate [get]
func (h *AuthHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFromContext(r.Context())

	resp := realmsdk.ValidateResponse{
		Valid:     true,
		Realm:     realmsdk.Realm(id.Realm),
		Subject:   id.OwnerID,
		ExpiresAt: id.ExpiresAt,
	}
	if f, ok := id.TenantFilter(); ok {
		resp.TenantID = f.TenantID()
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleRefresh rotates the credential, keeping its ability snapshot.
//
//	@Summary	Rotate a credential
//	@Tags		Authentication
//	@Produce	json
//	@Security	BearerAuth
//	@Param		realm	path		string	true	"platform or tenant"
//	@Success	200		{object}	realmsdk.TokenResponse
//	@Failure	401		{object}	realmsdk.APIError
//	@Router		/auth/{realm}/refresh [post]
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	raw, _ := httpx.BearerToken(r)

	token, cred, err := h.Ledger.Rotate(r.Context(), raw, h.Realm)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tokenResponse(token, cred))
}
