package http

import (
	"net/http"

	"github.com/aussiebroadwan/realmguard/internal/realm/service"
)

// TenantHandler serves tenant-realm data. The tenant always comes from the
// credential; headers, query strings and bodies cannot change it.
type TenantHandler struct {
	Provisioning *service.ProvisioningService
}

// HandleListUsers
//
//	@Summary		List users of the caller's tenant
//	@Description	Scoped by the tenant that issued the credential. X-Tenant-ID and similar hints are ignored.
//	@Tags			Tenant
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	realmsdk.UserList
//	@Failure		401	{object}	realmsdk.APIError
//	@Failure		403	{object}	realmsdk.APIError
//	@Router			/v1/tenant/users [get]
func (h *TenantHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFromContext(r.Context())
	f, ok := id.TenantFilter()
	if !ok {
		writeError(w, r, service.ErrForbidden)
		return
	}

	users, err := h.Provisioning.ListTenantUsers(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeUserList(w, users)
}
