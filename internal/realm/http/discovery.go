package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aussiebroadwan/realmguard/internal/realm/service"
	"github.com/aussiebroadwan/realmguard/pkg/httpx"
	"github.com/aussiebroadwan/realmguard/pkg/realmsdk"
)

// DiscoveryHandler resolves a tenant slug for the login screen. Tenants
// that do not currently accept logins are reported as not found.
//
//	@Summary	Discover a tenant by slug
//	@Tags		Authentication
//	@Produce	json
//	@Param		slug	path		string	true	"Tenant slug"
//	@Success	200		{object}	realmsdk.TenantSummary
//	@Failure	404		{object}	realmsdk.APIError
//	@Router		/auth/tenants/{slug} [get]
func DiscoveryHandler(p *service.ProvisioningService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant, err := p.DiscoverTenant(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, realmsdk.TenantSummary{
			ID:   tenant.ID,
			Name: tenant.Name,
			Slug: tenant.Slug,
		})
	}
}
