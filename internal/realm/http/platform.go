package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aussiebroadwan/realmguard/internal/realm/domain"
	"github.com/aussiebroadwan/realmguard/internal/realm/service"
	"github.com/aussiebroadwan/realmguard/pkg/httpx"
	"github.com/aussiebroadwan/realmguard/pkg/realmsdk"
)

// PlatformHandler serves the provisioning API under /v1/platform. Every
// route sits behind the platform realm guard.
type PlatformHandler struct {
	Provisioning *service.ProvisioningService
}

func actor(r *http.Request) domain.VerifiedIdentity {
	id, _ := identityFromContext(r.Context())
	return id
}

// HandleCreateTenant
//
//	@Summary	Create a tenant
//	@Tags		Platform
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		request	body		realmsdk.CreateTenantRequest	true	"Tenant"
//	@Success	201		{object}	realmsdk.Tenant
//	@Failure	409		{object}	realmsdk.APIError	"Slug already taken"
//	@Failure	422		{object}	realmsdk.APIError
//	@Router		/v1/platform/tenants [post]
func (h *PlatformHandler) HandleCreateTenant(w http.ResponseWriter, r *http.Request) {
	var req realmsdk.CreateTenantRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	tenant, err := h.Provisioning.CreateTenant(r.Context(), service.CreateTenantInput{
		Name:               req.Name,
		Slug:               req.Slug,
		Status:             domain.Status(req.Status),
		SubscriptionStatus: domain.SubscriptionStatus(req.SubscriptionStatus),
		TrialEndsAt:        req.TrialEndsAt,
		SubscriptionEndsAt: req.SubscriptionEndsAt,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, tenantResource(tenant))
}

// HandleGetTenant
//
//	@Summary	Get a tenant
//	@Tags		Platform
//	@Produce	json
//	@Security	BearerAuth
//	@Param		tenantID	path		string	true	"Tenant ID"
//	@Success	200			{object}	realmsdk.Tenant
//	@Failure	404			{object}	realmsdk.APIError
//	@Router		/v1/platform/tenants/{tenantID} [get]
func (h *PlatformHandler) HandleGetTenant(w http.ResponseWriter, r *http.Request) {
	tenant, err := h.Provisioning.GetTenant(r.Context(), chi.URLParam(r, "tenantID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tenantResource(tenant))
}

// HandleUpdateTenant applies status and subscription changes.
//
//	@Summary	Update a tenant
//	@Tags		Platform
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		tenantID	path		string							true	"Tenant ID"
//	@Param		request		body		realmsdk.UpdateTenantRequest	true	"Changes"
//	@Success	200			{object}	realmsdk.Tenant
//	@Failure	404			{object}	realmsdk.APIError
//	@Failure	422			{object}	realmsdk.APIError
//	@Router		/v1/platform/tenants/{tenantID} [patch]
func (h *PlatformHandler) HandleUpdateTenant(w http.ResponseWriter, r *http.Request) {
	var req realmsdk.UpdateTenantRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	in := service.UpdateTenantInput{
		Name:               req.Name,
		TrialEndsAt:        req.TrialEndsAt,
		SubscriptionEndsAt: req.SubscriptionEndsAt,
	}
	if req.Status != nil {
		s := domain.Status(*req.Status)
		in.Status = &s
	}
	if req.SubscriptionStatus != nil {
		s := domain.SubscriptionStatus(*req.SubscriptionStatus)
		in.SubscriptionStatus = &s
	}

	tenant, err := h.Provisioning.UpdateTenant(r.Context(), chi.URLParam(r, "tenantID"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tenantResource(tenant))
}

// HandleCreateTenantRole
//
//	@Summary	Create a tenant role
//	@Tags		Platform
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		tenantID	path		string						true	"Tenant ID"
//	@Param		request		body		realmsdk.CreateRoleRequest	true	"Role"
//	@Success	201			{object}	realmsdk.Role
//	@Failure	409			{object}	realmsdk.APIError
//	@Router		/v1/platform/tenants/{tenantID}/roles [post]
func (h *PlatformHandler) HandleCreateTenantRole(w http.ResponseWriter, r *http.Request) {
	var req realmsdk.CreateRoleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	role, err := h.Provisioning.CreateTenantRole(r.Context(), actor(r), chi.URLParam(r, "tenantID"), service.CreateRoleInput{
		Slug:      req.Slug,
		Name:      req.Name,
		Abilities: req.Abilities,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, tenantRole(role))
}

// HandleCreateTenantUser
//
//	@Summary	Create a tenant user
//	@Tags		Platform
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		tenantID	path		string						true	"Tenant ID"
//	@Param		request		body		realmsdk.CreateUserRequest	true	"User"
//	@Success	201			{object}	realmsdk.User
//	@Failure	409			{object}	realmsdk.APIError	"Email already used in this tenant"
//	@Failure	422			{object}	realmsdk.APIError	"Validation failure or role from another tenant"
//	@Router		/v1/platform/tenants/{tenantID}/users [post]
func (h *PlatformHandler) HandleCreateTenantUser(w http.ResponseWriter, r *http.Request) {
	var req realmsdk.CreateUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.Provisioning.CreateTenantUser(r.Context(), actor(r), chi.URLParam(r, "tenantID"), identityInput(req))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, tenantUser(user))
}

// HandleListTenantUsers
//
//	@Summary	List the users of a tenant
//	@Tags		Platform
//	@Produce	json
//	@Security	BearerAuth
//	@Param		tenantID	path		string	true	"Tenant ID"
//	@Success	200			{object}	realmsdk.UserList
//	@Router		/v1/platform/tenants/{tenantID}/users [get]
func (h *PlatformHandler) HandleListTenantUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Provisioning.ListUsersOfTenant(r.Context(), actor(r), chi.URLParam(r, "tenantID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeUserList(w, users)
}

// HandleSetTenantUserStatus deactivating a user revokes all of their credentials.
//
//	@Summary	Change a tenant user's status
//	@Tags		Platform
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		tenantID	path		string						true	"Tenant ID"
//	@Param		userID		path		string						true	"User ID"
//	@Param		request		body		realmsdk.SetStatusRequest	true	"Status"
//	@Success	200			{object}	realmsdk.User
//	@Router		/v1/platform/tenants/{tenantID}/users/{userID}/status [put]
func (h *PlatformHandler) HandleSetTenantUserStatus(w http.ResponseWriter, r *http.Request) {
	var req realmsdk.SetStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.Provisioning.SetTenantUserStatus(r.Context(), actor(r),
		chi.URLParam(r, "tenantID"), chi.URLParam(r, "userID"), domain.Status(req.Status))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tenantUser(user))
}

// HandleAssignTenantRole
//
//	@Summary	Attach a role to a tenant user
//	@Tags		Platform
//	@Accept		json
//	@Security	BearerAuth
//	@Param		tenantID	path	string						true	"Tenant ID"
//	@Param		userID		path	string						true	"User ID"
//	@Param		request		body	realmsdk.AssignRoleRequest	true	"Role"
//	@Success	204
//	@Failure	422	{object}	realmsdk.APIError	"Role belongs to another tenant or realm"
//	@Router		/v1/platform/tenants/{tenantID}/users/{userID}/roles [post]
func (h *PlatformHandler) HandleAssignTenantRole(w http.ResponseWriter, r *http.Request) {
	var req realmsdk.AssignRoleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	err := h.Provisioning.AssignTenantRole(r.Context(), actor(r),
		chi.URLParam(r, "tenantID"), chi.URLParam(r, "userID"), req.RoleID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleCreateAccount
//
//	@Summary	Create a platform account
//	@Tags		Platform
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		request	body		realmsdk.CreateUserRequest	true	"Account"
//	@Success	201		{object}	realmsdk.User
//	@Router		/v1/platform/accounts [post]
func (h *PlatformHandler) HandleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req realmsdk.CreateUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	account, err := h.Provisioning.CreatePlatformAccount(r.Context(), identityInput(req))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, platformUser(account))
}

// HandleSetAccountStatus
//
//	@Summary	Change a platform account's status
//	@Tags		Platform
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		accountID	path		string						true	"Account ID"
//	@Param		request		body		realmsdk.SetStatusRequest	true	"Status"
//	@Success	200			{object}	realmsdk.User
//	@Router		/v1/platform/accounts/{accountID}/status [put]
func (h *PlatformHandler) HandleSetAccountStatus(w http.ResponseWriter, r *http.Request) {
	var req realmsdk.SetStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	account, err := h.Provisioning.SetPlatformAccountStatus(r.Context(), chi.URLParam(r, "accountID"), domain.Status(req.Status))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, platformUser(account))
}

// HandleAssignAccountRole
//
//	@Summary		Attach a platform role to an account
//	@Description	Requires platform.accounts.write and platform.roles.write.
//	@Tags			Platform
//	@Accept			json
//	@Security		BearerAuth
//	@Param			accountID	path	string						true	"Account ID"
//	@Param			request		body	realmsdk.AssignRoleRequest	true	"Role"
//	@Success		204
//	@Failure		403	{object}	realmsdk.APIError	"Missing account or role rights"
//	@Failure		422	{object}	realmsdk.APIError	"Role belongs to the tenant realm"
//	@Router			/v1/platform/accounts/{accountID}/roles [post]
func (h *PlatformHandler) HandleAssignAccountRole(w http.ResponseWriter, r *http.Request) {
	var req realmsdk.AssignRoleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.Provisioning.AssignPlatformRole(r.Context(), chi.URLParam(r, "accountID"), req.RoleID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleCreateRole
//
//	@Summary	Create a platform role
//	@Tags		Platform
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		request	body		realmsdk.CreateRoleRequest	true	"Role"
//	@Success	201		{object}	realmsdk.Role
//	@Router		/v1/platform/roles [post]
func (h *PlatformHandler) HandleCreateRole(w http.ResponseWriter, r *http.Request) {
	var req realmsdk.CreateRoleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	role, err := h.Provisioning.CreatePlatformRole(r.Context(), service.CreateRoleInput{
		Slug:      req.Slug,
		Name:      req.Name,
		Abilities: req.Abilities,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, platformRole(role))
}

func identityInput(req realmsdk.CreateUserRequest) service.CreateIdentityInput {
	return service.CreateIdentityInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Status:   domain.Status(req.Status),
		RoleIDs:  req.RoleIDs,
	}
}

func writeUserList(w http.ResponseWriter, users []domain.TenantUser) {
	out := realmsdk.UserList{Users: make([]realmsdk.User, 0, len(users))}
	for _, u := range users {
		out.Users = append(out.Users, tenantUser(u))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}
