package realmsdk

import (
	"context"
	"net/http"
	"net/url"
	"sync"
)

// Session holds one bearer credential for one realm.
type Session struct {
	client *Client
	realm  Realm

	mu    sync.RWMutex
	token string
}

func (s *Session) Realm() Realm { return s.realm }

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) call(ctx context.Context, method, path string, body, target any, expectedStatus int) error {
	return s.client.call(ctx, method, path, s.Token(), body, target, expectedStatus)
}

func (s *Session) authPath(action string) string {
	return "/auth/" + string(s.realm) + "/" + action
}

// Logout revokes the session's credential. Other credentials of the same
// identity stay valid.
func (s *Session) Logout(ctx context.Context) error {
	return s.call(ctx, http.MethodPost, s.authPath("logout"), nil, nil, http.StatusOK)
}

func (s *Session) Me(ctx context.Context) (*MeResponse, error) {
	var out MeResponse
	if err := s.call(ctx, http.MethodGet, s.authPath("me"), nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) Validate(ctx context.Context) (*ValidateResponse, error) {
	var out ValidateResponse
	if err := s.call(ctx, http.MethodGet, s.authPath("validate"), nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh exchanges the credential for a new one with the same abilities.
// The session switches to the new credential; the old one is revoked.
func (s *Session) Refresh(ctx context.Context) (*TokenResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out TokenResponse
	if err := s.client.call(ctx, http.MethodPost, s.authPath("refresh"), s.token, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	s.token = out.Token
	return &out, nil
}

// ListTenantUsers lists users of the credential's own tenant.
func (s *Session) ListTenantUsers(ctx context.Context) ([]User, error) {
	var out UserList
	if err := s.call(ctx, http.MethodGet, "/v1/tenant/users", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Users, nil
}

// ============================================================================
// Platform provisioning
// ============================================================================

func tenantPath(tenantID string, rest ...string) string {
	p := "/v1/platform/tenants/" + url.PathEscape(tenantID)
	for _, r := range rest {
		p += "/" + url.PathEscape(r)
	}
	return p
}

func (s *Session) CreateTenant(ctx context.Context, req CreateTenantRequest) (*Tenant, error) {
	var out Tenant
	if err := s.call(ctx, http.MethodPost, "/v1/platform/tenants", req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) GetTenant(ctx context.Context, tenantID string) (*Tenant, error) {
	var out Tenant
	if err := s.call(ctx, http.MethodGet, tenantPath(tenantID), nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) UpdateTenant(ctx context.Context, tenantID string, req UpdateTenantRequest) (*Tenant, error) {
	var out Tenant
	if err := s.call(ctx, http.MethodPatch, tenantPath(tenantID), req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) CreateTenantRole(ctx context.Context, tenantID string, req CreateRoleRequest) (*Role, error) {
	var out Role
	if err := s.call(ctx, http.MethodPost, tenantPath(tenantID, "roles"), req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) CreateTenantUser(ctx context.Context, tenantID string, req CreateUserRequest) (*User, error) {
	var out User
	if err := s.call(ctx, http.MethodPost, tenantPath(tenantID, "users"), req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) PlatformListTenantUsers(ctx context.Context, tenantID string) ([]User, error) {
	var out UserList
	if err := s.call(ctx, http.MethodGet, tenantPath(tenantID, "users"), nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Users, nil
}

func (s *Session) SetTenantUserStatus(ctx context.Context, tenantID, userID, status string) (*User, error) {
	var out User
	req := SetStatusRequest{Status: status}
	if err := s.call(ctx, http.MethodPut, tenantPath(tenantID, "users", userID, "status"), req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) AssignTenantRole(ctx context.Context, tenantID, userID, roleID string) error {
	req := AssignRoleRequest{RoleID: roleID}
	return s.call(ctx, http.MethodPost, tenantPath(tenantID, "users", userID, "roles"), req, nil, http.StatusNoContent)
}

func (s *Session) CreatePlatformAccount(ctx context.Context, req CreateUserRequest) (*User, error) {
	var out User
	if err := s.call(ctx, http.MethodPost, "/v1/platform/accounts", req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) SetPlatformAccountStatus(ctx context.Context, accountID, status string) (*User, error) {
	var out User
	path := "/v1/platform/accounts/" + url.PathEscape(accountID) + "/status"
	if err := s.call(ctx, http.MethodPut, path, SetStatusRequest{Status: status}, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) CreatePlatformRole(ctx context.Context, req CreateRoleRequest) (*Role, error) {
	var out Role
	if err := s.call(ctx, http.MethodPost, "/v1/platform/roles", req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) AssignPlatformRole(ctx context.Context, accountID, roleID string) error {
	path := "/v1/platform/accounts/" + url.PathEscape(accountID) + "/roles"
	return s.call(ctx, http.MethodPost, path, AssignRoleRequest{RoleID: roleID}, nil, http.StatusNoContent)
}
