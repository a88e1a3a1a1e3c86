package realmsdk

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// BootstrapTokenHeader carries the one-time bootstrap token.
const BootstrapTokenHeader = "X-Bootstrap-Token"

// Client talks to the unauthenticated endpoints and creates Sessions.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Login authenticates against one realm and returns a Session bound to the
// issued credential.
func (c *Client) Login(ctx context.Context, realm Realm, req LoginRequest) (*Session, *LoginResponse, error) {
	var out LoginResponse
	if err := c.call(ctx, http.MethodPost, "/auth/"+string(realm)+"/login", "", req, &out, http.StatusOK); err != nil {
		return nil, nil, err
	}
	return c.NewSession(realm, out.Token), &out, nil
}

// NewSession wraps an existing credential.
func (c *Client) NewSession(realm Realm, token string) *Session {
	return &Session{client: c, realm: realm, token: token}
}

// DiscoverTenant resolves a tenant slug. Only tenants that currently accept
// logins are found.
func (c *Client) DiscoverTenant(ctx context.Context, slug string) (*TenantSummary, error) {
	var out TenantSummary
	if err := c.call(ctx, http.MethodGet, "/auth/tenants/"+url.PathEscape(slug), "", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Bootstrap creates the first platform account.
func (c *Client) Bootstrap(ctx context.Context, token string, req BootstrapRequest) (*BootstrapResponse, error) {
	resp, err := c.do(ctx, http.MethodPost, "/v1/bootstrap", "", req, map[string]string{
		BootstrapTokenHeader: token,
	})
	if err != nil {
		return nil, err
	}
	var out BootstrapResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetLiveness checks if the service is alive.
func (c *Client) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.call(ctx, http.MethodGet, "/livez", "", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetReadiness checks if the service can reach its store.
func (c *Client) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.call(ctx, http.MethodGet, "/readyz", "", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
