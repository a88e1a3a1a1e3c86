package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/aussiebroadwan/realmguard/internal/realm/domain"
	"github.com/aussiebroadwan/realmguard/internal/realm/service"
	"github.com/aussiebroadwan/realmguard/internal/realm/store"
	"github.com/aussiebroadwan/realmguard/pkg/httpx"
	"github.com/aussiebroadwan/realmguard/pkg/realmsdk"
	"github.com/aussiebroadwan/realmguard/pkg/slogx"

	_ "github.com/aussiebroadwan/realmguard/api/realm" // Swagger docs
)

// RouterConfig holds shared dependencies for HTTP handlers.
type RouterConfig struct {
	Logger  *slog.Logger
	Version string
	Store   store.Store

	Authenticator *service.Authenticator
	Verifier      *service.CredentialVerifier
	Ledger        *service.RevocationLedger
	Provisioning  *service.ProvisioningService
	Bootstrap     *service.BootstrapService

	// TrustProxyHeaders rewrites RemoteAddr from X-Forwarded-For/X-Real-IP.
	// Only enable behind a proxy that sets them.
	TrustProxyHeaders  bool
	CORSAllowedOrigins []string

	// Login flood guard, per client address and independent of the
	// per-identity login throttle.
	LoginIPRequests int
	LoginIPWindow   time.Duration
}

// NewRouter builds the HTTP surface.
//
//	@title						RealmGuard Authentication API
//	@version					0.1.0
//	@description				Multi-tenant authentication with two isolated realms. Platform operators and tenant users log in separately and receive opaque bearer credentials bound to one realm.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/realmguard
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Opaque bearer credential. Format: "Bearer {token}".
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	if cfg.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Recoverer)
	r.Use(slogx.HTTPMiddleware(cfg.Logger))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", realmsdk.BootstrapTokenHeader},
			ExposedHeaders:   []string{"Retry-After", slogx.RequestIDHeader},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apiError(w, http.StatusNotFound, realmsdk.CodeNotFound, "The resource was not found.")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		apiError(w, http.StatusMethodNotAllowed, realmsdk.CodeInvalidRequest, "Method not allowed.")
	})

	registerSystem(r, cfg)
	registerAuth(r, cfg, domain.RealmPlatform)
	registerAuth(r, cfg, domain.RealmTenant)
	registerDiscovery(r, cfg)
	registerPlatform(r, cfg)
	registerTenant(r, cfg)
	registerBootstrap(r, cfg)

	r.Get("/swagger/*", httpSwagger.Handler())

	return r
}

// loginFloodGuard caps raw login traffic per address. Lockout per identity
// is the authenticator's job; this only blunts spraying across many emails.
func loginFloodGuard(cfg RouterConfig) func(http.Handler) http.Handler {
	requests, window := cfg.LoginIPRequests, cfg.LoginIPWindow
	if requests <= 0 {
		requests = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	return httprate.Limit(requests, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			slogx.FromContext(r.Context()).Warn("login flood guard tripped",
				"ip", r.RemoteAddr,
				"path", r.URL.Path,
			)
			httpx.WriteError(w, http.StatusTooManyRequests, realmsdk.CodeRateLimited, "Too many requests. Please try again later.")
		}),
	)
}

func registerAuth(r chi.Router, cfg RouterConfig, realm domain.Realm) {
	h := &AuthHandler{
		Realm:         realm,
		Authenticator: cfg.Authenticator,
		Ledger:        cfg.Ledger,
	}
	guard := RealmGuard(cfg.Verifier, realm)

	r.Route("/auth/"+realm.String(), func(r chi.Router) {
		// Login: address flood guard plus a lenient address+email limiter in
		// front of the per-identity throttle.
		r.With(
			loginFloodGuard(cfg),
			httpx.RateLimitByIPAndJSONField(httpx.LenientLimit, "email"),
		).Post("/login", h.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(guard, httpx.RateLimitByPrincipal(httpx.LenientLimit))

			r.Post("/logout", h.HandleLogout)
			r.Get("/me", h.HandleMe)
			r.Get("/validate", h.HandleValidate)
			r.Post("/refresh", h.HandleRefresh)
		})
	})
}

func registerDiscovery(r chi.Router, cfg RouterConfig) {
	r.With(httpx.RateLimitByIP(httpx.LenientLimit)).
		Get("/auth/tenants/{slug}", DiscoveryHandler(cfg.Provisioning))
}

func registerPlatform(r chi.Router, cfg RouterConfig) {
	h := &PlatformHandler{Provisioning: cfg.Provisioning}

	read := httpx.RequireAnyAbility(domain.AbilityTenantsRead, domain.AbilityTenantsWrite)
	write := httpx.RequireAnyAbility(domain.AbilityTenantsWrite)
	accounts := httpx.RequireAnyAbility(domain.AbilityPlatformAccounts)
	roles := httpx.RequireAnyAbility(domain.AbilityPlatformRoles)
	// Granting a platform role needs both account and role rights.
	grant := httpx.RequireAllAbilities(domain.AbilityPlatformAccounts, domain.AbilityPlatformRoles)

	r.Route("/v1/platform", func(r chi.Router) {
		r.Use(
			RealmGuard(cfg.Verifier, domain.RealmPlatform),
			httpx.RateLimitByPrincipal(httpx.ModerateLimit),
		)

		r.Route("/tenants", func(r chi.Router) {
			r.With(write).Post("/", h.HandleCreateTenant)

			r.Route("/{tenantID}", func(r chi.Router) {
				r.With(read).Get("/", h.HandleGetTenant)
				r.With(write).Patch("/", h.HandleUpdateTenant)
				r.With(write).Post("/roles", h.HandleCreateTenantRole)
				r.With(read).Get("/users", h.HandleListTenantUsers)
				r.With(write).Post("/users", h.HandleCreateTenantUser)
				r.With(write).Put("/users/{userID}/status", h.HandleSetTenantUserStatus)
				r.With(write).Post("/users/{userID}/roles", h.HandleAssignTenantRole)
			})
		})

		r.With(accounts).Post("/accounts", h.HandleCreateAccount)
		r.With(accounts).Put("/accounts/{accountID}/status", h.HandleSetAccountStatus)
		r.With(grant).Post("/accounts/{accountID}/roles", h.HandleAssignAccountRole)
		r.With(roles).Post("/roles", h.HandleCreateRole)
	})
}

func registerTenant(r chi.Router, cfg RouterConfig) {
	h := &TenantHandler{Provisioning: cfg.Provisioning}

	r.With(
		RealmGuard(cfg.Verifier, domain.RealmTenant),
		httpx.RequireAnyAbility(domain.AbilityTenantUsersRead),
		httpx.RateLimitByPrincipal(httpx.LenientLimit),
	).Get("/v1/tenant/users", h.HandleListUsers)
}

func registerBootstrap(r chi.Router, cfg RouterConfig) {
	// very strict rate limit by IP (one-time setup endpoint)
	r.With(httpx.RateLimitByIP(httpx.StrictLimit)).
		Post("/v1/bootstrap", (&BootstrapHandler{BootstrapService: cfg.Bootstrap}).ServeHTTP)
}

func registerSystem(r chi.Router, cfg RouterConfig) {
	startTime := time.Now()

	// monitoring systems may poll frequently
	lenient := httpx.RateLimitByIP(httpx.LenientLimit)
	r.With(lenient).Get("/livez", LivezHandler(startTime, cfg.Version))
	r.With(lenient).Get("/readyz", ReadyzHandler(startTime, cfg.Version, cfg.Store))
}
