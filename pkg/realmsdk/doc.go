/*
Package realmsdk is the Go client for the realmguard authentication service
and the home of its wire types.

# Client vs Session

  - Client: unauthenticated operations (login, tenant discovery, bootstrap, health)
  - Session: operations made with a bearer credential from one realm

Log in to a realm and work with the returned credential:

	client := realmsdk.NewClient("https://auth.example.com")

	tenant, err := client.DiscoverTenant(ctx, "acme")
	session, login, err := client.Login(ctx, realmsdk.RealmTenant, realmsdk.LoginRequest{
		Email:    "alice@acme.test",
		Password: password,
		TenantID: tenant.ID,
	})

	me, err := session.Me(ctx)
	err = session.Logout(ctx)

A credential only works against the realm that issued it. A tenant
credential presented to a platform endpoint is rejected with 401.

# Errors

Every non-2xx response is returned as *APIError:

	var apiErr *realmsdk.APIError
	if errors.As(err, &apiErr) && apiErr.Code == realmsdk.CodeRateLimited {
		time.Sleep(apiErr.RetryAfter)
	}
*/
package realmsdk
