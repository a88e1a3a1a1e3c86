package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/realmguard/internal/realm/store"
	"github.com/aussiebroadwan/realmguard/pkg/httpx"
	"github.com/aussiebroadwan/realmguard/pkg/realmsdk"
)

// LivezHandler godoc
//
//	@Summary		Liveness check
//	@Description	Always 200 while the process is serving.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	realmsdk.HealthResponse
//	@Router			/livez [get]
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, realmsdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// ReadyzHandler godoc
//
//	@Summary		Readiness check
//	@Description	503 while the credential store cannot be reached.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	realmsdk.HealthResponse
//	@Failure		503	{object}	realmsdk.HealthResponse
//	@Router			/readyz [get]
func ReadyzHandler(startTime time.Time, version string, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{"database": "ok"}
		status, code := "ok", http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks["database"] = "error: " + err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, code, realmsdk.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
