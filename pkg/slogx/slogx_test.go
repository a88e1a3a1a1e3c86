package slogx_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/realmguard/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func newCaptured(t *testing.T, cfg slogx.Config) (*slog.Logger, *bytes.Buffer) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	cfg.Output = &buf
	logger, closer, err := slogx.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = closer.Close() })
	return logger, &buf
}

func TestNewJSONWithServiceFields(t *testing.T) {
	logger, buf := newCaptured(t, slogx.Config{Service: "realmguard", Version: "test", Env: "test", Level: "warn"})

	logger.Info("dropped")
	logger.Warn("kept", "k", "v")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "kept", line["msg"])
	require.Equal(t, "realmguard", line["service"])
	require.Equal(t, "v", line["k"])
}

func TestNewWritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "realm.log")
	logger, _ := newCaptured(t, slogx.Config{Service: "realmguard", File: path})

	logger.Info("to file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "to file")
}

func TestFromContextDefaults(t *testing.T) {
	require.Equal(t, slog.Default(), slogx.FromContext(context.Background()))
}

func TestHTTPMiddleware(t *testing.T) {
	logger, buf := newCaptured(t, slogx.Config{Service: "realmguard", Level: "debug"})

	var inner *slog.Logger
	h := slogx.HTTPMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner = slogx.FromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("X-Request-ID", "abc")
	req.Header.Set("Authorization", "Bearer secret-token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.NotNil(t, inner)
	require.Equal(t, "abc", rec.Header().Get("X-Request-ID"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "abc", line["req_id"])
	require.EqualValues(t, http.StatusTeapot, line["status"])
	require.NotContains(t, buf.String(), "secret-token")
}

func TestHTTPMiddlewareGeneratesRequestID(t *testing.T) {
	logger, _ := newCaptured(t, slogx.Config{})
	h := slogx.HTTPMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Len(t, rec.Header().Get("X-Request-ID"), 26)
}
