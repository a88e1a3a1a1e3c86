package httpx_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/realmguard/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestIPKeyExtractor(t *testing.T) {
	t.Run("extracts from RemoteAddr", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.1:12345"

		ip := httpx.IPKeyExtractor(req)
		require.Equal(t, "192.168.1.1", ip)
	})

	t.Run("ignores forwarding headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		req.Header.Set("X-Forwarded-For", "203.0.113.1, 192.168.1.1")
		req.Header.Set("X-Real-IP", "203.0.113.2")

		ip := httpx.IPKeyExtractor(req)
		require.Equal(t, "192.168.1.1", ip)
	})

	t.Run("falls back to raw RemoteAddr", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "unix-socket"

		require.Equal(t, "unix-socket", httpx.IPKeyExtractor(req))
	})
}

func TestJSONFieldKeyExtractor(t *testing.T) {
	t.Run("extracts and restores body", func(t *testing.T) {
		body := `{"email":" Alice@Example.com ","password":"x"}`
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))

		extractor := httpx.JSONFieldKeyExtractor("email")
		require.Equal(t, "alice@example.com", extractor(req))

		rest, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		require.Equal(t, body, string(rest))
	})

	t.Run("restores bodies larger than the inspected prefix", func(t *testing.T) {
		body := `{"email":"alice@example.com","padding":"` + strings.Repeat("x", 100<<10) + `"}`
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))

		require.Equal(t, "", httpx.JSONFieldKeyExtractor("email")(req), "a truncated prefix is not JSON")

		rest, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		require.Equal(t, body, string(rest))
		require.NoError(t, req.Body.Close())
	})

	t.Run("oversized body reports its size", func(t *testing.T) {
		body := `{"email":"` + strings.Repeat("x", httpx.MaxBodyBytes) + `"}`
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		httpx.JSONFieldKeyExtractor("email")(req)

		var dst struct {
			Email string `json:"email"`
		}
		err := httpx.DecodeJSON(httptest.NewRecorder(), req, &dst)
		require.ErrorContains(t, err, "request body exceeds")
	})

	t.Run("returns empty for missing field", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"password":"x"}`))

		require.Equal(t, "", httpx.JSONFieldKeyExtractor("email")(req))
	})

	t.Run("returns empty for non-string field", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":42}`))

		require.Equal(t, "", httpx.JSONFieldKeyExtractor("email")(req))
	})

	t.Run("returns empty for malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`not json`))

		require.Equal(t, "", httpx.JSONFieldKeyExtractor("email")(req))
	})
}

func TestPrincipalKeyExtractor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.Equal(t, "", httpx.PrincipalKeyExtractor(req))

	ctx := httpx.ContextWithPrincipal(context.Background(), httpx.Principal{Subject: "u1", Realm: "tenant"})
	require.Equal(t, "tenant/u1", httpx.PrincipalKeyExtractor(req.WithContext(ctx)))
}

func TestCompositeKeyExtractor(t *testing.T) {
	t.Run("combines multiple extractors", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"alice@example.com"}`))
		req.RemoteAddr = "192.168.1.1:12345"

		extractor := httpx.CompositeKeyExtractor(":",
			httpx.IPKeyExtractor,
			httpx.JSONFieldKeyExtractor("email"),
		)

		key := extractor(req)
		require.Equal(t, "192.168.1.1:alice@example.com", key)
	})

	t.Run("skips empty values", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)) // no email
		req.RemoteAddr = "192.168.1.1:12345"

		extractor := httpx.CompositeKeyExtractor(":",
			httpx.IPKeyExtractor,
			httpx.JSONFieldKeyExtractor("email"),
		)

		key := extractor(req)
		require.Equal(t, "192.168.1.1", key)
	})
}

func serveFrom(h http.Handler, remoteAddr, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(http.MethodGet, "/", nil)
	} else {
		req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	}
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitMiddleware(t *testing.T) {
	tests := []struct {
		name    string
		config  httpx.RateLimitConfig
		addrs   []string
		allowed int
	}{
		{
			name:    "burst is spent then blocked",
			config:  httpx.RateLimitConfig{RequestsPerWindow: 3, Window: time.Minute, Burst: 3},
			addrs:   []string{"10.0.0.1:1", "10.0.0.1:2", "10.0.0.1:3", "10.0.0.1:4", "10.0.0.1:5"},
			allowed: 3,
		},
		{
			name:    "keys are limited separately",
			config:  httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1},
			addrs:   []string{"10.0.0.1:1", "10.0.0.2:1", "10.0.0.1:2", "10.0.0.2:2"},
			allowed: 2,
		},
		{
			name:    "burst larger than the window rate",
			config:  httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Hour, Burst: 4},
			addrs:   []string{"10.0.0.1:1", "10.0.0.1:1", "10.0.0.1:1", "10.0.0.1:1", "10.0.0.1:1"},
			allowed: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := httpx.RateLimitByIP(tt.config)(okHandler())

			allowed := 0
			for _, addr := range tt.addrs {
				switch rec := serveFrom(h, addr, ""); rec.Code {
				case http.StatusOK:
					allowed++
				case http.StatusTooManyRequests:
				default:
					t.Fatalf("unexpected status %d", rec.Code)
				}
			}
			require.Equal(t, tt.allowed, allowed)
		})
	}

	t.Run("unkeyed requests pass through", func(t *testing.T) {
		config := httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1}
		h := httpx.RateLimitMiddleware(config, func(*http.Request) string { return "" })(okHandler())

		for range 5 {
			require.Equal(t, http.StatusOK, serveFrom(h, "10.0.0.1:1", "").Code)
		}
	})
}

func TestRateLimitHeaders(t *testing.T) {
	h := httpx.RateLimitByIP(httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1})(okHandler())

	first := serveFrom(h, "10.0.0.9:1", "")
	require.Equal(t, http.StatusOK, first.Code)
	require.Empty(t, first.Header().Get("Retry-After"))

	rec := serveFrom(h, "10.0.0.9:1", "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
	require.Equal(t, "1m0s", rec.Header().Get("X-RateLimit-Window"))

	retryAfter, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	require.NoError(t, err)
	require.InDelta(t, 60, retryAfter, 1)
	require.Contains(t, rec.Body.String(), `"code":"rate_limited"`)
}

func TestRateLimitByIPAndJSONField(t *testing.T) {
	h := httpx.RateLimitByIPAndJSONField(httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1}, "email")(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			require.Contains(t, string(body), "@example.com")
			w.WriteHeader(http.StatusOK)
		}))

	require.Equal(t, http.StatusOK, serveFrom(h, "10.0.0.1:1", `{"email":"alice@example.com"}`).Code)
	require.Equal(t, http.StatusTooManyRequests, serveFrom(h, "10.0.0.1:1", `{"email":"ALICE@example.com"}`).Code)
	require.Equal(t, http.StatusOK, serveFrom(h, "10.0.0.1:1", `{"email":"bob@example.com"}`).Code)
}

func TestRateLimitByPrincipal(t *testing.T) {
	h := httpx.RateLimitByPrincipal(httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1})(okHandler())

	as := func(subject string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1"
		ctx := httpx.ContextWithPrincipal(req.Context(), httpx.Principal{Subject: subject, Realm: "platform"})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req.WithContext(ctx))
		return rec.Code
	}

	require.Equal(t, http.StatusOK, as("alice"))
	require.Equal(t, http.StatusTooManyRequests, as("alice"))
	require.Equal(t, http.StatusOK, as("bob"), "same address, different caller")
}

func TestParseRateLimitFromEnv(t *testing.T) {
	def := httpx.RateLimitConfig{RequestsPerWindow: 10, Window: time.Minute, Burst: 10}

	tests := []struct {
		name string
		env  map[string]string
		want httpx.RateLimitConfig
	}{
		{name: "no overrides", want: def},
		{
			name: "all overrides",
			env: map[string]string{
				"RATELIMIT_TEST_REQUESTS":   "50",
				"RATELIMIT_TEST_WINDOW_SEC": "30",
				"RATELIMIT_TEST_BURST":      "60",
			},
			want: httpx.RateLimitConfig{RequestsPerWindow: 50, Window: 30 * time.Second, Burst: 60},
		},
		{
			name: "partial override",
			env:  map[string]string{"RATELIMIT_TEST_BURST": "3"},
			want: httpx.RateLimitConfig{RequestsPerWindow: 10, Window: time.Minute, Burst: 3},
		},
		{
			name: "malformed and non-positive values are ignored",
			env: map[string]string{
				"RATELIMIT_TEST_REQUESTS":   "many",
				"RATELIMIT_TEST_WINDOW_SEC": "0",
				"RATELIMIT_TEST_BURST":      "-4",
			},
			want: def,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, field := range []string{"REQUESTS", "WINDOW_SEC", "BURST"} {
				t.Setenv("RATELIMIT_TEST_"+field, tt.env["RATELIMIT_TEST_"+field])
			}
			require.Equal(t, tt.want, httpx.ParseRateLimitFromEnv("TEST", def))
		})
	}
}

func BenchmarkRateLimitManyKeys(b *testing.B) {
	h := httpx.RateLimitByIP(httpx.LenientLimit)(okHandler())
	for i := 0; b.Loop(); i++ {
		serveFrom(h, "10.0."+strconv.Itoa(i/256%256)+"."+strconv.Itoa(i%256)+":1", "")
	}
}
