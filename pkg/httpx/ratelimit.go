package httpx

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/realmguard/pkg/slogx"
	"golang.org/x/time/rate"
)

// RateLimitConfig is a token bucket: Burst tokens, refilled at
// RequestsPerWindow per Window.
type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	Burst             int
}

func (c RateLimitConfig) refillRate() rate.Limit {
	return rate.Limit(float64(c.RequestsPerWindow) / c.Window.Seconds())
}

// Profiles used by the router. Each one can be overridden with
// RATELIMIT_<NAME>_REQUESTS, RATELIMIT_<NAME>_WINDOW_SEC and
// RATELIMIT_<NAME>_BURST, where NAME is STRICT, MODERATE or LENIENT.
var (
	// StrictLimit guards the one-time bootstrap endpoint.
	StrictLimit = RateLimitConfig{RequestsPerWindow: 5, Window: time.Minute, Burst: 5}
	// ModerateLimit guards platform provisioning writes.
	ModerateLimit = RateLimitConfig{RequestsPerWindow: 20, Window: time.Minute, Burst: 20}
	// LenientLimit guards login, session, discovery and health routes.
	LenientLimit = RateLimitConfig{RequestsPerWindow: 100, Window: time.Minute, Burst: 100}
)

func init() {
	for name, profile := range map[string]*RateLimitConfig{
		"STRICT":   &StrictLimit,
		"MODERATE": &ModerateLimit,
		"LENIENT":  &LenientLimit,
	} {
		*profile = ParseRateLimitFromEnv(name, *profile)
	}
}

// ParseRateLimitFromEnv overlays RATELIMIT_<prefix>_* variables on def.
// Missing, malformed and non-positive values keep the default.
func ParseRateLimitFromEnv(prefix string, def RateLimitConfig) RateLimitConfig {
	positive := func(field string) (int, bool) {
		n, err := strconv.Atoi(os.Getenv("RATELIMIT_" + prefix + "_" + field))
		return n, err == nil && n > 0
	}

	cfg := def
	if n, ok := positive("REQUESTS"); ok {
		cfg.RequestsPerWindow = n
	}
	if n, ok := positive("WINDOW_SEC"); ok {
		cfg.Window = time.Duration(n) * time.Second
	}
	if n, ok := positive("BURST"); ok {
		cfg.Burst = n
	}
	return cfg
}

// KeyExtractor derives the bucket key of a request. An empty key means the
// request is not limited.
type KeyExtractor func(*http.Request) string

// IPKeyExtractor returns the host part of RemoteAddr. Forwarding headers are
// not consulted here; when the service runs behind a trusted proxy the
// router rewrites RemoteAddr first.
func IPKeyExtractor(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// PrincipalKeyExtractor keys by realm and subject of the authenticated
// caller. Returns empty string if the request is unauthenticated.
func PrincipalKeyExtractor(r *http.Request) string {
	subject := SubjectFromContext(r.Context())
	if subject == "" {
		return ""
	}
	return RealmFromContext(r.Context()) + "/" + subject
}

// CompositeKeyExtractor joins the non-empty keys of extractors with sep.
func CompositeKeyExtractor(sep string, extractors ...KeyExtractor) KeyExtractor {
	return func(r *http.Request) string {
		var parts []string
		for _, extractor := range extractors {
			if key := extractor(r); key != "" {
				parts = append(parts, key)
			}
		}
		return strings.Join(parts, sep)
	}
}

// maxKeyBodyBytes bounds how much of a request body JSONFieldKeyExtractor
// will buffer.
const maxKeyBodyBytes = 64 << 10

// JSONFieldKeyExtractor extracts a top level string field from a JSON body
// and restores the body for the next handler. Only a prefix of the body is
// inspected; the next handler still reads all of it. Values are lower-cased
// so identifiers that differ only in case share a limiter.
func JSONFieldKeyExtractor(fieldName string) KeyExtractor {
	return func(r *http.Request) string {
		if r.Body == nil {
			return ""
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, maxKeyBodyBytes))
		r.Body = struct {
			io.Reader
			io.Closer
		}{io.MultiReader(bytes.NewReader(body), r.Body), r.Body}
		if err != nil {
			return ""
		}

		var fields map[string]json.RawMessage
		if err := json.Unmarshal(body, &fields); err != nil {
			return ""
		}
		var value string
		if err := json.Unmarshal(fields[fieldName], &value); err != nil {
			return ""
		}
		return strings.ToLower(strings.TrimSpace(value))
	}
}

// buckets holds one token bucket per key. A bucket that has been idle long
// enough to refill completely is indistinguishable from a new one, so it is
// dropped by the next sweep.
type buckets struct {
	cfg       RateLimitConfig
	idleAfter time.Duration

	mu        sync.Mutex
	byKey     map[string]*bucket
	nextSweep time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newBuckets(cfg RateLimitConfig) *buckets {
	refill := time.Duration(float64(cfg.Burst) / float64(cfg.refillRate()) * float64(time.Second))
	return &buckets{
		cfg:       cfg,
		idleAfter: max(refill, time.Minute),
		byKey:     make(map[string]*bucket),
	}
}

// take spends one token of key's bucket. When none is left it reports how
// long until one is, and the bucket is left untouched.
func (b *buckets) take(key string, now time.Time) (time.Duration, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.sweep(now)

	bk, ok := b.byKey[key]
	if !ok {
		bk = &bucket{limiter: rate.NewLimiter(b.cfg.refillRate(), b.cfg.Burst)}
		b.byKey[key] = bk
	}
	bk.lastSeen = now

	res := bk.limiter.ReserveN(now, 1)
	if !res.OK() {
		return b.cfg.Window, false
	}
	if wait := res.DelayFrom(now); wait > 0 {
		res.CancelAt(now)
		return wait, false
	}
	return 0, true
}

func (b *buckets) sweep(now time.Time) {
	if now.Before(b.nextSweep) {
		return
	}
	b.nextSweep = now.Add(b.idleAfter)
	for key, bk := range b.byKey {
		if now.Sub(bk.lastSeen) > b.idleAfter {
			delete(b.byKey, key)
		}
	}
}

// RateLimitMiddleware limits requests per key. Requests the extractor cannot
// key are passed through.
func RateLimitMiddleware(config RateLimitConfig, keyExtractor KeyExtractor) Middleware {
	b := newBuckets(config)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyExtractor(r)
			if key == "" {
				slogx.FromContext(r.Context()).Warn("rate limit: no key for request, not limited")
				next.ServeHTTP(w, r)
				return
			}

			wait, ok := b.take(key, time.Now())
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			retryAfter := max(int(math.Ceil(wait.Seconds())), 1)
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(config.RequestsPerWindow))
			w.Header().Set("X-RateLimit-Window", config.Window.String())

			slogx.FromContext(r.Context()).Warn("rate limit exceeded",
				"key", key,
				"endpoint", r.URL.Path,
				"retry_after", retryAfter,
			)
			WriteError(w, http.StatusTooManyRequests, "rate_limited", "Too many requests. Please try again later.")
		})
	}
}

// RateLimitByIP limits by client address.
func RateLimitByIP(config RateLimitConfig) Middleware {
	return RateLimitMiddleware(config, IPKeyExtractor)
}

// RateLimitByPrincipal limits by authenticated caller and address.
// Unauthenticated requests share the address bucket.
func RateLimitByPrincipal(config RateLimitConfig) Middleware {
	return RateLimitMiddleware(config, CompositeKeyExtractor(":", PrincipalKeyExtractor, IPKeyExtractor))
}

// RateLimitByIPAndJSONField limits by address plus one field of the JSON
// body, such as the email of a login.
func RateLimitByIPAndJSONField(config RateLimitConfig, fieldName string) Middleware {
	return RateLimitMiddleware(config, CompositeKeyExtractor(":", IPKeyExtractor, JSONFieldKeyExtractor(fieldName)))
}
