package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	BootstrapToken string // Optional: token required to perform bootstrap

	DatabaseDriver string // Optional: sqlite or postgres (default: sqlite)
	DatabaseFile   string // Optional: path to SQLite database file (default: ./realm.db)
	DatabaseURL    string // Required for postgres: connection string
	PepperFile     string // Optional: path to file containing pepper for password hashing (default: ./pepper)

	CredentialTTL      time.Duration // Lifetime of issued credentials (default: 12h)
	LoginMaxAttempts   int           // Failures before a throttle key locks (default: 5)
	LoginLockoutWindow time.Duration // Failure window and lockout length (default: 15m)
	LoginIPRequests    int           // Login flood guard per client address (default: 60)
	LoginIPWindow      time.Duration // Login flood guard window (default: 1m)

	TrustProxyHeaders  bool     // Honour X-Forwarded-For/X-Real-IP (default: false)
	CORSAllowedOrigins []string // Comma separated; empty disables CORS

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	LogFile              string        // Optional: also write logs to this file, rotated daily
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	return Config{
		BootstrapToken: os.Getenv("BOOTSTRAP_TOKEN"), // Optional: if unset, bootstrap is disabled

		DatabaseDriver: strings.ToLower(getEnvOrDefault("DATABASE_DRIVER", "sqlite")),
		DatabaseFile:   getEnvOrDefault("DATABASE_FILE", "realm.db"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		PepperFile:     getEnvOrDefault("PEPPER_FILE", "pepper"),

		CredentialTTL:      getEnvDurationOrDefault("CREDENTIAL_TTL", 12*time.Hour),
		LoginMaxAttempts:   getEnvIntOrDefault("LOGIN_MAX_ATTEMPTS", 5),
		LoginLockoutWindow: getEnvDurationOrDefault("LOGIN_LOCKOUT_WINDOW", 15*time.Minute),
		LoginIPRequests:    getEnvIntOrDefault("LOGIN_IP_REQUESTS", 60),
		LoginIPWindow:      getEnvDurationOrDefault("LOGIN_IP_WINDOW", time.Minute),

		TrustProxyHeaders:  getEnvBoolOrDefault("TRUST_PROXY_HEADERS", false),
		CORSAllowedOrigins: getEnvListOrDefault("CORS_ALLOWED_ORIGINS", nil),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		LogFile:              os.Getenv("LOG_FILE"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

// getEnvListOrDefault splits a comma separated value, dropping blanks.
func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
