// Package config provides application configuration through environment variables.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/allisson/go-env"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// ServerHost is the host address the server will bind to.
	ServerHost string
	// ServerPort is the port number the server will listen on.
	ServerPort int

	// MongoURI is the connection string for the MongoDB deployment.
	MongoURI string
	// MongoDatabase is the database name used by the service.
	MongoDatabase string
	// MongoConnectTimeout is the timeout for establishing the initial connection.
	MongoConnectTimeout time.Duration
	// MongoOperationTimeout is the default per-operation timeout.
	MongoOperationTimeout time.Duration

	// LogLevel is the logging level (e.g., "debug", "info", "warn", "error").
	LogLevel string

	// NodeDID is this node's did:key identity. Capability chains must terminate
	// in an invocation addressed to this DID.
	NodeDID string
	// TrustedIssuers is a comma-separated list of DIDs allowed to root a
	// delegation chain.
	TrustedIssuers string

	// RevocationURL is the base URL of the external revocation authority.
	RevocationURL string
	// RevocationTimeout bounds the revocation-authority round trip. A timeout
	// is treated as a failed check (fail closed).
	RevocationTimeout time.Duration

	// PrincipalCacheTTL is how long a loaded principal may be served from cache.
	PrincipalCacheTTL time.Duration
	// PrincipalCacheSize is the maximum number of cached principals.
	PrincipalCacheSize int64

	// UserEventLogCap is the maximum number of data-lifecycle events retained
	// per user; older entries are dropped.
	UserEventLogCap int

	// QueryWorkerCount is the number of concurrent query-run workers.
	QueryWorkerCount int
	// QueryWorkerInterval is the poll interval for pending query runs.
	QueryWorkerInterval time.Duration
	// QueryResultCap is the maximum number of result documents stored per run.
	QueryResultCap int

	// RateLimitEnabled indicates whether rate limiting for authenticated endpoints is enabled.
	RateLimitEnabled bool
	// RateLimitRequestsPerSec is the number of requests allowed per second per principal.
	RateLimitRequestsPerSec float64
	// RateLimitBurst is the burst size for authenticated endpoints rate limiting.
	RateLimitBurst int

	// CORSEnabled indicates whether CORS is enabled.
	CORSEnabled bool
	// CORSAllowOrigins is a comma-separated list of allowed origins for CORS.
	CORSAllowOrigins string

	// MetricsEnabled indicates whether metrics collection is enabled.
	MetricsEnabled bool
	// MetricsNamespace is the namespace for the application metrics.
	MetricsNamespace string
	// MetricsPort is the port number for the metrics server.
	MetricsPort int
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	// Try to load .env file recursively
	loadDotEnv()

	return &Config{
		// Server configuration
		ServerHost: env.GetString("SERVER_HOST", "0.0.0.0"),
		ServerPort: env.GetInt("SERVER_PORT", 8080),

		// Database configuration
		MongoURI:              env.GetString("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:         env.GetString("MONGO_DATABASE", "capdocs"),
		MongoConnectTimeout:   env.GetDuration("MONGO_CONNECT_TIMEOUT_SECONDS", 10, time.Second),
		MongoOperationTimeout: env.GetDuration("MONGO_OPERATION_TIMEOUT_SECONDS", 15, time.Second),

		// Logging
		LogLevel: env.GetString("LOG_LEVEL", "info"),

		// Capability verification
		NodeDID:           env.GetString("NODE_DID", ""),
		TrustedIssuers:    env.GetString("TRUSTED_ISSUERS", ""),
		RevocationURL:     env.GetString("REVOCATION_URL", ""),
		RevocationTimeout: env.GetDuration("REVOCATION_TIMEOUT_SECONDS", 5, time.Second),

		// Principal cache
		PrincipalCacheTTL:  env.GetDuration("PRINCIPAL_CACHE_TTL_SECONDS", 30, time.Second),
		PrincipalCacheSize: int64(env.GetInt("PRINCIPAL_CACHE_SIZE", 10000)),

		// User event log
		UserEventLogCap: env.GetInt("USER_EVENT_LOG_CAP", 1000),

		// Query runs
		QueryWorkerCount:    env.GetInt("QUERY_WORKER_COUNT", 4),
		QueryWorkerInterval: env.GetDuration("QUERY_WORKER_INTERVAL_SECONDS", 1, time.Second),
		QueryResultCap:      env.GetInt("QUERY_RESULT_CAP", 1000),

		// Rate Limiting
		RateLimitEnabled:        env.GetBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequestsPerSec: env.GetFloat64("RATE_LIMIT_REQUESTS_PER_SEC", 10.0),
		RateLimitBurst:          env.GetInt("RATE_LIMIT_BURST", 20),

		// CORS
		CORSEnabled:      env.GetBool("CORS_ENABLED", false),
		CORSAllowOrigins: env.GetString("CORS_ALLOW_ORIGINS", ""),

		// Metrics
		MetricsEnabled:   env.GetBool("METRICS_ENABLED", true),
		MetricsNamespace: env.GetString("METRICS_NAMESPACE", "capdocs"),
		MetricsPort:      env.GetInt("METRICS_PORT", 8081),
	}
}

// TrustedIssuerList returns the trusted root issuer DIDs as a slice.
func (c *Config) TrustedIssuerList() []string {
	if c.TrustedIssuers == "" {
		return nil
	}
	parts := strings.Split(c.TrustedIssuers, ",")
	issuers := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			issuers = append(issuers, trimmed)
		}
	}
	return issuers
}

// GetGinMode returns the Gin mode based on the log level.
// Debug log level enables Gin debug mode; everything else runs in release mode.
func (c *Config) GetGinMode() string {
	if c.LogLevel == "debug" {
		return "debug"
	}
	return "release"
}

// loadDotEnv attempts to load a .env file from the current directory or any parent.
func loadDotEnv() {
	dir, err := os.Getwd()
	if err != nil {
		return
	}

	for {
		envFile := filepath.Join(dir, ".env")
		if _, err := os.Stat(envFile); err == nil {
			_ = godotenv.Load(envFile)
			return
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}
