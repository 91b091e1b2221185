// Package config loads and validates application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	// Server settings.
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Store settings.
	Driver       string // "sqlite" (default) or "postgres"
	DatabaseURL  string // Postgres URL; required when Driver is postgres.
	MaxConns     int
	SQLitePath   string // ":memory:" or a file path.
	SeedDemoData bool   // Load demo fixtures into the store at startup.

	// Access control.
	DevMode              bool   // Bypass all permission checks. Never enable in production.
	RoleTablePath        string // Optional YAML role table; built-in table when empty.
	TrustIdentityHeaders bool   // Accept X-User-* headers from a trusted front end. Off by default.

	// JWT settings.
	JWTPrivateKeyPath string // Path to Ed25519 private key PEM file.
	JWTPublicKeyPath  string // Path to Ed25519 public key PEM file.
	JWTExpiration     time.Duration

	// OTEL settings.
	OTELEndpoint    string
	OTELInsecure    bool
	ServiceName     string
	OTELSampleRatio float64

	// Daily report gate.
	ReportCacheTTL   time.Duration
	ReportCandidates int

	// Rate limiting, per caller.
	RateLimitRPS   float64
	RateLimitBurst int

	// Operational settings.
	LogLevel            string
	MaxCompareWells     int
	MaxRequestBodyBytes int64 // Maximum request body size in bytes.
}

// Load reads configuration from environment variables with sensible defaults.
// Every malformed variable is reported, not just the first.
func Load() (Config, error) {
	var l loader
	cfg := Config{
		Port:                 l.intVar("DRILLQUERY_PORT", 8080),
		ReadTimeout:          l.durationVar("DRILLQUERY_READ_TIMEOUT", 30*time.Second),
		WriteTimeout:         l.durationVar("DRILLQUERY_WRITE_TIMEOUT", 30*time.Second),
		Driver:               strings.ToLower(envStr("DRILLQUERY_STORE", DriverSQLite)),
		DatabaseURL:          envStr("DATABASE_URL", ""),
		MaxConns:             l.intVar("DRILLQUERY_DB_MAX_CONNS", 10),
		SQLitePath:           envStr("DRILLQUERY_SQLITE_PATH", ":memory:"),
		SeedDemoData:         l.boolVar("DRILLQUERY_SEED_DEMO", true),
		DevMode:              l.boolVar("DRILLQUERY_DEV_MODE", false),
		RoleTablePath:        envStr("DRILLQUERY_ROLE_TABLE", ""),
		TrustIdentityHeaders: l.boolVar("DRILLQUERY_TRUST_IDENTITY_HEADERS", false),
		JWTPrivateKeyPath:    envStr("DRILLQUERY_JWT_PRIVATE_KEY", ""),
		JWTPublicKeyPath:     envStr("DRILLQUERY_JWT_PUBLIC_KEY", ""),
		JWTExpiration:        l.durationVar("DRILLQUERY_JWT_EXPIRATION", 24*time.Hour),
		OTELEndpoint:         envStr("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTELInsecure:         l.boolVar("OTEL_EXPORTER_OTLP_INSECURE", false),
		ServiceName:          envStr("OTEL_SERVICE_NAME", "drillquery"),
		OTELSampleRatio:      l.floatVar("DRILLQUERY_OTEL_SAMPLE_RATIO", 1),
		ReportCacheTTL:       l.durationVar("DRILLQUERY_REPORT_CACHE_TTL", 60*time.Second),
		ReportCandidates:     l.intVar("DRILLQUERY_REPORT_CANDIDATES", 5),
		RateLimitRPS:         l.floatVar("DRILLQUERY_RATE_LIMIT_RPS", 10),
		RateLimitBurst:       l.intVar("DRILLQUERY_RATE_LIMIT_BURST", 20),
		LogLevel:             envStr("DRILLQUERY_LOG_LEVEL", "info"),
		MaxCompareWells:      l.intVar("DRILLQUERY_MAX_COMPARE_WELLS", 10),
		MaxRequestBodyBytes:  int64(l.intVar("DRILLQUERY_MAX_REQUEST_BODY_BYTES", 1*1024*1024)), // 1 MB default
	}
	if len(l.errs) > 0 {
		return Config{}, fmt.Errorf("config: %w", errors.Join(l.errs...))
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that required configuration is present and consistent.
func (c Config) Validate() error {
	switch c.Driver {
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("config: DRILLQUERY_SQLITE_PATH is required for the sqlite store")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config: DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("config: DRILLQUERY_STORE must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.Driver)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: DRILLQUERY_PORT must be between 1 and 65535")
	}
	if (c.JWTPrivateKeyPath == "") != (c.JWTPublicKeyPath == "") {
		return fmt.Errorf("config: DRILLQUERY_JWT_PRIVATE_KEY and DRILLQUERY_JWT_PUBLIC_KEY must be set together")
	}
	if c.OTELSampleRatio < 0 || c.OTELSampleRatio > 1 {
		return fmt.Errorf("config: DRILLQUERY_OTEL_SAMPLE_RATIO must be within [0, 1]")
	}
	if c.ReportCandidates <= 0 {
		return fmt.Errorf("config: DRILLQUERY_REPORT_CANDIDATES must be positive")
	}
	if c.MaxCompareWells <= 0 {
		return fmt.Errorf("config: DRILLQUERY_MAX_COMPARE_WELLS must be positive")
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("config: rate limit settings must not be negative")
	}
	if c.MaxRequestBodyBytes <= 0 {
		return fmt.Errorf("config: DRILLQUERY_MAX_REQUEST_BODY_BYTES must be positive")
	}
	return nil
}

// loader collects parse errors so Load can report all of them at once.
type loader struct {
	errs []error
}

func (l *loader) intVar(key string, defaultVal int) int {
	v, err := envInt(key, defaultVal)
	if err != nil {
		l.errs = append(l.errs, err)
	}
	return v
}

func (l *loader) boolVar(key string, defaultVal bool) bool {
	v, err := envBool(key, defaultVal)
	if err != nil {
		l.errs = append(l.errs, err)
	}
	return v
}

func (l *loader) durationVar(key string, defaultVal time.Duration) time.Duration {
	v, err := envDuration(key, defaultVal)
	if err != nil {
		l.errs = append(l.errs, err)
	}
	return v
}

func (l *loader) floatVar(key string, defaultVal float64) float64 {
	v, err := envFloat(key, defaultVal)
	if err != nil {
		l.errs = append(l.errs, err)
	}
	return v
}

func envStr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal, fmt.Errorf("%s=%q is not a valid integer", key, v)
	}
	return n, nil
}

func envBool(key string, defaultVal bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal, fmt.Errorf("%s=%q is not a valid boolean", key, v)
	}
	return b, nil
}

func envDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal, fmt.Errorf("%s=%q is not a valid duration", key, v)
	}
	return d, nil
}

func envFloat(key string, defaultVal float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal, fmt.Errorf("%s=%q is not a valid number", key, v)
	}
	return f, nil
}
