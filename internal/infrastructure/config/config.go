package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig encapsulates all runtime configuration knobs. It is built once by
// Load and passed by value afterwards; nothing mutates it after startup.
type AppConfig struct {
	App       AppSettings
	HTTP      HTTPSettings
	Auth      AuthSettings
	Log       LogSettings
	Middleend MiddleendSettings
	Internal  InternalAPISettings
	Audit     AuditSettings
	Database  DatabaseSettings
	Cache     CacheSettings
	Delays    DelaySettings
	Security  SecuritySettings
}

type AppSettings struct {
	Name        string
	Version     string
	Environment string
}

type HTTPSettings struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxUploadSize   int64
}

type AuthSettings struct {
	Enabled     bool
	IssuerURI   string
	JWKSetURI   string
	ClockSkew   time.Duration
	BypassPaths []string
	// Identity injected on every request when Enabled is false.
	DevUserID    string
	DevSessionID string
	DevRoles     []string
}

type LogSettings struct {
	Level string
}

// MiddleendSettings describes how the upstream admin middleend is reached.
type MiddleendSettings struct {
	BaseURL      string
	LocalBaseURL string
	// Environment mirrors ME_ENV. "local" switches base URL, path templates and retries.
	Environment string
	Scope       string
	Retries     int
	RetryDelay  time.Duration
	Timeouts    UpstreamTimeouts
}

// UpstreamTimeouts keeps the per-resource call budget.
type UpstreamTimeouts struct {
	Promotions    time.Duration
	Offers        time.Duration
	MassiveOffers time.Duration
	Navigation    time.Duration
	Candidates    time.Duration
	Items         time.Duration
	Credibility   time.Duration
	Lookup        time.Duration
}

type InternalAPISettings struct {
	BaseURL string
}

type AuditSettings struct {
	Enabled      bool
	Backend      string // http, postgres or none
	Name         string
	BaseURL      string
	WriteTimeout time.Duration
	MaxBodySize  int

	// MaxConcurrentWrites bounds the writes in flight against the backend.
	MaxConcurrentWrites int
}

type DatabaseSettings struct {
	Host            string
	Port            int
	Database        string
	User            string
	Password        string
	SSLMode         string
	MaxConns        int
	ConnMaxLifetime time.Duration
}

type CacheSettings struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	LookupTTL     time.Duration
}

// DelaySettings holds the read-after-write compensation applied before the
// upstream call of list endpoints that are usually hit right after a write.
type DelaySettings struct {
	OffersList        time.Duration
	CandidateItems    time.Duration
	InvalidCandidates time.Duration
}

type SecuritySettings struct {
	// ActionScopes maps a promotion status action to the scopes it requires.
	ActionScopes map[string][]string
}

// Local reports whether the middleend runs on the developer machine.
func (m MiddleendSettings) Local() bool {
	return strings.EqualFold(strings.TrimSpace(m.Environment), "local")
}

// Load resolves the application configuration from environment variables.
// A .env file is honored when present; real environment variables win.
func Load() (AppConfig, error) {
	_ = godotenv.Load()

	env := getEnv("APP_ENV", "local")

	cfg := AppConfig{
		App: AppSettings{
			Name:        getEnv("APP_NAME", "promotions-admin-api"),
			Version:     getEnv("APP_VERSION", "0.1.0"),
			Environment: env,
		},
		HTTP: HTTPSettings{
			Port:            getEnvAsInt("APP_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("HTTP_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("HTTP_WRITE_TIMEOUT", 60*time.Second),
			IdleTimeout:     getEnvAsDuration("HTTP_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 30*time.Second),
			MaxUploadSize:   int64(getEnvAsInt("HTTP_MAX_UPLOAD_BYTES", 20<<20)),
		},
		Auth: AuthSettings{
			Enabled:      getEnvAsBool("AUTH_ENABLED", true),
			IssuerURI:    strings.TrimSpace(os.Getenv("JWT_ISSUER_URI")),
			JWKSetURI:    strings.TrimSpace(os.Getenv("JWT_JWK_SET_URI")),
			ClockSkew:    getEnvAsDuration("AUTH_CLOCK_SKEW", 2*time.Minute),
			BypassPaths:  getEnvAsCSV("AUTH_BYPASS_PATHS", []string{"/health", "/metrics"}),
			DevUserID:    getEnv("AUTH_DEV_USER_ID", "1"),
			DevSessionID: getEnv("AUTH_DEV_SESSION_ID", "local-session"),
			DevRoles:     getEnvAsCSV("AUTH_DEV_ROLES", nil),
		},
		Log: LogSettings{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Middleend: MiddleendSettings{
			BaseURL:      getEnv("MIDDLEEND_BASE_URL", "http://internal.mercadolibre.com"),
			LocalBaseURL: getEnv("MIDDLEEND_LOCAL_BASE_URL", "http://localhost:8081"),
			Environment:  getEnv("ME_ENV", ""),
			Scope:        getEnv("MIDDLEEND_SCOPE", defaultScope(env)),
			Retries:      getEnvAsInt("MIDDLEEND_RETRIES", 2),
			RetryDelay:   getEnvAsDuration("MIDDLEEND_RETRY_DELAY", 100*time.Millisecond),
			Timeouts: UpstreamTimeouts{
				Promotions:    getEnvAsDuration("MIDDLEEND_TIMEOUT_PROMOTIONS", 50*time.Second),
				Offers:        getEnvAsDuration("MIDDLEEND_TIMEOUT_OFFERS", 50*time.Second),
				MassiveOffers: getEnvAsDuration("MIDDLEEND_TIMEOUT_MASSIVE_OFFERS", 50*time.Second),
				Navigation:    getEnvAsDuration("MIDDLEEND_TIMEOUT_NAVIGATION", 50*time.Second),
				Candidates:    getEnvAsDuration("MIDDLEEND_TIMEOUT_CANDIDATES", 10*time.Second),
				Items:         getEnvAsDuration("MIDDLEEND_TIMEOUT_ITEMS", 10*time.Second),
				Credibility:   getEnvAsDuration("MIDDLEEND_TIMEOUT_CREDIBILITY", 10*time.Second),
				Lookup:        getEnvAsDuration("MIDDLEEND_TIMEOUT_LOOKUP", 5*time.Second),
			},
		},
		Internal: InternalAPISettings{
			BaseURL: getEnv("INTERNAL_API_BASE_URL", "http://internal.mercadolibre.com"),
		},
		Audit: AuditSettings{
			Enabled:      getEnvAsBool("AUDIT_ENABLED", true),
			Backend:      strings.ToLower(getEnv("AUDIT_BACKEND", "http")),
			Name:         getEnv("AUDIT_NAME", "pandora-audits"),
			BaseURL:      strings.TrimSpace(os.Getenv("AUDIT_BASE_URL")),
			WriteTimeout: getEnvAsDuration("AUDIT_WRITE_TIMEOUT", 500*time.Millisecond),
			MaxBodySize:  getEnvAsInt("AUDIT_MAX_BODY_SIZE", 102400),

			MaxConcurrentWrites: getEnvAsInt("AUDIT_MAX_CONCURRENT_WRITES", 32),
		},
		Database: DatabaseSettings{
			Host:            strings.TrimSpace(os.Getenv("DB_HOST")),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Database:        getEnv("DB_NAME", "promotions_admin"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Cache: CacheSettings{
			RedisAddr:     strings.TrimSpace(os.Getenv("REDIS_ADDR")),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
			RedisDB:       getEnvAsInt("REDIS_DB", 0),
			LookupTTL:     getEnvAsDuration("LOOKUP_CACHE_TTL", 24*time.Hour),
		},
		Delays: DelaySettings{
			OffersList:        getEnvAsDuration("DELAY_OFFERS_LIST", time.Second),
			CandidateItems:    getEnvAsDuration("DELAY_CANDIDATE_ITEMS", time.Second),
			InvalidCandidates: getEnvAsDuration("DELAY_INVALID_CANDIDATES", time.Second),
		},
		Security: SecuritySettings{
			ActionScopes: getEnvAsScopeMap("SECURITY_ACTION_SCOPES", DefaultActionScopes()),
		},
	}

	if cfg.Auth.Enabled {
		if cfg.Auth.IssuerURI == "" {
			return cfg, errors.New("invalid config: JWT_ISSUER_URI is required when AUTH_ENABLED=true")
		}
		if cfg.Auth.JWKSetURI == "" {
			return cfg, errors.New("invalid config: JWT_JWK_SET_URI is required when AUTH_ENABLED=true")
		}
	}

	switch cfg.Audit.Backend {
	case "http":
		if cfg.Audit.Enabled && cfg.Audit.BaseURL == "" {
			return cfg, errors.New("invalid config: AUDIT_BASE_URL is required when AUDIT_BACKEND=http")
		}
	case "postgres":
		if cfg.Audit.Enabled && cfg.Database.Host == "" {
			return cfg, errors.New("invalid config: DB_HOST is required when AUDIT_BACKEND=postgres")
		}
	case "none":
	default:
		return cfg, fmt.Errorf("invalid config: unknown AUDIT_BACKEND %q", cfg.Audit.Backend)
	}

	if cfg.Middleend.Retries < 0 {
		return cfg, errors.New("invalid config: MIDDLEEND_RETRIES cannot be negative")
	}

	return cfg, nil
}

// DefaultActionScopes returns the scopes required by each promotion status action.
func DefaultActionScopes() map[string][]string {
	return map[string][]string{
		"approve":  {"SP_CENTRAL_PROMOTION_APPROVE"},
		"reject":   {"SP_CENTRAL_PROMOTION_APPROVE"},
		"delete":   {"SP_CENTRAL_PROMOTION_DELETE"},
		"cancel":   {"SP_CENTRAL_PROMOTION_DELETE"},
		"pause":    {"SP_CENTRAL_PROMOTION_PAUSE"},
		"activate": {"SP_CENTRAL_PROMOTION_PAUSE"},
		"finish":   {"SP_CENTRAL_PROMOTION_FINISH"},
	}
}

// Address returns the HTTP listen address in host:port form.
func (h HTTPSettings) Address() string {
	return fmt.Sprintf(":%d", h.Port)
}

// ConnString builds a libpq style connection string for pgx.
func (d DatabaseSettings) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s pool_max_conns=%d pool_max_conn_lifetime=%s",
		d.Host, d.Port, d.Database, d.User, d.Password, d.SSLMode, d.MaxConns, d.ConnMaxLifetime,
	)
}

func defaultScope(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "local", "dev", "development", "test":
		return "test"
	default:
		return ""
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsCSV(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			values = append(values, trimmed)
		}
	}
	if len(values) == 0 {
		return fallback
	}
	return values
}

// getEnvAsScopeMap parses "action:SCOPE_A|SCOPE_B,other:SCOPE_C".
func getEnvAsScopeMap(key string, fallback map[string][]string) map[string][]string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	result := make(map[string][]string)
	for _, entry := range strings.Split(raw, ",") {
		action, scopes, ok := strings.Cut(strings.TrimSpace(entry), ":")
		if !ok || strings.TrimSpace(action) == "" {
			continue
		}
		for _, scope := range strings.Split(scopes, "|") {
			if trimmed := strings.TrimSpace(scope); trimmed != "" {
				result[strings.TrimSpace(action)] = append(result[strings.TrimSpace(action)], trimmed)
			}
		}
	}
	if len(result) == 0 {
		return fallback
	}
	return result
}
