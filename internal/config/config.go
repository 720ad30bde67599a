package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

// Catalog backends.
const (
	BackendSQL    = "sql"
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendS3     = "s3"
	BackendRedis  = "redis"
)

// Config holds all configuration for the application.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Catalog   CatalogConfig
	S3        S3Config
	Redis     RedisConfig
	Auth      AuthConfig
	OIDC      OIDCConfig
	Log       LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port            int           `env:"SERVER_PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// DatabaseConfig holds database configuration. The database always stores
// API keys, and stores the catalog document when CATALOG_BACKEND is sql.
type DatabaseConfig struct {
	Driver string `env:"DB_DRIVER" envDefault:"sqlite3"`
	DSN    string `env:"DB_DSN" envDefault:"data/pricing-catalog.db"`
}

// CatalogConfig selects where the catalog document lives and how it is saved.
type CatalogConfig struct {
	Backend          string        `env:"CATALOG_BACKEND" envDefault:"sql"`
	FilePath         string        `env:"CATALOG_FILE" envDefault:"data/pricing_catalog.json"`
	PersistTimeout   time.Duration `env:"CATALOG_PERSIST_TIMEOUT" envDefault:"10s"`
	Autosave         bool          `env:"CATALOG_AUTOSAVE" envDefault:"false"`
	AutosaveDebounce time.Duration `env:"CATALOG_AUTOSAVE_DEBOUNCE" envDefault:"5s"`
}

// S3Config holds the S3 gateway settings.
type S3Config struct {
	Region          string `env:"S3_REGION" envDefault:"us-east-1"`
	Bucket          string `env:"S3_BUCKET"`
	Key             string `env:"S3_KEY" envDefault:"pricing_catalog.json"`
	Endpoint        string `env:"S3_ENDPOINT"`
	AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
	PathStyle       bool   `env:"S3_PATH_STYLE" envDefault:"false"`
}

// RedisConfig holds the Redis gateway settings.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	Key      string `env:"REDIS_KEY" envDefault:"pricing_catalog"`
}

// AuthConfig holds API key authentication settings.
type AuthConfig struct {
	BootstrapAPIKey string `env:"BOOTSTRAP_API_KEY"`
}

// OIDCConfig holds OIDC authentication configuration.
type OIDCConfig struct {
	Enabled         bool          `env:"OIDC_ENABLED" envDefault:"false"`
	IssuerURL       string        `env:"OIDC_ISSUER_URL"`
	ClientID        string        `env:"OIDC_CLIENT_ID"`
	ClientSecret    string        `env:"OIDC_CLIENT_SECRET"`
	RedirectURL     string        `env:"OIDC_REDIRECT_URL"`
	Scopes          string        `env:"OIDC_SCOPES" envDefault:"openid,email,profile"`
	SessionSecret   string        `env:"OIDC_SESSION_SECRET"`
	SessionDuration time.Duration `env:"OIDC_SESSION_DURATION" envDefault:"24h"`
	SecureCookies   bool          `env:"OIDC_SECURE_COOKIES" envDefault:"true"`
	AllowedDomains  string        `env:"OIDC_ALLOWED_DOMAINS"`
	AdminEmails     string        `env:"OIDC_ADMIN_EMAILS"`
	EditorEmails    string        `env:"OIDC_EDITOR_EMAILS"`
	EditorDomains   string        `env:"OIDC_EDITOR_DOMAINS"`
	LogoutURL       string        `env:"OIDC_LOGOUT_URL"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

// RateLimitConfig holds per-caller rate limiting for the API.
type RateLimitConfig struct {
	Enabled bool    `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RPS     float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`
	Burst   int     `env:"RATE_LIMIT_BURST" envDefault:"40"`
}

// GetScopes returns the OIDC scopes as a slice.
func (c *OIDCConfig) GetScopes() []string {
	if scopes := splitList(c.Scopes); len(scopes) > 0 {
		return scopes
	}
	return []string{"openid", "email", "profile"}
}

// GetAllowedDomains returns the allowed domains as a slice.
func (c *OIDCConfig) GetAllowedDomains() []string {
	return splitList(c.AllowedDomains)
}

// GetAdminEmails returns the emails granted the admin role.
func (c *OIDCConfig) GetAdminEmails() []string {
	return splitList(c.AdminEmails)
}

// GetEditorEmails returns the emails granted the editor role.
func (c *OIDCConfig) GetEditorEmails() []string {
	return splitList(c.EditorEmails)
}

// GetEditorDomains returns the email domains granted the editor role.
func (c *OIDCConfig) GetEditorDomains() []string {
	return splitList(c.EditorDomains)
}

// GetSessionSecretBytes returns the session secret as bytes.
func (c *OIDCConfig) GetSessionSecretBytes() ([]byte, error) {
	if c.SessionSecret == "" {
		return nil, fmt.Errorf("OIDC_SESSION_SECRET is required")
	}
	// 64 hex chars = 32 bytes
	if len(c.SessionSecret) == 64 {
		decoded, err := hex.DecodeString(c.SessionSecret)
		if err == nil {
			return decoded, nil
		}
	}
	if len(c.SessionSecret) != 32 {
		return nil, fmt.Errorf("OIDC_SESSION_SECRET must be 32 bytes (or 64 hex characters)")
	}
	return []byte(c.SessionSecret), nil
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load reads an optional .env file and then parses the environment.
// Variables already set in the environment win over the file.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	cfg := &Config{}

	if err := env.Parse(&cfg.Server); err != nil {
		return nil, fmt.Errorf("parsing server config: %w", err)
	}
	if err := env.Parse(&cfg.Database); err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	if err := env.Parse(&cfg.Catalog); err != nil {
		return nil, fmt.Errorf("parsing catalog config: %w", err)
	}
	if err := env.Parse(&cfg.S3); err != nil {
		return nil, fmt.Errorf("parsing s3 config: %w", err)
	}
	if err := env.Parse(&cfg.Redis); err != nil {
		return nil, fmt.Errorf("parsing redis config: %w", err)
	}
	if err := env.Parse(&cfg.Auth); err != nil {
		return nil, fmt.Errorf("parsing auth config: %w", err)
	}
	if err := env.Parse(&cfg.OIDC); err != nil {
		return nil, fmt.Errorf("parsing oidc config: %w", err)
	}
	if err := env.Parse(&cfg.Log); err != nil {
		return nil, fmt.Errorf("parsing log config: %w", err)
	}
	if err := env.Parse(&cfg.RateLimit); err != nil {
		return nil, fmt.Errorf("parsing rate limit config: %w", err)
	}

	return cfg, nil
}

// Addr returns the server address in host:port format.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Catalog.Backend {
	case BackendSQL, BackendMemory:
	case BackendFile:
		if c.Catalog.FilePath == "" {
			return fmt.Errorf("CATALOG_FILE is required for the file backend")
		}
	case BackendS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for the s3 backend")
		}
	case BackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown CATALOG_BACKEND %q", c.Catalog.Backend)
	}

	if c.Catalog.PersistTimeout <= 0 {
		return fmt.Errorf("CATALOG_PERSIST_TIMEOUT must be positive")
	}
	if c.Catalog.Autosave && c.Catalog.AutosaveDebounce <= 0 {
		return fmt.Errorf("CATALOG_AUTOSAVE_DEBOUNCE must be positive when autosave is enabled")
	}

	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}

	if c.OIDC.Enabled {
		if c.OIDC.IssuerURL == "" {
			return fmt.Errorf("OIDC_ISSUER_URL is required when OIDC is enabled")
		}
		if c.OIDC.ClientID == "" {
			return fmt.Errorf("OIDC_CLIENT_ID is required when OIDC is enabled")
		}
		if c.OIDC.ClientSecret == "" {
			return fmt.Errorf("OIDC_CLIENT_SECRET is required when OIDC is enabled")
		}
		if c.OIDC.RedirectURL == "" {
			return fmt.Errorf("OIDC_REDIRECT_URL is required when OIDC is enabled")
		}
		if _, err := c.OIDC.GetSessionSecretBytes(); err != nil {
			return err
		}
	}

	return nil
}
