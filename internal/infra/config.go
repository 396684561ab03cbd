package infra

import (
	"errors"
	"fmt"
	"io/fs"
	"net/netip"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const insecureJWTSecret = "change-me-in-production"

// Identity backends.
const (
	IdentityLocal  = "local"
	IdentityGoTrue = "gotrue"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	// Database
	DatabaseURL   string `env:"DATABASE_URL"`
	PGHost        string `env:"PGHOST" envDefault:"localhost"`
	PGPort        int    `env:"PGPORT" envDefault:"5432"`
	PGUser        string `env:"PGUSER" envDefault:"quiniela"`
	PGPassword    string `env:"PGPASSWORD" envDefault:"quiniela"`
	PGDatabase    string `env:"PGDATABASE" envDefault:"quiniela"`
	RunMigrations bool   `env:"RUN_MIGRATIONS" envDefault:"true"`
	DBMaxConns    int32  `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns    int32  `env:"DB_MIN_CONNS" envDefault:"1"`

	// Server
	APIPort int `env:"API_PORT" envDefault:"3100"`

	// Identity provider
	IdentityBackend    string        `env:"IDENTITY_BACKEND" envDefault:"local"`
	IdentityURL        string        `env:"IDENTITY_URL"`
	IdentityAnonKey    string        `env:"IDENTITY_ANON_KEY"`
	IdentityServiceKey string        `env:"IDENTITY_SERVICE_KEY"`
	JWTSecret          string        `env:"JWT_SECRET" envDefault:"change-me-in-production"`
	JWTExpiry          time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`

	// Redis
	RedisURL         string        `env:"REDIS_URL" envDefault:"redis://localhost:6379"`
	RedisEnabled     bool          `env:"REDIS_ENABLED" envDefault:"false"`
	ScheduleCacheTTL time.Duration `env:"SCHEDULE_CACHE_TTL" envDefault:"5m"`

	// Kafka
	KafkaBrokers       string        `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	KafkaEnabled       bool          `env:"KAFKA_ENABLED" envDefault:"false"`
	OutboxPollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"2s"`
	OutboxBatchSize    int           `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`

	// HTTP
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`
	LoginRatePerMinute int    `env:"LOGIN_RATE_PER_MINUTE" envDefault:"20"`
	// Comma-separated CIDRs whose X-Forwarded-For is believed. Empty trusts no proxy.
	TrustedProxies string `env:"TRUSTED_PROXIES"`

	// Bootstrap admin
	BootstrapAdminEmail    string `env:"BOOTSTRAP_ADMIN_EMAIL"`
	BootstrapAdminPassword string `env:"BOOTSTRAP_ADMIN_PASSWORD"`
	BootstrapAdminName     string `env:"BOOTSTRAP_ADMIN_NAME" envDefault:"admin"`

	// Dev
	AllowInsecureDefaults bool `env:"ALLOW_INSECURE_DEFAULTS" envDefault:"false"`
}

// LoadConfig loads an optional .env file and parses environment variables
// into a Config struct. Variables already set in the environment win.
func LoadConfig(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks for configuration that must not run in production.
// Set ALLOW_INSECURE_DEFAULTS=true to bypass the secret checks (local dev only).
func (c *Config) Validate() error {
	switch c.IdentityBackend {
	case IdentityLocal:
		if c.AllowInsecureDefaults {
			break
		}
		if c.JWTSecret == insecureJWTSecret {
			return fmt.Errorf("JWT_SECRET is set to the insecure default; set a strong secret or set ALLOW_INSECURE_DEFAULTS=true for local dev")
		}
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET is too short (%d chars); minimum 32 characters required", len(c.JWTSecret))
		}
	case IdentityGoTrue:
		if c.IdentityURL == "" {
			return fmt.Errorf("IDENTITY_URL is required for the gotrue backend")
		}
		if c.IdentityAnonKey == "" || c.IdentityServiceKey == "" {
			return fmt.Errorf("IDENTITY_ANON_KEY and IDENTITY_SERVICE_KEY are required for the gotrue backend")
		}
	default:
		return fmt.Errorf("unknown IDENTITY_BACKEND %q (want %s or %s)", c.IdentityBackend, IdentityLocal, IdentityGoTrue)
	}
	if c.JWTExpiry <= 0 {
		return fmt.Errorf("JWT_EXPIRY must be positive")
	}
	if c.OutboxBatchSize <= 0 {
		return fmt.Errorf("OUTBOX_BATCH_SIZE must be positive")
	}
	if c.LoginRatePerMinute <= 0 {
		return fmt.Errorf("LOGIN_RATE_PER_MINUTE must be positive")
	}
	if _, err := c.TrustedProxyPrefixes(); err != nil {
		return err
	}
	return nil
}

// DSN returns the PostgreSQL connection string, preferring DATABASE_URL if set.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDatabase)
}

// CORSOrigins splits CORS_ALLOWED_ORIGINS on commas.
func (c *Config) CORSOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// TrustedProxyPrefixes parses TRUSTED_PROXIES. A bare address is taken as a
// single-host prefix.
func (c *Config) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, raw := range strings.Split(c.TrustedProxies, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if !strings.Contains(raw, "/") {
			addr, err := netip.ParseAddr(raw)
			if err != nil {
				return nil, fmt.Errorf("TRUSTED_PROXIES: invalid address %q", raw)
			}
			out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		prefix, err := netip.ParsePrefix(raw)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES: invalid CIDR %q", raw)
		}
		out = append(out, prefix.Masked())
	}
	return out, nil
}

// BootstrapEnabled reports whether a bootstrap admin should be provisioned.
func (c *Config) BootstrapEnabled() bool {
	return c.BootstrapAdminEmail != "" && c.BootstrapAdminPassword != ""
}
