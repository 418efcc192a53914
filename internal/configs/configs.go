/*
Package configs loads the server configuration once at process start.

Values come from the environment, optionally seeded from a .env file in the
working directory. Every tunable the services need (signing secret, token
lifetime, public base URL, listen port) lives here and is injected from main.
*/
package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"net/netip"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	// EnvDevelopment relaxes CORS, enables console logging and allows defaults
	// that are unsafe in production.
	EnvDevelopment = "development"

	developmentJWTSecret = "dev_insecure_secret_change_me"
)

// AppConfig holds every configuration value of the server.
type AppConfig struct {
	// General Server Settings
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Port        int    `env:"PORT" envDefault:"5000"`

	// Security Settings
	AllowedOrigins []string      `env:"ALLOWED_ORIGINS" envSeparator:","`
	JWTSecret      string        `env:"JWT_SECRET"`
	TokenExpiry    time.Duration `env:"TOKEN_EXPIRY" envDefault:"168h"`
	BcryptCost     int           `env:"BCRYPT_COST" envDefault:"10"`

	AuthRatePerMinute int `env:"AUTH_RATE_PER_MINUTE" envDefault:"20"`
	AuthRateBurst     int `env:"AUTH_RATE_BURST" envDefault:"5"`

	// TrustedProxies lists the proxy addresses or CIDRs whose X-Forwarded-For
	// and X-Real-IP headers are believed. Empty trusts nobody.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`
	// TrustedProxyPrefixes is TrustedProxies parsed by validate.
	TrustedProxyPrefixes []netip.Prefix

	// Public URLs
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:3000"`
	AvatarBaseURL string `env:"AVATAR_BASE_URL" envDefault:"https://ui-avatars.com/api/"`

	// QR Code Settings
	QRSize        int           `env:"QR_SIZE" envDefault:"256"`
	QRDownloadTTL time.Duration `env:"QR_DOWNLOAD_TTL" envDefault:"15m"`

	// Database Settings. Empty selects the in-memory store.
	DatabaseDSN string `env:"DATABASE_URL"`

	// Redis Settings. Empty selects the in-process rate limiter.
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// S3 Storage Settings. All empty disables QR archiving.
	S3BucketName      string `env:"S3_BUCKET_NAME"`
	S3Endpoint        string `env:"S3_ENDPOINT"`
	S3AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`

	// Error Reporting
	SentryDSN string `env:"SENTRY_DSN"`
}

// IsDevelopment reports whether the server runs in the development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// StorageEnabled reports whether S3 settings were provided.
func (c *AppConfig) StorageEnabled() bool {
	return c.S3BucketName != ""
}

// LoadConfig reads .env (if present) and the environment, applies defaults
// and validates the result.
func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	return Parse(env.Options{})
}

// Parse builds an AppConfig from opts (process environment unless
// opts.Environment is set) and validates it.
func Parse(opts env.Options) (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *AppConfig) validate() error {
	if c.Port < 1024 || c.Port > 65535 {
		return fmt.Errorf("port number %d is outside the allowed range (%d-%d)", c.Port, 1024, 65535)
	}

	// --- Security Settings ---
	if c.JWTSecret == "" {
		if !c.IsDevelopment() {
			return fmt.Errorf("JWT_SECRET environment variable is required in %s environment", c.Environment)
		}
		c.JWTSecret = developmentJWTSecret
	}

	if c.TokenExpiry <= 0 {
		return fmt.Errorf("TOKEN_EXPIRY must be positive, got %s", c.TokenExpiry)
	}

	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST %d is outside the bcrypt range (4-31)", c.BcryptCost)
	}

	if c.AuthRatePerMinute <= 0 || c.AuthRateBurst <= 0 {
		return errors.New("AUTH_RATE_PER_MINUTE and AUTH_RATE_BURST must be positive")
	}

	origins := c.AllowedOrigins[:0]
	for _, origin := range c.AllowedOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	c.AllowedOrigins = origins

	c.TrustedProxyPrefixes = c.TrustedProxyPrefixes[:0]
	for _, raw := range c.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		prefix, err := parseProxy(raw)
		if err != nil {
			return fmt.Errorf("TRUSTED_PROXIES entry %q is not an IP or CIDR", raw)
		}
		c.TrustedProxyPrefixes = append(c.TrustedProxyPrefixes, prefix)
	}

	// --- Public URLs ---
	for name, raw := range map[string]string{"PUBLIC_BASE_URL": c.PublicBaseURL, "AVATAR_BASE_URL": c.AvatarBaseURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", name, raw)
		}
	}
	c.PublicBaseURL = strings.TrimRight(c.PublicBaseURL, "/")

	// --- QR Code Settings ---
	if c.QRSize < 64 || c.QRSize > 2048 {
		return fmt.Errorf("QR_SIZE %d is outside the supported range (64-2048)", c.QRSize)
	}

	// --- Database Settings ---
	if c.DatabaseDSN == "" && !c.IsDevelopment() {
		return fmt.Errorf("DATABASE_URL environment variable is required in %s environment", c.Environment)
	}

	// --- S3 Storage Settings ---
	s3 := []string{c.S3BucketName, c.S3Endpoint, c.S3AccessKeyID, c.S3SecretAccessKey}
	set := 0
	for _, v := range s3 {
		if v != "" {
			set++
		}
	}
	if set != 0 && set != len(s3) {
		return errors.New("S3_BUCKET_NAME, S3_ENDPOINT, S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY must be set together")
	}

	return nil
}

// parseProxy accepts "10.0.0.0/8" as well as a bare "10.0.0.1".
func parseProxy(raw string) (netip.Prefix, error) {
	if strings.Contains(raw, "/") {
		prefix, err := netip.ParsePrefix(raw)
		if err != nil {
			return netip.Prefix{}, err
		}
		return prefix.Masked(), nil
	}

	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return netip.Prefix{}, err
	}
	addr = addr.Unmap()
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}
