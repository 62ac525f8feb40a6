// Package config loads process configuration from MEMBERADMIN_* environment variables.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config is the full process configuration.
type Config struct {
	Addr string `env:"MEMBERADMIN_ADDR" envDefault:":8080"`
	Env  string `env:"MEMBERADMIN_ENV" envDefault:"development"`

	SourceURL    string        `env:"MEMBERADMIN_SOURCE_URL" envDefault:"https://geektrust.s3-ap-southeast-1.amazonaws.com/adminui-problem/members.json"`
	FetchTimeout time.Duration `env:"MEMBERADMIN_FETCH_TIMEOUT" envDefault:"0s"`
	FetchRetries int           `env:"MEMBERADMIN_FETCH_RETRIES" envDefault:"0"`
	FetchCache   time.Duration `env:"MEMBERADMIN_FETCH_CACHE" envDefault:"30s"` // snapshot shared by new workspaces

	Store      string        `env:"MEMBERADMIN_STORE" envDefault:"memory"`
	SessionTTL time.Duration `env:"MEMBERADMIN_SESSION_TTL" envDefault:"24h"`

	CSRFKey        string   `env:"MEMBERADMIN_CSRF_KEY"`
	TrustedOrigins []string `env:"MEMBERADMIN_TRUSTED_ORIGINS" envDefault:"localhost:8080,127.0.0.1:8080" envSeparator:","`
	RateLimit      int      `env:"MEMBERADMIN_RATE_LIMIT" envDefault:"10"` // requests per second per IP

	LogLevel      string `env:"MEMBERADMIN_LOG_LEVEL" envDefault:"info"`
	SlowRequestMs int    `env:"MEMBERADMIN_SLOW_REQUEST_MS" envDefault:"200"`
	Banner        string `env:"MEMBERADMIN_BANNER"`

	ResendKey  string        `env:"MEMBERADMIN_RESEND_KEY"`
	AlertFrom  string        `env:"MEMBERADMIN_ALERT_FROM" envDefault:"memberadmin <alerts@localhost>"`
	AlertTo    []string      `env:"MEMBERADMIN_ALERT_TO" envSeparator:","`
	AlertEvery time.Duration `env:"MEMBERADMIN_ALERT_EVERY" envDefault:"15m"` // at most one fetch alert per interval

	OTELEndpoint string `env:"MEMBERADMIN_OTEL_ENDPOINT"`
	OTELEnabled  bool   `env:"MEMBERADMIN_OTEL_ENABLED" envDefault:"true"`
}

// Load parses the environment and validates the result.
// POST: Returns a validated Config or an error prefixed with "parse env:" or "invalid config:"
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks values env tags cannot express.
func (c Config) Validate() error {
	var errs []error
	if c.Store != StoreMemory && c.Store != StoreSQLite {
		errs = append(errs, fmt.Errorf("MEMBERADMIN_STORE must be %q or %q, got %q", StoreMemory, StoreSQLite, c.Store))
	}
	if c.SourceURL == "" {
		errs = append(errs, errors.New("MEMBERADMIN_SOURCE_URL must not be empty"))
	}
	if c.FetchRetries < 0 {
		errs = append(errs, errors.New("MEMBERADMIN_FETCH_RETRIES must not be negative"))
	}
	if c.FetchTimeout < 0 {
		errs = append(errs, errors.New("MEMBERADMIN_FETCH_TIMEOUT must not be negative"))
	}
	if c.FetchCache <= 0 {
		errs = append(errs, errors.New("MEMBERADMIN_FETCH_CACHE must be positive"))
	}
	if c.AlertEvery <= 0 {
		errs = append(errs, errors.New("MEMBERADMIN_ALERT_EVERY must be positive"))
	}
	if c.RateLimit <= 0 {
		errs = append(errs, errors.New("MEMBERADMIN_RATE_LIMIT must be positive"))
	}
	if c.CSRFKey != "" {
		if key, err := hex.DecodeString(c.CSRFKey); err != nil || len(key) != 32 {
			errs = append(errs, errors.New("MEMBERADMIN_CSRF_KEY must be 64 hex characters (32 bytes)"))
		}
	} else if c.IsProduction() {
		errs = append(errs, errors.New("MEMBERADMIN_CSRF_KEY is required in production"))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether MEMBERADMIN_ENV is "production".
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// SlowRequest returns the slow request threshold.
func (c Config) SlowRequest() time.Duration {
	return time.Duration(c.SlowRequestMs) * time.Millisecond
}

// CSRFKeyBytes returns the configured key, or a random one outside production.
// POST: random is true when the key was generated
func (c Config) CSRFKeyBytes() (key []byte, random bool, err error) {
	if c.CSRFKey != "" {
		key, err = hex.DecodeString(c.CSRFKey)
		return key, false, err
	}
	key = make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, false, fmt.Errorf("generate CSRF key: %w", err)
	}
	return key, true, nil
}
