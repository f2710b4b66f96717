// Package config loads runtime settings from SLADKARIJE_* environment
// variables.
package config

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every variable name.
const Prefix = "SLADKARIJE"

// Config holds runtime configuration.
type Config struct {
	DB      string `envconfig:"DB" default:"sladkarije.db"`
	Addr    string `envconfig:"ADDR" default:":8080"`
	LogFile string `envconfig:"LOG"`

	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"15s"`

	// TokenSecret overrides the secret persisted in the database.
	TokenSecret string        `envconfig:"TOKEN_SECRET"`
	TokenTTL    time.Duration `envconfig:"TOKEN_TTL" default:"24h"`

	// RedisAddr enables idempotent purchases when set.
	RedisAddr      string        `envconfig:"REDIS_ADDR"`
	IdempotencyTTL time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`

	ManagerUser        string `envconfig:"MANAGER_USER" default:"admin"`
	AllowManagerSignup bool   `envconfig:"ALLOW_MANAGER_SIGNUP" default:"true"`

	// AuthRateLimit is the number of auth requests allowed per client IP
	// per minute. Zero disables limiting.
	AuthRateLimit int `envconfig:"AUTH_RATE_LIMIT" default:"20"`
	// TrustProxy reads client addresses from proxy headers.
	TrustProxy bool `envconfig:"TRUST_PROXY" default:"false"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that envconfig cannot.
func (c *Config) Validate() error {
	switch {
	case c.DB == "":
		return errors.New("database path must not be empty")
	case c.Addr == "":
		return errors.New("listen address must not be empty")
	case c.TokenTTL <= 0:
		return errors.New("token TTL must be positive")
	case c.AuthRateLimit < 0:
		return errors.New("auth rate limit must not be negative")
	case c.ManagerUser == "":
		return errors.New("manager user must not be empty")
	}
	return nil
}

// IdempotencyEnabled reports whether a Redis server is configured.
func (c *Config) IdempotencyEnabled() bool {
	return c != nil && c.RedisAddr != ""
}
