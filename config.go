package credo

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/credo-auth/credo/policy"
	"github.com/credo-auth/credo/token"
)

// Config carries every tunable of the core. TTLs default to the values
// the flows are tested against; the four signing secrets have no default
// and must differ from one another.
//
// Config instances are intended to be set once during initialization and
// then treated as immutable.
type Config struct {
	Issuer string `env:"CREDO_ISSUER" envDefault:"credo"`

	AccessSecret  string `env:"CREDO_ACCESS_SECRET"`
	RefreshSecret string `env:"CREDO_REFRESH_SECRET"`
	VerifySecret  string `env:"CREDO_VERIFY_SECRET"`
	ResetSecret   string `env:"CREDO_RESET_SECRET"`

	AccessTTL  time.Duration `env:"CREDO_ACCESS_TTL" envDefault:"15m"`
	RefreshTTL time.Duration `env:"CREDO_REFRESH_TTL" envDefault:"168h"`
	VerifyTTL  time.Duration `env:"CREDO_VERIFY_TTL" envDefault:"24h"`
	ResetTTL   time.Duration `env:"CREDO_RESET_TTL" envDefault:"15m"`

	PasswordHistory   int           `env:"CREDO_PASSWORD_HISTORY" envDefault:"5"`
	PasswordMinLength int           `env:"CREDO_PASSWORD_MIN_LENGTH" envDefault:"8"`
	PasswordMinAge    time.Duration `env:"CREDO_PASSWORD_MIN_AGE" envDefault:"24h"`
	PasswordMaxAge    time.Duration `env:"CREDO_PASSWORD_MAX_AGE" envDefault:"2160h"`

	// RevocationPrefix namespaces denylist keys in a shared Redis.
	RevocationPrefix string `env:"CREDO_REVOCATION_PREFIX" envDefault:"credo:bl"`
}

// DefaultConfig returns the documented defaults with empty secrets.
func DefaultConfig() Config {
	return Config{
		Issuer:            "credo",
		AccessTTL:         token.DefaultAccessTTL,
		RefreshTTL:        token.DefaultRefreshTTL,
		VerifyTTL:         token.DefaultVerifyTTL,
		ResetTTL:          token.DefaultResetTTL,
		PasswordHistory:   policy.DefaultHistory,
		PasswordMinLength: policy.DefaultMinLength,
		PasswordMinAge:    policy.DefaultMinAge,
		PasswordMaxAge:    policy.DefaultMaxAge,
		RevocationPrefix:  "credo:bl",
	}
}

// ConfigFromEnv loads a Config from CREDO_* environment variables.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Validate checks the parts the token codec cannot: it runs at Build time
// so misconfiguration fails startup, not the first request.
func (c Config) Validate() error {
	if c.AccessSecret == "" || c.RefreshSecret == "" || c.VerifySecret == "" || c.ResetSecret == "" {
		return errors.New("all four token secrets are required")
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 || c.VerifyTTL <= 0 || c.ResetTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if c.RefreshTTL <= c.AccessTTL {
		return errors.New("refresh TTL must exceed access TTL")
	}
	if c.PasswordHistory < 1 {
		return errors.New("password history must be at least 1")
	}
	if c.PasswordMinLength < 8 {
		return errors.New("password minimum length must be at least 8")
	}
	if c.PasswordMinAge < 0 || c.PasswordMaxAge <= c.PasswordMinAge {
		return errors.New("password max age must exceed min age")
	}
	return nil
}

func (c Config) tokenConfig() token.Config {
	return token.Config{
		AccessSecret:  []byte(c.AccessSecret),
		RefreshSecret: []byte(c.RefreshSecret),
		VerifySecret:  []byte(c.VerifySecret),
		ResetSecret:   []byte(c.ResetSecret),
		AccessTTL:     c.AccessTTL,
		RefreshTTL:    c.RefreshTTL,
		VerifyTTL:     c.VerifyTTL,
		ResetTTL:      c.ResetTTL,
		Issuer:        c.Issuer,
	}
}

func (c Config) policyEngine() *policy.Engine {
	return policy.NewEngine(c.PasswordHistory, c.PasswordMinLength, c.PasswordMinAge, c.PasswordMaxAge)
}
