package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Purpose names the single use a token is signed for. A token issued for
// one purpose never verifies under another, because each purpose signs
// with its own secret and carries an explicit purpose claim.
type Purpose string

const (
	// PurposeAccess is the short-lived bearer credential for API calls.
	PurposeAccess Purpose = "access"
	// PurposeRefresh is the long-lived credential exchanged for a new pair.
	PurposeRefresh Purpose = "refresh"
	// PurposeEmailVerify proves ownership of a registered email address.
	PurposeEmailVerify Purpose = "email_verify"
	// PurposeReset authorizes a single password reset.
	PurposeReset Purpose = "reset"
)

var (
	// ErrTokenExpired reports a well-formed, correctly signed token whose
	// expiry has passed. Callers surface this differently from a forgery.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenMalformed reports a token that is unparsable, carries a bad
	// signature, or was signed for a different purpose.
	ErrTokenMalformed = errors.New("token malformed or invalid")
)

// Default TTLs applied by NewCodec when the config leaves them zero.
const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
	DefaultVerifyTTL  = 24 * time.Hour
	DefaultResetTTL   = 15 * time.Minute
)

// Config carries the per-purpose signing secrets and lifetimes.
//
// Config instances are intended to be set once during initialization and
// then treated as immutable.
type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	VerifySecret  []byte
	ResetSecret   []byte

	AccessTTL  time.Duration
	RefreshTTL time.Duration
	VerifyTTL  time.Duration
	ResetTTL   time.Duration

	Issuer string
	Leeway time.Duration
}

// Claims is the signed claim set carried by every credo token.
type Claims struct {
	Email   string `json:"email,omitempty"`
	Purpose string `json:"pur"`
	jwt.RegisteredClaims
}

// Codec signs and verifies the four token purposes. It is stateless and
// safe for concurrent use.
type Codec struct {
	config Config
	now    func() time.Time
}

// NewCodec validates the config, applies default TTLs, and returns a
// ready Codec. Every purpose requires a non-empty secret, and no two
// purposes may share one: cross-purpose replay must fail at the
// signature, not just at the claim check.
func NewCodec(cfg Config) (*Codec, error) {
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL == 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if cfg.VerifyTTL == 0 {
		cfg.VerifyTTL = DefaultVerifyTTL
	}
	if cfg.ResetTTL == 0 {
		cfg.ResetTTL = DefaultResetTTL
	}
	if cfg.AccessTTL < 0 || cfg.RefreshTTL < 0 || cfg.VerifyTTL < 0 || cfg.ResetTTL < 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	secrets := map[Purpose][]byte{
		PurposeAccess:      cfg.AccessSecret,
		PurposeRefresh:     cfg.RefreshSecret,
		PurposeEmailVerify: cfg.VerifySecret,
		PurposeReset:       cfg.ResetSecret,
	}
	seen := make(map[string]Purpose, len(secrets))
	for purpose, secret := range secrets {
		if len(secret) < 16 {
			return nil, fmt.Errorf("%s secret must be at least 16 bytes", purpose)
		}
		if prior, dup := seen[string(secret)]; dup {
			return nil, fmt.Errorf("%s and %s must not share a secret", prior, purpose)
		}
		seen[string(secret)] = purpose
	}

	return &Codec{config: cfg, now: time.Now}, nil
}

// WithNow returns a copy of the codec using the given clock. Intended for
// deterministic tests.
func (c *Codec) WithNow(now func() time.Time) *Codec {
	clone := *c
	clone.now = now
	return &clone
}

// Issue signs a claim set for the given purpose with that purpose's
// secret and TTL. Subject is the account id; email travels along so
// verification flows can address mail without a repository round trip.
func (c *Codec) Issue(purpose Purpose, subject, email string) (string, error) {
	secret, ttl, err := c.material(purpose)
	if err != nil {
		return "", err
	}

	// The jti makes every token unique even when two are issued for the
	// same subject within one second; rotation and single-use checks
	// compare raw token values and need that distinction.
	now := c.now()
	claims := Claims{
		Email:   email,
		Purpose: string(purpose),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    c.config.Issuer,
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Verify checks signature and expiry against the purpose-specific secret
// and enforces that the token was signed for that purpose. An expired but
// otherwise valid token yields ErrTokenExpired; all other failures yield
// ErrTokenMalformed so callers never leak which check tripped.
func (c *Codec) Verify(purpose Purpose, tokenStr string) (*Claims, error) {
	secret, _, err := c.material(purpose)
	if err != nil {
		return nil, err
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	}
	if c.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(c.config.Leeway))
	}
	if c.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(c.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenMalformed
	}
	if claims.Purpose != string(purpose) {
		return nil, ErrTokenMalformed
	}
	if claims.Subject == "" {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

// TTL reports the configured lifetime for a purpose.
func (c *Codec) TTL(purpose Purpose) time.Duration {
	_, ttl, err := c.material(purpose)
	if err != nil {
		return 0
	}
	return ttl
}

// RemainingLife reports how long a verified token stays valid from now.
// Used to bound revocation entries so they never outlive the token they
// block. Returns zero for claims without an expiry or already past it.
func (c *Codec) RemainingLife(claims *Claims) time.Duration {
	if claims == nil || claims.ExpiresAt == nil {
		return 0
	}
	remaining := claims.ExpiresAt.Time.Sub(c.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (c *Codec) material(purpose Purpose) ([]byte, time.Duration, error) {
	switch purpose {
	case PurposeAccess:
		return c.config.AccessSecret, c.config.AccessTTL, nil
	case PurposeRefresh:
		return c.config.RefreshSecret, c.config.RefreshTTL, nil
	case PurposeEmailVerify:
		return c.config.VerifySecret, c.config.VerifyTTL, nil
	case PurposeReset:
		return c.config.ResetSecret, c.config.ResetTTL, nil
	default:
		return nil, 0, fmt.Errorf("unsupported token purpose %q", purpose)
	}
}
