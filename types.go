package credo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/credo-auth/credo/account"
)

// Repository is the persistence collaborator flows mutate accounts
// through. Implementations must return [ErrAccountNotFound] for misses
// and keep email lookups case-insensitive (credo always normalizes
// before calling).
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*account.Account, error)
	FindByEmail(ctx context.Context, email string) (*account.Account, error)
	// Create persists a new account. A concurrent claim of the same email
	// must fail with ErrEmailExists.
	Create(ctx context.Context, a *account.Account) error
	// Save persists the full mutated state: verification flag, password
	// hash and history, refresh-token hash, timestamps.
	Save(ctx context.Context, a *account.Account) error
	// RotateRefreshHash atomically replaces the stored refresh-token hash
	// with next, but only when the stored value still equals expected.
	// Any other stored value fails with ErrRefreshHashMismatch and leaves
	// the record untouched. This compare-and-swap is what makes two
	// concurrent refresh calls racing on the same stale token resolve to
	// at most one winner.
	RotateRefreshHash(ctx context.Context, id uuid.UUID, expected, next string) error
}

// Hasher is the password hashing primitive. [password.Argon2id]
// implements it; a bcrypt or KMS-backed hasher can be swapped in.
type Hasher interface {
	Hash(plain string) (string, error)
	// Verify reports a mismatch as (false, nil); an error means the
	// stored hash itself is unusable.
	Verify(plain, encoded string) (bool, error)
}

// Clock supplies the current time to every flow. Injectable so TTL and
// age arithmetic is deterministic under test.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now calls the wrapped function.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock is the wall clock used when no Clock is injected.
func SystemClock() Clock { return ClockFunc(time.Now) }

// TokenPair is an access/refresh pair issued together. The refresh token
// is single-use: exchanging it rotates the pair.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// RegisterResult is returned by [Engine.Register].
type RegisterResult struct {
	Tokens  TokenPair    `json:"tokens"`
	Account account.View `json:"account"`
}

// StrengthResult is returned by [Engine.CheckPasswordStrength].
type StrengthResult struct {
	Score    int      `json:"score"`
	Feedback []string `json:"feedback,omitempty"`
}

// Identity is the authenticated caller an access token resolves to.
type Identity struct {
	AccountID uuid.UUID
	Email     string
	ExpiresAt time.Time
}
