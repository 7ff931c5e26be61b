package credo

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/credo-auth/credo/account"
	"github.com/credo-auth/credo/policy"
	"github.com/credo-auth/credo/token"
)

// Authenticate is the protected-route read path: it verifies an access
// token cryptographically and against the revocation denylist, returning
// the caller's identity. A revoked token fails [ErrTokenRevoked] even
// though the signature still verifies.
func (e *Engine) Authenticate(ctx context.Context, accessToken string) (Identity, error) {
	if err := e.ready(); err != nil {
		return Identity{}, err
	}

	claims, err := e.codec.Verify(token.PurposeAccess, accessToken)
	if err != nil {
		return Identity{}, ErrInvalidOrExpiredToken
	}
	revoked, err := e.revocations.IsRevoked(ctx, accessToken)
	if err != nil {
		return Identity{}, e.infra(ctx, "authenticate", err)
	}
	if revoked {
		return Identity{}, ErrTokenRevoked
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Identity{}, ErrInvalidOrExpiredToken
	}
	return Identity{
		AccountID: id,
		Email:     claims.Email,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Account returns the safe projection of an account for transports: no
// hash, no history.
func (e *Engine) Account(ctx context.Context, accountID uuid.UUID) (account.View, error) {
	if err := e.ready(); err != nil {
		return account.View{}, err
	}
	a, err := e.repo.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return account.View{}, ErrAccountNotFound
		}
		return account.View{}, e.infra(ctx, "account", err, "account_id", accountID)
	}
	return a.View(), nil
}

// CheckPasswordStrength scores a candidate password for interactive
// strength meters. Purely computational; no account state is consulted.
func (e *Engine) CheckPasswordStrength(plain string) StrengthResult {
	score, feedback := policy.Score(plain)
	return StrengthResult{Score: score, Feedback: feedback}
}

// PasswordExpired reports whether the account's password is past the
// configured maximum age. Advisory read path: it never blocks a flow,
// callers use it to prompt a change.
func (e *Engine) PasswordExpired(ctx context.Context, accountID uuid.UUID) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	a, err := e.repo.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return false, ErrAccountNotFound
		}
		return false, e.infra(ctx, "password_expired", err, "account_id", accountID)
	}
	return e.policy.Expired(a.LastPasswordChange, e.now()), nil
}
