package credo

import (
	"context"
	"errors"

	"github.com/credo-auth/credo/account"
)

// rehasher is the optional upgrade hook a hasher can expose. When the
// stored hash predates the current parameters, a successful login
// transparently re-encodes it.
type rehasher interface {
	NeedsRehash(encoded string) (bool, error)
}

// Login verifies credentials and starts a session.
//
// An unknown email and a wrong password return the same
// [ErrInvalidCredentials]; an unverified account is reported before the
// password is checked. On success the previous session, if any, is
// displaced: the stored refresh hash is overwritten by the new one.
func (e *Engine) Login(ctx context.Context, email, plain string) (TokenPair, error) {
	if err := e.ready(); err != nil {
		return TokenPair{}, err
	}

	a, err := e.repo.FindByEmail(ctx, account.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, e.infra(ctx, "login", err)
	}
	if !a.Verified {
		return TokenPair{}, ErrEmailNotVerified
	}

	ok, err := e.hasher.Verify(plain, a.PasswordHash)
	if err != nil || !ok {
		return TokenPair{}, ErrInvalidCredentials
	}
	e.upgradeHash(ctx, a, plain)

	pair, err := e.issuePair(a)
	if err != nil {
		return TokenPair{}, e.infra(ctx, "login", err, "account_id", a.ID)
	}
	a.TouchLogin(e.now())
	if err := e.repo.Save(ctx, a); err != nil {
		return TokenPair{}, e.infra(ctx, "login", err, "account_id", a.ID)
	}

	e.logger.InfoContext(ctx, "login", "account_id", a.ID)
	return pair, nil
}

// upgradeHash re-encodes the password under current parameters when the
// hasher supports detection. Failure leaves the old hash in place; the
// login already succeeded.
func (e *Engine) upgradeHash(ctx context.Context, a *account.Account, plain string) {
	r, ok := e.hasher.(rehasher)
	if !ok {
		return
	}
	stale, err := r.NeedsRehash(a.PasswordHash)
	if err != nil || !stale {
		return
	}
	fresh, err := e.hasher.Hash(plain)
	if err != nil {
		e.logger.WarnContext(ctx, "hash upgrade failed", "account_id", a.ID, "error", err)
		return
	}
	a.PasswordHash = fresh
}
