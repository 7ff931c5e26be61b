package credo

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/credo-auth/credo/token"
)

// Logout ends a session: the presented access token goes on the denylist
// for its remaining lifetime, the optional refresh token likewise, and
// the stored refresh hash is cleared so the session cannot be resumed.
//
// refreshToken may be empty; callers that only hold an access token still
// get the stored session cleared. Logout is idempotent: a second call
// with the same tokens fails only because the access token is by then
// revoked.
func (e *Engine) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if err := e.ready(); err != nil {
		return err
	}

	claims, err := e.codec.Verify(token.PurposeAccess, accessToken)
	if err != nil {
		return ErrInvalidOrExpiredToken
	}
	revoked, err := e.revocations.IsRevoked(ctx, accessToken)
	if err != nil {
		return e.infra(ctx, "logout", err)
	}
	if revoked {
		return ErrTokenRevoked
	}

	if err := e.revocations.Revoke(ctx, accessToken, e.codec.RemainingLife(claims)); err != nil {
		return e.infra(ctx, "logout", err)
	}
	if refreshToken != "" {
		// A malformed or expired refresh token is nothing to revoke;
		// logout still proceeds.
		if rc, err := e.codec.Verify(token.PurposeRefresh, refreshToken); err == nil {
			if err := e.revocations.Revoke(ctx, refreshToken, e.codec.RemainingLife(rc)); err != nil {
				return e.infra(ctx, "logout", err)
			}
		}
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ErrInvalidOrExpiredToken
	}
	a, err := e.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			// The tokens are already dead; a deleted account is fine.
			return nil
		}
		return e.infra(ctx, "logout", err, "account_id", id)
	}
	a.ClearRefreshToken(e.now())
	if err := e.repo.Save(ctx, a); err != nil {
		return e.infra(ctx, "logout", err, "account_id", a.ID)
	}

	e.logger.InfoContext(ctx, "logout", "account_id", a.ID)
	return nil
}
