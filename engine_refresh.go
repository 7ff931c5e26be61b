package credo

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/credo-auth/credo/token"
)

// Refresh rotates a session: it trades a valid refresh token for a new
// access+refresh pair and invalidates the presented one.
//
// Rotation is compare-and-swap against the stored refresh hash, so a
// replayed refresh token loses the race deterministically: whichever copy
// rotates second no longer matches and fails [ErrInvalidRefreshToken].
// Last-login is not touched; refresh is session maintenance, not a login.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if err := e.ready(); err != nil {
		return TokenPair{}, err
	}

	claims, err := e.codec.Verify(token.PurposeRefresh, refreshToken)
	if err != nil {
		return TokenPair{}, ErrInvalidRefreshToken
	}
	revoked, err := e.revocations.IsRevoked(ctx, refreshToken)
	if err != nil {
		return TokenPair{}, e.infra(ctx, "refresh", err)
	}
	if revoked {
		return TokenPair{}, ErrInvalidRefreshToken
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return TokenPair{}, ErrInvalidRefreshToken
	}
	a, err := e.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return TokenPair{}, ErrInvalidRefreshToken
		}
		return TokenPair{}, e.infra(ctx, "refresh", err)
	}

	presented := hashToken(refreshToken)
	pair, err := e.issuePair(a)
	if err != nil {
		return TokenPair{}, e.infra(ctx, "refresh", err, "account_id", a.ID)
	}
	err = e.repo.RotateRefreshHash(ctx, a.ID, presented, hashToken(pair.RefreshToken))
	switch {
	case errors.Is(err, ErrRefreshHashMismatch), errors.Is(err, ErrAccountNotFound):
		e.logger.WarnContext(ctx, "refresh rotation lost", "account_id", a.ID)
		return TokenPair{}, ErrInvalidRefreshToken
	case err != nil:
		return TokenPair{}, e.infra(ctx, "refresh", err, "account_id", a.ID)
	}

	return pair, nil
}
