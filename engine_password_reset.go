package credo

import (
	"context"
	"errors"
	mrand "math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/credo-auth/credo/account"
	"github.com/credo-auth/credo/policy"
	"github.com/credo-auth/credo/token"
)

// ForgotPassword starts a password reset. It always reports success so
// the endpoint cannot be used to probe which emails have accounts; the
// unknown-email path burns a short random delay so timing does not give
// the answer either. The real outcome goes to the log.
func (e *Engine) ForgotPassword(ctx context.Context, email string) error {
	if err := e.ready(); err != nil {
		return err
	}

	a, err := e.repo.FindByEmail(ctx, account.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			jitterSleep(ctx)
			e.logger.InfoContext(ctx, "password reset for unknown email")
			return nil
		}
		e.logger.ErrorContext(ctx, "password reset lookup failed", "error", err)
		return nil
	}

	reset, err := e.codec.Issue(token.PurposeReset, a.ID.String(), a.Email)
	if err != nil {
		e.logger.ErrorContext(ctx, "reset token issue failed", "account_id", a.ID, "error", err)
		return nil
	}
	if err := e.sender.SendPasswordResetEmail(ctx, a.Email, reset); err != nil {
		e.logger.ErrorContext(ctx, "reset email failed", "account_id", a.ID, "error", err)
		return nil
	}

	e.logger.InfoContext(ctx, "password reset requested", "account_id", a.ID)
	return nil
}

// jitterSleep pads the not-found path with 20-40ms so it is not visibly
// faster than issuing and sending a reset email.
func jitterSleep(ctx context.Context) {
	d := 20*time.Millisecond + time.Duration(mrand.Int64N(int64(20*time.Millisecond)))
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

// ResetPassword consumes a reset token and installs a new password.
//
// The token is single use: a successful reset puts it on the denylist for
// its remaining life, so replaying it fails [ErrInvalidOrExpiredToken]
// even though the signature still verifies. The new password runs the
// full policy: strength, reuse against the current hash and the bounded
// history, and minimum age. Installing it also clears the stored refresh
// hash, which ends any live session.
func (e *Engine) ResetPassword(ctx context.Context, resetToken, plain string) error {
	if err := e.ready(); err != nil {
		return err
	}

	claims, err := e.codec.Verify(token.PurposeReset, resetToken)
	if err != nil {
		return ErrInvalidOrExpiredToken
	}
	revoked, err := e.revocations.IsRevoked(ctx, resetToken)
	if err != nil {
		return e.infra(ctx, "reset_password", err)
	}
	if revoked {
		return ErrInvalidOrExpiredToken
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ErrInvalidOrExpiredToken
	}
	a, err := e.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return ErrInvalidOrExpiredToken
		}
		return e.infra(ctx, "reset_password", err)
	}

	if err := e.validateNewPassword(ctx, a, plain); err != nil {
		return err
	}

	hash, err := e.hasher.Hash(plain)
	if err != nil {
		return e.infra(ctx, "reset_password", err, "account_id", a.ID)
	}
	a.UpdatePassword(hash, e.now())
	if err := e.repo.Save(ctx, a); err != nil {
		return e.infra(ctx, "reset_password", err, "account_id", a.ID)
	}

	// Best effort; the reset already happened and the token expires on
	// its own soon anyway.
	if err := e.revocations.Revoke(ctx, resetToken, e.codec.RemainingLife(claims)); err != nil {
		e.logger.WarnContext(ctx, "reset token revoke failed", "account_id", a.ID, "error", err)
	}

	e.logger.InfoContext(ctx, "password reset", "account_id", a.ID)
	return nil
}

// validateNewPassword runs the policy for a password change. The current
// hash counts as history, so "reset to the same password" is a reuse;
// checks run strength first, then reuse, then minimum age.
func (e *Engine) validateNewPassword(ctx context.Context, a *account.Account, plain string) error {
	if err := e.policy.CheckStrength(plain); err != nil {
		return err
	}
	if ok, err := e.hasher.Verify(plain, a.PasswordHash); err == nil && ok {
		return policy.ErrReused
	}
	if err := e.policy.CheckReuse(ctx, plain, a.PasswordHistory, e.hasher.Verify); err != nil {
		return err
	}
	return e.policy.CheckAge(a.LastPasswordChange, e.now())
}
